package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares the cache between replicas. Each value is a JSON
// document; a team list is written as one value so SetTeams stays a full
// replacement.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "roster"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Key Generation Helpers

func (r *RedisStore) channelKey(channelId string) string {
	return fmt.Sprintf("%s:channel:%s", r.prefix, channelId)
}

func (r *RedisStore) teamsKey(scrimId string) string {
	return fmt.Sprintf("%s:teams:%s", r.prefix, scrimId)
}

func (r *RedisStore) GetScrim(ctx context.Context, channelId string) (*models.Scrim, bool, error) {
	raw, err := r.client.Get(ctx, r.channelKey(channelId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to get cached scrim")
	}

	var scrim models.Scrim
	if err := json.Unmarshal(raw, &scrim); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeObjectUnmarshalError, "failed to decode cached scrim")
	}
	return &scrim, true, nil
}

func (r *RedisStore) CreateScrim(ctx context.Context, channelId string, scrim *models.Scrim) error {
	raw, err := json.Marshal(scrim)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to encode scrim")
	}
	if err := r.client.Set(ctx, r.channelKey(channelId), raw, 0).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to cache scrim")
	}
	return nil
}

func (r *RedisStore) RemoveScrim(ctx context.Context, channelId string) error {
	scrim, ok, err := r.GetScrim(ctx, channelId)
	if err != nil {
		return err
	}

	keys := []string{r.channelKey(channelId)}
	if ok {
		keys = append(keys, r.teamsKey(scrim.ScrimId))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to remove cached scrim")
	}
	return nil
}

func (r *RedisStore) GetTeams(ctx context.Context, scrimId string) ([]models.Team, bool, error) {
	raw, err := r.client.Get(ctx, r.teamsKey(scrimId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to get cached teams")
	}

	teams := make([]models.Team, 0)
	if err := json.Unmarshal(raw, &teams); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeObjectUnmarshalError, "failed to decode cached teams")
	}
	return teams, true, nil
}

func (r *RedisStore) SetTeams(ctx context.Context, scrimId string, teams []models.Team) error {
	if teams == nil {
		teams = []models.Team{}
	}
	raw, err := json.Marshal(teams)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to encode teams")
	}
	if err := r.client.Set(ctx, r.teamsKey(scrimId), raw, 0).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to cache teams")
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to scan cache keys")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to clear cache")
	}
	return nil
}
