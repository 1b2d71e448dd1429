package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/burakmert236/scrimsignups/common/database"
	"github.com/burakmert236/scrimsignups/common/models"
)

type PlayerRepository interface {
	// UpsertPlayers creates or refreshes profiles keyed by external id and
	// returns the stored records in input order. Empty optional fields never
	// overwrite stored values.
	UpsertPlayers(ctx context.Context, players []models.Player) ([]models.Player, error)
	GetByExternalIds(ctx context.Context, externalIds []string) (map[string]models.Player, error)
}

type playerRepo struct {
	db *database.DynamoDBClient
}

func NewPlayerRepository(db *database.DynamoDBClient) PlayerRepository {
	return &playerRepo{db: db}
}

func playerKey(externalId string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.PlayerPK(externalId)},
		"SK": &types.AttributeValueMemberS{Value: models.ProfileSK()},
	}
}

func (r *playerRepo) UpsertPlayers(ctx context.Context, players []models.Player) ([]models.Player, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	stored := make([]models.Player, 0, len(players))

	for _, p := range players {
		if p.ExternalId == "" {
			return nil, fmt.Errorf("player without external id")
		}

		sets := []string{
			"player_id = if_not_exists(player_id, :pid)",
			"external_id = :eid",
			"created_at = if_not_exists(created_at, :now)",
			"updated_at = :now",
		}
		values := map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: uuid.NewString()},
			":eid": &types.AttributeValueMemberS{Value: p.ExternalId},
			":now": &types.AttributeValueMemberS{Value: now},
		}
		if p.DisplayName != "" {
			sets = append(sets, "display_name = :dn")
			values[":dn"] = &types.AttributeValueMemberS{Value: p.DisplayName}
		}
		if p.StatsLinkId != "" {
			sets = append(sets, "stats_link_id = :sl")
			values[":sl"] = &types.AttributeValueMemberS{Value: p.StatsLinkId}
		}
		if p.Elo != nil {
			sets = append(sets, "elo = :elo")
			values[":elo"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*p.Elo)}
		}

		result, err := r.db.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.db.Table()),
			Key:                       playerKey(p.ExternalId),
			UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
			ExpressionAttributeValues: values,
			ReturnValues:              types.ReturnValueAllNew,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upsert player %s: %w", p.ExternalId, err)
		}

		var player models.Player
		if err := attributevalue.UnmarshalMap(result.Attributes, &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %w", err)
		}
		stored = append(stored, player)
	}

	return stored, nil
}

func (r *playerRepo) GetByExternalIds(ctx context.Context, externalIds []string) (map[string]models.Player, error) {
	players := make(map[string]models.Player, len(externalIds))

	for _, id := range externalIds {
		if _, done := players[id]; done {
			continue
		}

		result, err := r.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.db.Table()),
			Key:       playerKey(id),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get player %s: %w", id, err)
		}
		if result.Item == nil {
			continue
		}

		var player models.Player
		if err := attributevalue.UnmarshalMap(result.Item, &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %w", err)
		}
		players[id] = player
	}

	return players, nil
}
