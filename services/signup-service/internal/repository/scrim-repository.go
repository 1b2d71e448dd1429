package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/burakmert236/scrimsignups/common/database"
	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/models"
)

type ScrimRepository interface {
	// Create fails with CodeConflict when the channel already has an active scrim.
	Create(ctx context.Context, scrim *models.Scrim) error
	GetById(ctx context.Context, scrimId string) (*models.Scrim, error)
	GetActiveScrims(ctx context.Context) ([]models.Scrim, error)
	// GetActiveByChannel returns nil, nil when the channel has no active scrim.
	GetActiveByChannel(ctx context.Context, channelId string) (*models.Scrim, error)
	Deactivate(ctx context.Context, scrim *models.Scrim) error
}

type scrimRepo struct {
	db *database.DynamoDBClient
	tx database.Transactor
}

func NewScrimRepository(db *database.DynamoDBClient, tx database.Transactor) ScrimRepository {
	return &scrimRepo{db: db, tx: tx}
}

func scrimKey(scrimId string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimId)},
		"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
	}
}

func channelGuardKey(channelId string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.ChannelPK(channelId)},
		"SK": &types.AttributeValueMemberS{Value: models.ActiveScrimSK()},
	}
}

func (r *scrimRepo) Create(ctx context.Context, scrim *models.Scrim) error {
	now := time.Now().UTC()
	scrim.Active = true
	scrim.PK = models.ScrimPK(scrim.ScrimId)
	scrim.SK = models.MetaSK()
	scrim.GSI1PK = models.ActiveScrimsGSI1PK()
	scrim.GSI1SK = models.ActiveScrimGSI1SK(scrim.ScheduledTime, scrim.ScrimId)
	scrim.CreatedAt = now
	scrim.UpdatedAt = now

	item, err := attributevalue.MarshalMap(scrim)
	if err != nil {
		return fmt.Errorf("failed to marshal scrim: %w", err)
	}

	guard, err := attributevalue.MarshalMap(models.ChannelGuard{
		ChannelId: scrim.ChannelId,
		ScrimId:   scrim.ScrimId,
		PK:        models.ChannelPK(scrim.ChannelId),
		SK:        models.ActiveScrimSK(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal channel guard: %w", err)
	}

	tb := database.NewTransactionBuilder()
	if err := tb.AddPut(types.Put{
		TableName:           aws.String(r.db.Table()),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}); err != nil {
		return err
	}
	if err := tb.AddPut(types.Put{
		TableName:           aws.String(r.db.Table()),
		Item:                guard,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}); err != nil {
		return err
	}

	return r.tx.Execute(ctx, tb)
}

func (r *scrimRepo) GetById(ctx context.Context, scrimId string) (*models.Scrim, error) {
	result, err := r.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.db.Table()),
		Key:       scrimKey(scrimId),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get scrim: %w", err)
	}

	if result.Item == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "scrim not found").WithField("scrim_id", scrimId)
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Item, &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

func (r *scrimRepo) GetActiveScrims(ctx context.Context) ([]models.Scrim, error) {
	scrims := make([]models.Scrim, 0)
	var startKey map[string]types.AttributeValue

	for {
		result, err := r.db.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.db.Table()),
			IndexName:              aws.String("GSI1"),
			KeyConditionExpression: aws.String("GSI1PK = :active"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":active": &types.AttributeValueMemberS{Value: models.ActiveScrimsGSI1PK()},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query active scrims: %w", err)
		}

		page := make([]models.Scrim, 0, len(result.Items))
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scrims: %w", err)
		}
		scrims = append(scrims, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return scrims, nil
}

func (r *scrimRepo) GetActiveByChannel(ctx context.Context, channelId string) (*models.Scrim, error) {
	result, err := r.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.db.Table()),
		Key:       channelGuardKey(channelId),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get channel guard: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var guard models.ChannelGuard
	if err := attributevalue.UnmarshalMap(result.Item, &guard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel guard: %w", err)
	}

	scrim, err := r.GetById(ctx, guard.ScrimId)
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !scrim.Active {
		return nil, nil
	}
	return scrim, nil
}

// Deactivate flips the scrim inactive, drops it from the active index and
// releases the channel, all in one transaction.
func (r *scrimRepo) Deactivate(ctx context.Context, scrim *models.Scrim) error {
	now := time.Now().UTC()

	tb := database.NewTransactionBuilder()
	if err := tb.AddUpdate(types.Update{
		TableName:        aws.String(r.db.Table()),
		Key:              scrimKey(scrim.ScrimId),
		UpdateExpression: aws.String("SET active = :inactive, updated_at = :now REMOVE GSI1PK, GSI1SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inactive": &types.AttributeValueMemberBOOL{Value: false},
			":now":      &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}); err != nil {
		return err
	}
	if err := tb.AddDelete(types.Delete{
		TableName:           aws.String(r.db.Table()),
		Key:                 channelGuardKey(scrim.ChannelId),
		ConditionExpression: aws.String("scrim_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: scrim.ScrimId},
		},
	}); err != nil {
		return err
	}

	if err := r.tx.Execute(ctx, tb); err != nil {
		return err
	}

	scrim.Active = false
	scrim.UpdatedAt = now
	scrim.GSI1PK = ""
	scrim.GSI1SK = ""
	return nil
}
