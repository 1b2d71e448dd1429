package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/burakmert236/scrimsignups/common/database"
	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/models"
)

type TeamRepository interface {
	// GetTeamsForScrim returns teams in signup order.
	GetTeamsForScrim(ctx context.Context, scrimId string) ([]models.Team, error)
	InsertTeam(ctx context.Context, team *models.Team) error
	DeleteTeam(ctx context.Context, scrimId, teamId string) error
	UpdateTeamField(ctx context.Context, scrimId, teamId string, field models.TeamField, value any) (*models.Team, error)
}

type teamRepo struct {
	db *database.DynamoDBClient
}

func NewTeamRepository(db *database.DynamoDBClient) TeamRepository {
	return &teamRepo{db: db}
}

func teamKey(scrimId, teamId string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimId)},
		"SK": &types.AttributeValueMemberS{Value: models.TeamSK(teamId)},
	}
}

func (r *teamRepo) GetTeamsForScrim(ctx context.Context, scrimId string) ([]models.Team, error) {
	teams := make([]models.Team, 0)
	var startKey map[string]types.AttributeValue

	for {
		result, err := r.db.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.db.Table()),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :team)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":   &types.AttributeValueMemberS{Value: models.ScrimPK(scrimId)},
				":team": &types.AttributeValueMemberS{Value: models.TeamSKPrefix()},
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query teams: %w", err)
		}

		page := make([]models.Team, 0, len(result.Items))
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal teams: %w", err)
		}
		teams = append(teams, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	slices.SortStableFunc(teams, func(a, b models.Team) int {
		return a.SignupTimestamp.Compare(b.SignupTimestamp)
	})
	return teams, nil
}

func (r *teamRepo) InsertTeam(ctx context.Context, team *models.Team) error {
	team.PK = models.ScrimPK(team.ScrimId)
	team.SK = models.TeamSK(team.TeamId)

	item, err := attributevalue.MarshalMap(team)
	if err != nil {
		return fmt.Errorf("failed to marshal team: %w", err)
	}

	_, err = r.db.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.db.Table()),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if database.IsConditionFailed(err) {
			return apperrors.Wrap(err, apperrors.CodeConflict, "team already exists")
		}
		return fmt.Errorf("failed to insert team: %w", err)
	}

	return nil
}

func (r *teamRepo) DeleteTeam(ctx context.Context, scrimId, teamId string) error {
	_, err := r.db.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.db.Table()),
		Key:                 teamKey(scrimId, teamId),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if database.IsConditionFailed(err) {
			return apperrors.Wrap(err, apperrors.CodeNotFound, "team not found")
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

func (r *teamRepo) UpdateTeamField(
	ctx context.Context,
	scrimId, teamId string,
	field models.TeamField,
	value any,
) (*models.Team, error) {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
	}

	result, err := r.db.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.db.Table()),
		Key:              teamKey(scrimId, teamId),
		UpdateExpression: aws.String("SET #field = :value"),
		ExpressionAttributeNames: map[string]string{
			"#field": string(field),
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value": av,
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		if database.IsConditionFailed(err) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "team not found")
		}
		return nil, fmt.Errorf("failed to update team %s: %w", field, err)
	}

	var team models.Team
	if err := attributevalue.UnmarshalMap(result.Attributes, &team); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team: %w", err)
	}
	return &team, nil
}
