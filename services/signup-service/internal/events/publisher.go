package events

import (
	"context"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
)

type protoPublisher interface {
	PublishProto(ctx context.Context, subject string, msg proto.Message) error
}

// EventPublisher announces roster and scrim changes. Payloads are
// structpb.Struct so consumers need no generated types.
type EventPublisher struct {
	publisher protoPublisher
	origin    string
	logger    *logger.Logger
}

func NewEventPublisher(publisher protoPublisher, origin string, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		publisher: publisher,
		origin:    origin,
		logger:    log.With("component", "event-publisher"),
	}
}

func (p *EventPublisher) PublishTeamEvent(
	ctx context.Context,
	subject string,
	scrim *models.Scrim,
	team *models.Team,
	extra map[string]any,
) error {
	fields := map[string]any{
		"scrim":  scrimFields(scrim),
		"team":   teamFields(team),
		"origin": p.origin,
		"sentAt": formatTime(time.Now()),
	}
	for k, v := range extra {
		fields[k] = v
	}

	return p.publish(ctx, subject, fields, "team_id", team.TeamId)
}

func (p *EventPublisher) PublishScrimEvent(ctx context.Context, subject string, scrim *models.Scrim) error {
	fields := map[string]any{
		"scrim":  scrimFields(scrim),
		"origin": p.origin,
		"sentAt": formatTime(time.Now()),
	}

	return p.publish(ctx, subject, fields, "scrim_id", scrim.ScrimId)
}

func (p *EventPublisher) publish(ctx context.Context, subject string, fields map[string]any, idKey, id string) error {
	event, err := structpb.NewStruct(fields)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to build event payload").
			WithField("subject", subject)
	}

	if err := p.publisher.PublishProto(ctx, subject, event); err != nil {
		p.logger.Error("Failed to publish event", "subject", subject, idKey, id, "error", err)
		return err
	}

	p.logger.Debug("Published event", "subject", subject, idKey, id)
	return nil
}

func scrimFields(scrim *models.Scrim) map[string]any {
	return map[string]any{
		"scrimId":       scrim.ScrimId,
		"channelId":     scrim.ChannelId,
		"scheduledTime": formatTime(scrim.ScheduledTime),
		"active":        scrim.Active,
	}
}

func teamFields(team *models.Team) map[string]any {
	players := make([]any, 0, len(team.Players))
	for _, p := range team.Players {
		players = append(players, playerFields(p))
	}
	return map[string]any{
		"teamId":          team.TeamId,
		"teamName":        team.TeamName,
		"signupPlayer":    playerFields(team.SignupPlayer),
		"players":         players,
		"signupTimestamp": formatTime(team.SignupTimestamp),
	}
}

func playerFields(p models.Player) map[string]any {
	return map[string]any{
		"externalId":  p.ExternalId,
		"displayName": p.DisplayName,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
