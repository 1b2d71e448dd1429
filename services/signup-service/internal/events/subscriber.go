package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"google.golang.org/protobuf/types/known/structpb"

	commonevents "github.com/burakmert236/scrimsignups/common/events"
	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
	"github.com/burakmert236/scrimsignups/common/natsjetstream"
)

type ScrimEventApplier interface {
	ApplyScrimEvent(ctx context.Context, subject string, scrim *models.Scrim) error
}

// EventSubscriber keeps this replica's roster cache in step with scrims
// opened or closed elsewhere. Each replica gets its own ephemeral consumer.
type EventSubscriber struct {
	subscriber *natsjetstream.Subscriber
	applier    ScrimEventApplier
	logger     *logger.Logger
	consume    jetstream.ConsumeContext
}

func NewEventSubscriber(client *natsjetstream.Client, applier ScrimEventApplier, log *logger.Logger) *EventSubscriber {
	return &EventSubscriber{
		subscriber: natsjetstream.NewSubscriber(client, log),
		applier:    applier,
		logger:     log.With("component", "event-subscriber"),
	}
}

func (s *EventSubscriber) Start(ctx context.Context) error {
	cfg := natsjetstream.ConsumerConfig{
		StreamName:     commonevents.ScrimEventsStream,
		FilterSubjects: []string{commonevents.ScrimEventsWildcard},
		AckPolicy:      "explicit",
		DeliverPolicy:  "new",
		AckWait:        30 * time.Second,
		MaxDeliver:     5,
	}

	s.logger.Info("Subscribing to scrim events", "stream", cfg.StreamName)

	consume, err := s.subscriber.Subscribe(ctx, cfg, s.handleScrimEvent)
	if err != nil {
		return fmt.Errorf("failed to subscribe to scrim events: %w", err)
	}
	s.consume = consume
	return nil
}

func (s *EventSubscriber) Stop() error {
	if s.consume != nil {
		s.consume.Stop()
	}
	return nil
}

func (s *EventSubscriber) handleScrimEvent(ctx context.Context, msg jetstream.Msg) error {
	subject := msg.Subject()
	s.logger.Debug("Received scrim event", "subject", subject)

	var event structpb.Struct
	if err := natsjetstream.UnmarshalProto(msg, &event); err != nil {
		s.logger.Error("Failed to unmarshal scrim event", "subject", subject, "error", err)
		return fmt.Errorf("unmarshal error: %w", err)
	}

	scrim, err := decodeScrim(&event)
	if err != nil {
		// redelivery will not fix a malformed payload
		s.logger.Warn("Dropping malformed scrim event", "subject", subject, "error", err)
		return nil
	}

	if err := s.applier.ApplyScrimEvent(ctx, subject, scrim); err != nil {
		s.logger.Error("Failed to apply scrim event",
			"subject", subject,
			"scrim_id", scrim.ScrimId,
			"error", err,
		)
		return err
	}
	return nil
}

func decodeScrim(event *structpb.Struct) (*models.Scrim, error) {
	raw := event.GetFields()["scrim"].GetStructValue()
	if raw == nil {
		return nil, fmt.Errorf("event has no scrim")
	}
	fields := raw.GetFields()

	scrim := &models.Scrim{
		ScrimId:   fields["scrimId"].GetStringValue(),
		ChannelId: fields["channelId"].GetStringValue(),
		Active:    fields["active"].GetBoolValue(),
	}
	if scrim.ScrimId == "" || scrim.ChannelId == "" {
		return nil, fmt.Errorf("scrim id and channel id are required")
	}

	scheduled, err := time.Parse(time.RFC3339Nano, fields["scheduledTime"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("bad scheduled time: %w", err)
	}
	scrim.ScheduledTime = scheduled.UTC()

	return scrim, nil
}
