package natsjetstream

import (
	"context"
	"time"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/nats-io/nats.go/jetstream"
	"google.golang.org/protobuf/proto"
)

type Subscriber struct {
	client *Client
	logger *logger.Logger
}

type MessageHandler func(ctx context.Context, msg jetstream.Msg) error

func NewSubscriber(client *Client, log *logger.Logger) *Subscriber {
	return &Subscriber{client: client, logger: log.With("component", "nats-subscriber")}
}

// Subscribe starts consuming and returns the consume context so the caller
// can stop delivery on shutdown. Handler errors nak the message.
func (s *Subscriber) Subscribe(ctx context.Context, cfg ConsumerConfig, handler MessageHandler) (jetstream.ConsumeContext, error) {
	consumer, err := s.client.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, BuildConsumerConfig(cfg))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEventSubscribtionError, "failed to create consumer").
			WithField("stream", cfg.StreamName)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg); err != nil {
			s.logger.Error("Error handling message", "subject", msg.Subject(), "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEventSubscribtionError, "failed to start consuming")
	}

	return consumeCtx, nil
}

func BuildConsumerConfig(cfg ConsumerConfig) jetstream.ConsumerConfig {
	consumerConfig := jetstream.ConsumerConfig{
		Durable:        cfg.Durable,
		FilterSubjects: cfg.FilterSubjects,
		AckWait:        cfg.AckWait,
		MaxDeliver:     cfg.MaxDeliver,
		MaxAckPending:  cfg.MaxAckPending,
	}

	if cfg.Durable == "" {
		// ephemeral consumers are reaped once the subscriber goes away
		consumerConfig.InactiveThreshold = 5 * time.Minute
	}

	switch cfg.AckPolicy {
	case "none":
		consumerConfig.AckPolicy = jetstream.AckNonePolicy
	case "all":
		consumerConfig.AckPolicy = jetstream.AckAllPolicy
	default:
		consumerConfig.AckPolicy = jetstream.AckExplicitPolicy
	}

	switch cfg.DeliverPolicy {
	case "new":
		consumerConfig.DeliverPolicy = jetstream.DeliverNewPolicy
	case "last":
		consumerConfig.DeliverPolicy = jetstream.DeliverLastPolicy
	default:
		consumerConfig.DeliverPolicy = jetstream.DeliverAllPolicy
	}

	return consumerConfig
}

func UnmarshalProto(msg jetstream.Msg, pb proto.Message) error {
	if err := proto.Unmarshal(msg.Data(), pb); err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectUnmarshalError, "failed to decode message")
	}
	return nil
}
