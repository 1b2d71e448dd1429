package natsjetstream

import (
	"context"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	"github.com/nats-io/nats.go/jetstream"
	"google.golang.org/protobuf/proto"
)

// StreamPublisher is the one JetStream call the publisher needs.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type Publisher struct {
	js StreamPublisher
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{js: client.js}
}

func NewPublisherWith(js StreamPublisher) *Publisher {
	return &Publisher{js: js}
}

func (p *Publisher) PublishProto(ctx context.Context, subject string, msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to marshal proto message")
	}

	return p.Publish(ctx, subject, data)
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return apperrors.Wrap(err, apperrors.CodeEventPublishError, "failed to publish message").
			WithField("subject", subject)
	}
	return nil
}
