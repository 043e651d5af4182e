package pubsub

import (
	"context"
	"encoding/json"

	"sriox/internal/provision"

	"github.com/rs/zerolog"
)

// EventNotifier publishes committed resource changes as JSON messages.
// Publish failures are logged; the change is already durable.
type EventNotifier struct {
	pub    Publisher
	topic  string
	logger zerolog.Logger
}

func NewEventNotifier(pub Publisher, topic string, logger zerolog.Logger) *EventNotifier {
	return &EventNotifier{pub: pub, topic: topic, logger: logger.With().Str("component", "events").Logger()}
}

func (n *EventNotifier) Notify(ctx context.Context, ev provision.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Error().Err(err).Str("type", ev.Type).Msg("Failed to marshal event")
		return
	}
	id, err := n.pub.Publish(ctx, n.topic, payload)
	if err != nil {
		n.logger.Error().Err(err).Str("type", ev.Type).Str("resource_id", ev.ResourceID.String()).Msg("Failed to publish event")
		return
	}
	n.logger.Debug().Str("type", ev.Type).Str("message_id", id).Msg("Published event")
}

type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, ev provision.Event) {}
