package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sriox/internal/model"
	"sriox/internal/provision"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakePublisher struct {
	topic   string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	f.topic = topic
	f.payload = payload
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func TestEventNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewEventNotifier(pub, "resource-events", zerolog.Nop())

	ev := provision.Event{
		Type:       "site.created",
		Kind:       model.KindSite,
		ResourceID: uuid.New(),
		UserID:     uuid.New(),
		Key:        "blog",
		At:         time.Now().UTC(),
	}
	n.Notify(context.Background(), ev)

	if pub.topic != "resource-events" {
		t.Fatalf("expected topic resource-events, got %q", pub.topic)
	}
	var got provision.Event
	if err := json.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if got.Type != ev.Type || got.Key != "blog" || got.ResourceID != ev.ResourceID {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestEventNotifierSwallowsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("unavailable")}
	n := NewEventNotifier(pub, "resource-events", zerolog.Nop())
	n.Notify(context.Background(), provision.Event{Type: "redirect.deleted"})
	if pub.payload == nil {
		t.Fatal("expected publish to be attempted")
	}
}
