package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/repository"

	"github.com/rs/zerolog"
)

func TestDLQRecord(t *testing.T) {
	e := newTestEnv(t)
	svc := NewDLQService(repository.NewDLQRepository(e.db), zerolog.Nop())
	ctx := context.Background()

	err := svc.Record(ctx, DeadLetter{Subscription: "events-dlq", Data: "e30="})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("missing message id: err = %v, want invalid input", err)
	}

	if err := svc.Record(ctx, DeadLetter{
		Subscription:    "events-dlq",
		MessageID:       "7",
		Data:            base64.StdEncoding.EncodeToString([]byte(`{"type":"redirect.deleted"}`)),
		Attributes:      map[string]string{"k": "v"},
		DeliveryAttempt: 3,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Undecodable payloads are kept verbatim.
	if err := svc.Record(ctx, DeadLetter{Subscription: "events-dlq", MessageID: "8", Data: "not base64!"}); err != nil {
		t.Fatalf("record raw: %v", err)
	}

	var rows []model.DeadLetterMessage
	if err := e.db.Order("attempts desc").Find(&rows).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Payload != `{"type":"redirect.deleted"}` || rows[0].Attributes != `{"k":"v"}` || rows[0].Attempts != 3 {
		t.Errorf("decoded row = %+v", rows[0])
	}
	if rows[1].Payload != "not base64!" {
		t.Errorf("raw payload = %q", rows[1].Payload)
	}
}
