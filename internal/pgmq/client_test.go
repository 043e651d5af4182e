package pgmq

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Requires a Postgres with the pgmq extension installed.
func TestQueueRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip pgmq integration test")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	c := New(db)
	const queue = "artifact_cleanup_test"
	if err := c.CreateQueue(ctx, queue); err != nil {
		t.Fatalf("CreateQueue returned error: %v", err)
	}
	if err := c.Send(ctx, queue, []byte(`{"kind":"site","key":"blog"}`)); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	msgs, err := c.ReadWithPoll(ctx, queue, 30, 1, 2)
	if err != nil {
		t.Fatalf("ReadWithPoll returned error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ReadCt != 1 {
		t.Fatalf("expected read count 1, got %d", msgs[0].ReadCt)
	}
	if err := c.Delete(ctx, queue, []int64{msgs[0].ID}); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}
