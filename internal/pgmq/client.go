package pgmq

import (
	"context"
	"database/sql"
	"fmt"
)

// Client wraps a Postgres DB for pgmq queue operations.
type Client struct {
	db *sql.DB
}

// New returns a new PGMQ client backed by the given DB connection.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// Message represents a single pgmq message.
type Message struct {
	ID     int64  // message identifier
	ReadCt int    // number of times the message has been read
	Data   []byte // raw JSON payload
}

// CreateQueue creates the queue if it does not already exist.
func (c *Client) CreateQueue(ctx context.Context, queue string) error {
	if _, err := c.db.ExecContext(ctx, "SELECT pgmq.create($1)", queue); err != nil {
		return fmt.Errorf("pgmq create %s failed: %w", queue, err)
	}
	return nil
}

// Send pushes a JSON payload into the given queue.
func (c *Client) Send(ctx context.Context, queue string, payload []byte) error {
	query := "SELECT pgmq.send($1, $2::jsonb, 0)"
	if _, err := c.db.ExecContext(ctx, query, queue, string(payload)); err != nil {
		return fmt.Errorf("pgmq send failed: %w", err)
	}
	return nil
}

// ReadWithPoll reads up to maxMessages from the queue, blocking up to pollSec
// seconds. Read messages stay invisible to other readers for vtSec seconds.
func (c *Client) ReadWithPoll(ctx context.Context, queue string, vtSec, maxMessages, pollSec int) ([]*Message, error) {
	query := "SELECT msg_id, read_ct, message FROM pgmq.read_with_poll($1, $2, $3, $4)"
	rows, err := c.db.QueryContext(ctx, query, queue, vtSec, maxMessages, pollSec)
	if err != nil {
		return nil, fmt.Errorf("pgmq read_with_poll failed: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.ReadCt, &m.Data); err != nil {
			return nil, fmt.Errorf("pgmq read scan failed: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmq read rows error: %w", err)
	}
	return msgs, nil
}

// Delete removes messages by their IDs from the specified queue.
func (c *Client) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	query := "SELECT pgmq.delete($1, $2)"
	if _, err := c.db.ExecContext(ctx, query, queue, msgIDs); err != nil {
		return fmt.Errorf("pgmq delete failed: %w", err)
	}
	return nil
}

// Archive moves a message to the queue's archive table.
func (c *Client) Archive(ctx context.Context, queue string, msgID int64) error {
	if _, err := c.db.ExecContext(ctx, "SELECT pgmq.archive($1, $2::bigint)", queue, msgID); err != nil {
		return fmt.Errorf("pgmq archive failed: %w", err)
	}
	return nil
}
