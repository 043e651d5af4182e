package cleanup

import (
	"context"
	"encoding/json"
	"fmt"

	"sriox/internal/provision"

	"github.com/rs/zerolog"
)

// Sender is the producing side of a pgmq queue.
type Sender interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// Queue hands cleanup jobs to the worker through pgmq.
type Queue struct {
	client Sender
	name   string
}

func NewQueue(client Sender, name string) *Queue {
	return &Queue{client: client, name: name}
}

func (q *Queue) Enqueue(ctx context.Context, job provision.CleanupJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal cleanup job: %w", err)
	}
	return q.client.Send(ctx, q.name, payload)
}

// LogQueue is used when no queue is configured. Left-over paths are logged
// so they can be removed by hand or by the reconciler.
type LogQueue struct {
	logger zerolog.Logger
}

func NewLogQueue(logger zerolog.Logger) *LogQueue {
	return &LogQueue{logger: logger.With().Str("component", "cleanup").Logger()}
}

func (q *LogQueue) Enqueue(ctx context.Context, job provision.CleanupJob) error {
	q.logger.Error().
		Str("kind", string(job.Kind)).
		Str("key", job.Key).
		Strs("paths", job.Paths).
		Str("reason", job.Reason).
		Msg("Artifact left behind by failed rollback")
	return nil
}
