// Package cleanup removes artifacts that a failed rollback left on disk.
package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"sriox/internal/hostfs"
	"sriox/internal/model"
	"sriox/internal/pgmq"
	"sriox/internal/provision"
	"sriox/internal/repository"

	"github.com/rs/zerolog"
)

// Messages stay hidden from other readers while retries run.
const visibilityTimeoutSec = 300

type Broker interface {
	Sender
	ReadWithPoll(ctx context.Context, queue string, vtSec, maxMessages, pollSec int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

type Options struct {
	Queue           string
	DeadLetterQueue string
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

type Worker struct {
	client Broker
	dlq    repository.DLQRepository
	root   string
	opts   Options
	logger zerolog.Logger
}

// NewWorker only removes paths below root.
func NewWorker(client Broker, dlq repository.DLQRepository, root string, opts Options, logger zerolog.Logger) *Worker {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.PollMaxMsg < 1 {
		opts.PollMaxMsg = 1
	}
	return &Worker{
		client: client,
		dlq:    dlq,
		root:   root,
		opts:   opts,
		logger: logger.With().Str("orchestrator", "cleanup").Logger(),
	}
}

// Run consumes the cleanup queue until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("queue", w.opts.Queue).Str("root", w.root).Msg("Starting cleanup orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down cleanup orchestrator")
			return nil
		default:
		}
		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading cleanup queue")
			sleep(ctx, time.Second)
		}
	}
}

// Poll reads one batch and handles every message in it.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	msgs, err := w.client.ReadWithPoll(ctx, w.opts.Queue, visibilityTimeoutSec, w.opts.PollMaxMsg, w.opts.PollTimeoutSec)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		w.handle(ctx, msg)
	}
	return len(msgs), nil
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()

	var job provision.CleanupJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal cleanup job; dead-lettering")
		w.deadLetter(ctx, msg, err, 0)
		return
	}
	log = log.With().Str("kind", string(job.Kind)).Str("key", job.Key).Logger()

	backoff := w.opts.BackoffInitial
	var lastErr error
	attempt := 0
	for attempt = 1; attempt <= w.opts.MaxRetries; attempt++ {
		lastErr = Remove(w.root, job.Paths)
		if lastErr == nil || errors.Is(lastErr, hostfs.ErrUnsafePath) {
			break
		}
		log.Error().Err(lastErr).Int("attempt", attempt).Msg("Artifact removal failed, retrying")
		if attempt == w.opts.MaxRetries {
			break
		}
		sleep(ctx, backoff)
		backoff *= 2
		if backoff > w.opts.BackoffMax {
			backoff = w.opts.BackoffMax
		}
	}

	if lastErr != nil {
		log.Warn().Err(lastErr).Int("attempts", attempt).Msg("Giving up on artifact removal; moving job to DLQ")
		w.deadLetter(ctx, msg, lastErr, attempt)
		return
	}

	if err := w.client.Delete(ctx, w.opts.Queue, []int64{msg.ID}); err != nil {
		log.Error().Err(err).Msg("Error deleting cleanup message")
		return
	}
	log.Info().Strs("paths", job.Paths).Msg("Removed left-over artifacts")
}

func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, cause error, attempts int) {
	if w.opts.DeadLetterQueue != "" {
		if err := w.client.Send(ctx, w.opts.DeadLetterQueue, msg.Data); err != nil {
			w.logger.Error().Err(err).Str("dlq", w.opts.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
		}
	}
	if w.dlq != nil {
		rec := &model.DeadLetterMessage{
			Queue:    w.opts.Queue,
			Payload:  string(msg.Data),
			Error:    cause.Error(),
			Attempts: attempts,
		}
		if err := w.dlq.Create(ctx, rec); err != nil {
			w.logger.Error().Err(err).Msg("Failed to record dead letter")
		}
	}
	// Acknowledge so the job is not retried from the main queue.
	if err := w.client.Delete(ctx, w.opts.Queue, []int64{msg.ID}); err != nil {
		w.logger.Error().Err(err).Msg("Error deleting cleanup message after failure")
	}
}

// Remove deletes every path, all of which must be strictly below root.
// Paths that are already gone count as removed.
func Remove(root string, paths []string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if !hostfs.Within(root, p) || hostfs.Within(p, root) {
			return fmt.Errorf("%w: %s", hostfs.ErrUnsafePath, p)
		}
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
