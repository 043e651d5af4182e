package handler

import (
	"context"

	"sriox/internal/api/v1/operation"
	"sriox/internal/apperr"
	"sriox/internal/service"

	"github.com/rs/zerolog"
)

type DLQHandler struct {
	service service.DLQService
	logger  zerolog.Logger
}

func NewDLQHandler(s service.DLQService, l zerolog.Logger) *DLQHandler {
	return &DLQHandler{service: s, logger: l}
}

// RecordDeadLetter stores an event pushed by a dead-letter subscription
func (h *DLQHandler) RecordDeadLetter(ctx context.Context, input *operation.RecordDeadLetterInput) (*operation.RecordDeadLetterOutput, error) {
	h.logger.Info().
		Str("messageId", input.Body.Message.MessageID).
		Str("subscription", input.Body.Subscription).
		Msg("Processing dead-letter queue message")

	err := h.service.Record(ctx, service.DeadLetter{
		Subscription:    input.Body.Subscription,
		MessageID:       input.Body.Message.MessageID,
		Data:            input.Body.Message.Data,
		Attributes:      input.Body.Message.Attributes,
		DeliveryAttempt: input.Body.DeliveryAttempt,
	})
	if err != nil {
		if apperr.Status(err) < 500 {
			return nil, serviceError(err)
		}
		// Acknowledge anyway so Pub/Sub does not redeliver a message that is already dead-lettered.
		h.logger.Error().Err(err).Msg("Failed to save DLQ message to database")
	}
	return &operation.RecordDeadLetterOutput{}, nil
}
