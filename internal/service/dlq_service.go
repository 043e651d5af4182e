package service

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/repository"

	"github.com/rs/zerolog"
)

// DeadLetter is a lifecycle event that Pub/Sub gave up delivering.
type DeadLetter struct {
	Subscription    string
	MessageID       string
	Data            string // Base64-encoded
	Attributes      map[string]string
	DeliveryAttempt int
}

type DLQService interface {
	Record(ctx context.Context, msg DeadLetter) error
}

type dlqService struct {
	repo   repository.DLQRepository
	logger zerolog.Logger
}

func NewDLQService(repo repository.DLQRepository, logger zerolog.Logger) DLQService {
	return &dlqService{
		repo:   repo,
		logger: logger.With().Str("service", "DLQService").Logger(),
	}
}

func (s *dlqService) Record(ctx context.Context, msg DeadLetter) error {
	if msg.MessageID == "" {
		return apperr.New(apperr.ErrInvalidInput, "Invalid Pub/Sub message format: missing message ID")
	}

	payload, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		s.logger.Warn().Err(err).Str("message_id", msg.MessageID).Msg("Failed to decode dead-letter payload, saving as is")
		payload = []byte(msg.Data)
	}

	var attributes []byte
	if len(msg.Attributes) > 0 {
		attributes, err = json.Marshal(msg.Attributes)
		if err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.MessageID).Msg("Failed to marshal dead-letter attributes")
		}
	}

	record := &model.DeadLetterMessage{
		Queue:      msg.Subscription,
		Payload:    string(payload),
		Attributes: string(attributes),
		Error:      "undeliverable event, message " + msg.MessageID,
		Attempts:   msg.DeliveryAttempt,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("subscription", msg.Subscription).Msg("Failed to save dead-letter message")
		return apperr.Internal("Error recording dead-letter message", err)
	}
	return nil
}
