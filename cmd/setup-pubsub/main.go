package main

import (
	"context"
	"time"

	"sriox/internal/config"
	"sriox/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Used when DLQ_ENDPOINT_URL is not set and the emulator runs next to the API.
const deadLetterEndpointLocal = "http://host.docker.internal:8080/api/events/dead-letter"

// setup-pubsub creates the lifecycle events topic, a pull subscription for
// downstream consumers, and a dead-letter topic whose subscription pushes
// undeliverable events back to the API.
func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set in the environment.")
	}

	var clientOptions []option.ClientOption
	if cfg.PubSubEmulatorHost != "" {
		clientOptions = append(clientOptions,
			option.WithEndpoint(cfg.PubSubEmulatorHost),
			option.WithoutAuthentication(),
		)
	}

	endpoint := cfg.DLQEndpointURL
	if endpoint == "" {
		if cfg.PubSubEmulatorHost == "" {
			logger.Fatal().Msg("DLQ_ENDPOINT_URL must be set outside the emulator.")
		}
		endpoint = deadLetterEndpointLocal
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID, clientOptions...)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	ensureEventTopology(ctx, client, cfg, endpoint, logger)
	logger.Info().Msg("Pub/Sub setup complete.")
}

func ensureEventTopology(ctx context.Context, client *pubsub.Client, cfg *config.Config, endpoint string, logger zerolog.Logger) {
	sevenDays := 7 * 24 * time.Hour
	topicID := cfg.PubSubEventsTopic
	dlqTopicID := topicID + "-dlq"

	dlqTopic := createTopicIfNotExists(ctx, client, logger, dlqTopicID, sevenDays)
	mainTopic := createTopicIfNotExists(ctx, client, logger, topicID, sevenDays)

	retry := &pubsub.RetryPolicy{
		MinimumBackoff: 10 * time.Second,
		MaximumBackoff: 600 * time.Second,
	}

	createOrUpdateSubscription(ctx, client, logger, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            mainTopic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy:      retry,
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	})

	push := pubsub.PushConfig{Endpoint: endpoint}
	if cfg.PubSubPushServiceAccountEmail != "" {
		push.AuthenticationMethod = &pubsub.OIDCToken{
			Audience:            endpoint,
			ServiceAccountEmail: cfg.PubSubPushServiceAccountEmail,
		}
	}
	createOrUpdateSubscription(ctx, client, logger, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:            dlqTopic,
		PushConfig:       push,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy:      retry,
	})
}

func createTopicIfNotExists(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string, retention time.Duration) *pubsub.Topic {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if topic %s exists: %v", topicID, err)
	}
	if exists {
		logger.Info().Msgf("Topic %s already exists.", topicID)
		return topic
	}

	logger.Info().Msgf("Creating topic: %s with %v retention", topicID, retention)
	topic, err = client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
	if err != nil {
		logger.Fatal().Msgf("Failed to create topic %s: %v", topicID, err)
	}
	return topic
}

func createOrUpdateSubscription(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, subID string, config pubsub.SubscriptionConfig) {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if subscription %s exists: %v", subID, err)
	}

	if !exists {
		logger.Info().Msgf("Creating subscription %s", subID)
		if _, err := client.CreateSubscription(ctx, subID, config); err != nil {
			logger.Fatal().Msgf("Failed to create subscription '%s': %v", subID, err)
		}
		return
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to get config for subscription '%s': %v", subID, err)
	}
	if existing.PushConfig.Endpoint == config.PushConfig.Endpoint && existing.AckDeadline == config.AckDeadline {
		logger.Info().Msgf("Subscription %s is up to date.", subID)
		return
	}

	logger.Info().Msgf("Updating subscription '%s'", subID)
	if _, err := sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		PushConfig:  &config.PushConfig,
		AckDeadline: config.AckDeadline,
		RetryPolicy: config.RetryPolicy,
	}); err != nil {
		logger.Fatal().Msgf("Failed to update subscription '%s': %v", subID, err)
	}
}
