package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-redis/redis/v8"
)

const ingestStream = "ingests"

// RedisBus publishes ingest notifications to a Redis Stream so downstream
// consumers (enrichers, alerting) can react to new documents.
type RedisBus struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisBus creates a new Redis bus instance and verifies the connection.
func NewRedisBus(redisURL string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &RedisBus{
		client: client,
		logger: logger,
	}, nil
}

// PublishIngest appends the notification to the ingests stream.
func (rb *RedisBus) PublishIngest(ctx context.Context, msg IngestMessage) error {
	fields := map[string]interface{}{
		"run_id":      msg.RunID,
		"source":      msg.Source,
		"input":       msg.Input,
		"collection":  msg.Collection,
		"document_id": msg.DocumentID,
		"timestamp":   msg.Timestamp,
	}

	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: ingestStream,
		Values: fields,
	})
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish ingest notification: %w", err)
	}

	rb.logger.Debug("Published ingest notification", "collection", msg.Collection, "document_id", msg.DocumentID)
	return nil
}

// HealthCheck performs a health check on the Redis connection
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}
