package bus

import (
	"context"

	"github.com/charmbracelet/log"
)

// Bus publishes ingest notifications for downstream consumers. Publishing
// is best-effort: the pipeline logs failures and keeps processing.
type Bus interface {
	// PublishIngest announces one stored document on the ingests stream
	PublishIngest(ctx context.Context, msg IngestMessage) error

	// HealthCheck performs a health check on the bus connection
	HealthCheck(ctx context.Context) error

	// Close closes the bus connection
	Close() error
}

// IngestMessage describes one document stored by a connector run.
type IngestMessage struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	Input      string `json:"input"`
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
	Timestamp  int64  `json:"timestamp"`
}

// NewBus creates a new bus instance based on the Redis URL.
// If redisURL is empty or unreachable, returns a NullBus.
func NewBus(redisURL string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.Default()
	}

	if redisURL == "" {
		return NewNullBus(logger)
	}

	if redisBus, err := NewRedisBus(redisURL, logger); err == nil {
		return redisBus
	}

	// Fall back to null bus if Redis fails
	logger.Warn("Redis unreachable, ingest notifications disabled", "url", redisURL)
	return NewNullBus(logger)
}
