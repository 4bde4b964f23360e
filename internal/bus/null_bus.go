package bus

import (
	"context"

	"github.com/charmbracelet/log"
)

// NullBus is a no-op implementation of the bus interface for when Redis is
// disabled or unreachable.
type NullBus struct {
	logger *log.Logger
}

// NewNullBus creates a new null bus instance
func NewNullBus(logger *log.Logger) *NullBus {
	if logger == nil {
		logger = log.Default()
	}
	return &NullBus{logger: logger}
}

// PublishIngest logs the notification but doesn't actually publish it
func (nb *NullBus) PublishIngest(ctx context.Context, msg IngestMessage) error {
	nb.logger.Debug("Would publish ingest notification (Redis disabled)", "collection", msg.Collection, "document_id", msg.DocumentID)
	return nil
}

// HealthCheck always returns nil for null bus
func (nb *NullBus) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for null bus
func (nb *NullBus) Close() error {
	return nil
}
