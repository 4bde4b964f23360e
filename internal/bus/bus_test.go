package bus

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusWithoutURLReturnsNullBus(t *testing.T) {
	b := NewBus("", log.New(io.Discard))
	_, ok := b.(*NullBus)
	assert.True(t, ok)
}

func TestNewBusFallsBackWhenRedisUnreachable(t *testing.T) {
	// Port 1 is never a Redis server; the connection test must fail fast
	// and degrade to the null bus instead of erroring out.
	b := NewBus("redis://127.0.0.1:1", log.New(io.Discard))
	_, ok := b.(*NullBus)
	assert.True(t, ok)
}

func TestNewBusFallsBackOnInvalidURL(t *testing.T) {
	b := NewBus("not-a-redis-url", log.New(io.Discard))
	_, ok := b.(*NullBus)
	assert.True(t, ok)
}

func TestNullBusPublishIsNoOp(t *testing.T) {
	nb := NewNullBus(log.New(io.Discard))

	err := nb.PublishIngest(context.Background(), IngestMessage{
		RunID:      "run-1",
		Source:     "otx",
		Input:      "8.8.8.8",
		Collection: "ip_indicators",
		DocumentID: "mem-1",
	})
	require.NoError(t, err)
	require.NoError(t, nb.HealthCheck(context.Background()))
	require.NoError(t, nb.Close())
}
