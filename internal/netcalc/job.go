package netcalc

import (
	"context"
	"time"

	"github.com/Ashfaaq98/intel-etl/internal/etl"
)

// NewJob binds one lookup for a concrete mode to the pipeline.
func NewJob(client *Client, mode, input, collection, runID string) etl.Job {
	return etl.Job{
		Source:     mode,
		Input:      input,
		Collection: collection,
		Fetch: func(ctx context.Context) (map[string]interface{}, error) {
			return client.Lookup(ctx, mode, input)
		},
		Build: func(raw map[string]interface{}, now time.Time) interface{} {
			doc := Normalize(raw, mode, input, now)
			doc.RunID = runID
			return doc
		},
	}
}
