package otx

import (
	"context"
	"time"

	"github.com/Ashfaaq98/intel-etl/internal/etl"
)

// NewJob binds one IPv4 lookup to the pipeline: fetch the general section,
// normalize it, and target the configured collection.
func NewJob(client *Client, ip, collection, runID string) etl.Job {
	return etl.Job{
		Source:     Source,
		Input:      ip,
		Collection: collection,
		Fetch: func(ctx context.Context) (map[string]interface{}, error) {
			return client.IPv4General(ctx, ip)
		},
		Build: func(raw map[string]interface{}, now time.Time) interface{} {
			doc := Normalize(raw, ip, now)
			doc.RunID = runID
			return doc
		},
	}
}
