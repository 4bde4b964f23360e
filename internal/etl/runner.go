package etl

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ashfaaq98/intel-etl/internal/bus"
	"github.com/Ashfaaq98/intel-etl/internal/store"
)

// Job is one unit of work: fetch the raw payload for an input, build the
// normalized document from it, and name the collection it belongs in.
type Job struct {
	Source     string
	Input      string
	Collection string
	Fetch      func(ctx context.Context) (map[string]interface{}, error)
	Build      func(raw map[string]interface{}, now time.Time) interface{}
}

// Stats holds statistics about one connector run.
type Stats struct {
	Total          int
	Inserted       int
	Failed         int
	ProcessingTime time.Duration
}

// AllFailed reports whether the run processed items and none succeeded.
func (s Stats) AllFailed() bool {
	return s.Total > 0 && s.Inserted == 0
}

// Runner drives the fetch -> normalize -> load chain over a list of jobs.
// Items are processed strictly sequentially; a failed item is logged and
// skipped, never fatal to the run.
type Runner struct {
	store  store.Store
	bus    bus.Bus
	logger *log.Logger
	runID  string
	now    func() time.Time
}

// NewRunner creates a runner that loads into st and announces stored
// documents on b. runID tags every document and log line of the run.
func NewRunner(st store.Store, b bus.Bus, logger *log.Logger, runID string) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if b == nil {
		b = bus.NewNullBus(logger)
	}
	return &Runner{
		store:  st,
		bus:    b,
		logger: logger,
		runID:  runID,
		now:    time.Now,
	}
}

// Run processes the jobs in order and returns the run statistics. The
// context aborts the run between items; in-flight requests carry it too.
func (r *Runner) Run(ctx context.Context, jobs []Job) Stats {
	startTime := time.Now()
	stats := Stats{}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			r.logger.Warn("Run aborted", "run_id", r.runID, "reason", ctx.Err(), "processed", stats.Total)
			stats.ProcessingTime = time.Since(startTime)
			return stats
		default:
		}

		stats.Total++
		if err := r.process(ctx, job); err != nil {
			stats.Failed++
			r.logger.Error("Skipping item", "source", job.Source, "input", job.Input, "err", err)
			continue
		}
		stats.Inserted++
	}

	stats.ProcessingTime = time.Since(startTime)
	return stats
}

// process runs one item through fetch, build and insert.
func (r *Runner) process(ctx context.Context, job Job) error {
	raw, err := job.Fetch(ctx)
	if err != nil {
		return err
	}

	doc := job.Build(raw, r.now())

	id, err := r.store.Insert(ctx, job.Collection, doc)
	if err != nil {
		return err
	}
	r.logger.Info("Stored document", "source", job.Source, "input", job.Input, "collection", job.Collection, "id", id)

	msg := bus.IngestMessage{
		RunID:      r.runID,
		Source:     job.Source,
		Input:      job.Input,
		Collection: job.Collection,
		DocumentID: id,
		Timestamp:  r.now().Unix(),
	}
	if err := r.bus.PublishIngest(ctx, msg); err != nil {
		// Log the error but don't fail the item
		r.logger.Warn("Failed to publish ingest notification", "id", id, "err", err)
	}

	return nil
}
