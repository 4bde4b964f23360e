package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/intel-etl/internal/bus"
	"github.com/Ashfaaq98/intel-etl/internal/config"
	"github.com/Ashfaaq98/intel-etl/internal/etl"
	"github.com/Ashfaaq98/intel-etl/internal/fetch"
	"github.com/Ashfaaq98/intel-etl/internal/otx"
	"github.com/Ashfaaq98/intel-etl/internal/store"
)

var otxIPs string

// otxCmd represents the otx command
var otxCmd = &cobra.Command{
	Use:   "otx",
	Short: "Fetch AlienVault OTX indicators for IPv4 addresses",
	Long: `Fetch the "general" indicator section for each IPv4 address from
AlienVault OTX and load one document per address into MongoDB.

Each document carries the raw OTX response verbatim plus pulse_count
(entries in pulse_info.pulses) and is_malicious (pulse_count > 0).
Addresses are processed sequentially; a failed lookup is logged and
skipped without aborting the rest.

Required environment: MONGO_URI, MONGO_DB, COLLECTION_NAME, OTX_API_KEY.

Examples:
  # Single address
  intel-etl otx --ips "8.8.8.8"

  # Multiple addresses
  intel-etl otx --ips "8.8.8.8,1.1.1.1,9.9.9.9"`,
	RunE: runOTX,
}

func init() {
	rootCmd.AddCommand(otxCmd)

	otxCmd.Flags().StringVar(&otxIPs, "ips", "", "Comma-separated IPv4 addresses to look up")
	otxCmd.MarkFlagRequired("ips")
}

func runOTX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.Load()
	if err := cfg.RequireOTX(); err != nil {
		return err
	}

	ips := splitInputs(otxIPs)
	if len(ips) == 0 {
		return fmt.Errorf("no usable addresses in --ips %q", otxIPs)
	}

	runID := uuid.New().String()
	logger := log.Default().With("connector", otx.Source, "run_id", runID)

	mongo, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		return err
	}
	defer mongo.Close(ctx)

	if err := mongo.EnsureLookupIndex(ctx, cfg.OTX.Collection, "ip", "ingested_at"); err != nil {
		logger.Warn("Failed to ensure lookup index", "collection", cfg.OTX.Collection, "err", err)
	}

	ingestBus := bus.NewBus(cfg.Redis.URL, logger)
	defer ingestBus.Close()

	client := otx.NewClient(fetch.NewClient(fetch.DefaultPolicy(), logger), cfg.OTX.BaseURL, cfg.OTX.APIKey)

	jobs := make([]etl.Job, 0, len(ips))
	for _, ip := range ips {
		jobs = append(jobs, otx.NewJob(client, ip, cfg.OTX.Collection, runID))
	}

	logger.Info("Starting OTX run", "addresses", len(jobs), "collection", cfg.OTX.Collection)
	stats := etl.NewRunner(mongo, ingestBus, logger, runID).Run(ctx, jobs)

	return reportStats(logger, stats)
}

// splitInputs splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitInputs(raw string) []string {
	var inputs []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			inputs = append(inputs, trimmed)
		}
	}
	return inputs
}

// reportStats logs the run summary and applies the exit policy: every item
// failing is an error, and --strict promotes any failure to one.
func reportStats(logger *log.Logger, stats etl.Stats) error {
	logger.Info("Run completed",
		"total", stats.Total,
		"inserted", stats.Inserted,
		"failed", stats.Failed,
		"duration", stats.ProcessingTime)

	if stats.AllFailed() {
		return fmt.Errorf("all %d items failed", stats.Total)
	}
	if strict && stats.Failed > 0 {
		return fmt.Errorf("run completed with %d failed items", stats.Failed)
	}
	return nil
}
