package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/intel-etl/internal/bus"
	"github.com/Ashfaaq98/intel-etl/internal/config"
	"github.com/Ashfaaq98/intel-etl/internal/etl"
	"github.com/Ashfaaq98/intel-etl/internal/fetch"
	"github.com/Ashfaaq98/intel-etl/internal/netcalc"
	"github.com/Ashfaaq98/intel-etl/internal/store"
)

var (
	netcalcMode  string
	netcalcInput string
)

// netcalcCmd represents the netcalc command
var netcalcCmd = &cobra.Command{
	Use:   "netcalc",
	Short: "Fetch NetworkCalc lookups into MongoDB",
	Long: `Query the NetworkCalc API and load the raw response into a per-mode
MongoDB collection ({prefix}_ip_raw, {prefix}_binary_raw,
{prefix}_certificate_raw).

Modes:
  ip           Subnet calculator lookup for an address or CIDR
  binary       Conversion lookup for a binary string
  certificate  TLS certificate lookup for a domain
  all          All three; --input is a JSON object keyed ip, binary, certificate

Required environment: MONGO_URI, MONGO_DB.

Examples:
  intel-etl netcalc --mode ip --input 192.168.1.0/24
  intel-etl netcalc --mode binary --input 11111111
  intel-etl netcalc --mode certificate --input example.com
  intel-etl netcalc --mode all --input '{"ip":"192.168.1.0/24","binary":"11111111","certificate":"example.com"}'`,
	RunE: runNetcalc,
}

func init() {
	rootCmd.AddCommand(netcalcCmd)

	netcalcCmd.Flags().StringVar(&netcalcMode, "mode", "", "Lookup mode: ip, binary, certificate or all")
	netcalcCmd.Flags().StringVar(&netcalcInput, "input", "", "Input value, or a JSON object for --mode all")
	netcalcCmd.MarkFlagRequired("mode")
	netcalcCmd.MarkFlagRequired("input")
}

func runNetcalc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !netcalc.IsValidMode(netcalcMode) {
		return fmt.Errorf("invalid mode %q (want ip, binary, certificate or all)", netcalcMode)
	}
	if strings.TrimSpace(netcalcInput) == "" {
		return fmt.Errorf("--input must not be empty")
	}

	cfg := config.Load()
	if err := cfg.RequireNetworkCalc(); err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := log.Default().With("connector", "netcalc", "run_id", runID)

	items, err := resolveNetcalcInputs(logger, netcalcMode, netcalcInput)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no usable inputs for mode %q", netcalcMode)
	}

	mongo, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		return err
	}
	defer mongo.Close(ctx)

	client := netcalc.NewClient(fetch.NewClient(fetch.DefaultPolicy(), logger), cfg.NetworkCalc.BaseURL)

	jobs := make([]etl.Job, 0, len(items))
	for _, item := range items {
		collection := netcalc.CollectionFor(cfg.NetworkCalc.CollectionPrefix, item.mode)
		if err := mongo.EnsureLookupIndex(ctx, collection, "input", "fetched_at"); err != nil {
			logger.Warn("Failed to ensure lookup index", "collection", collection, "err", err)
		}
		jobs = append(jobs, netcalc.NewJob(client, item.mode, item.input, collection, runID))
	}

	ingestBus := bus.NewBus(cfg.Redis.URL, logger)
	defer ingestBus.Close()

	logger.Info("Starting NetworkCalc run", "mode", netcalcMode, "inputs", len(jobs))
	stats := etl.NewRunner(mongo, ingestBus, logger, runID).Run(ctx, jobs)

	return reportStats(logger, stats)
}

type netcalcItem struct {
	mode  string
	input string
}

// resolveNetcalcInputs expands the flag values into (mode, input) pairs.
// Mode all takes a JSON object keyed by the concrete mode names; a missing
// or empty key skips that mode with a warning.
func resolveNetcalcInputs(logger *log.Logger, mode, input string) ([]netcalcItem, error) {
	if mode != netcalc.ModeAll {
		return []netcalcItem{{mode: mode, input: strings.TrimSpace(input)}}, nil
	}

	var keyed map[string]string
	if err := json.Unmarshal([]byte(input), &keyed); err != nil {
		return nil, fmt.Errorf("mode all wants a JSON object with keys ip, binary and certificate: %w", err)
	}

	var items []netcalcItem
	for _, m := range netcalc.Modes() {
		value := strings.TrimSpace(keyed[m])
		if value == "" {
			logger.Warn("No input for mode, skipping", "mode", m)
			continue
		}
		items = append(items, netcalcItem{mode: m, input: value})
	}
	return items, nil
}
