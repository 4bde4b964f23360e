package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ashfaaq98/intel-etl/internal/config"
)

var (
	logLevel string
	strict   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "intel-etl",
	Short: "ETL connectors for threat-intel and network lookup APIs",
	Long: `intel-etl pulls raw JSON from public intelligence APIs and loads it
into MongoDB, one normalized document per input.

Connectors:
- otx      AlienVault OTX IPv4 indicator lookups
- netcalc  NetworkCalc subnet, binary and certificate lookups

Every document keeps the upstream response verbatim alongside a small
envelope (source, input, retrieval timestamp). Storage is append-only:
repeating an input inserts a new document.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Debug("No .env file found. Falling back to system environment variables.")
		}
		cfg := config.Load()
		if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
			log.SetLevel(level)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit non-zero when any item fails, not only when all do")

	// Bind flags to viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}
