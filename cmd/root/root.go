// Package root contains the root command for the application.
package root

import (
	"avolkov/finaudit/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands.
	Log = logrus.New()

	// Cfg is the loaded application configuration, available to subcommands
	// after PersistentPreRun.
	Cfg *config.Config

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "finaudit",
		Short: "A financial-audit tool that imports bank payments from TSV files.",
		Long: `finaudit records bank payments, contracts, invoices, counterparties and
a COSGU budget-code directory in a local SQLite database.

Its importer parses free-text payment descriptions, extracts contract,
invoice and budget-code references via configurable patterns, deduplicates
the referenced entities and splits each payment into amount-apportioned
detail records.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to finaudit!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			Log = config.ConfigureLogging()

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Configuration error: %v", err)
			}
			Cfg = cfg
		},
	}

	// DBPath is the persistent --db flag; it overrides the configured
	// database path when set.
	DBPath string
)

// Init initializes the root command flags.
func Init() {
	Cmd.PersistentFlags().StringVar(&DBPath, "db", "", "Database file (overrides config)")
}

// DatabasePath returns the effective database file path.
func DatabasePath() string {
	if DBPath != "" {
		return DBPath
	}
	return Cfg.Database.Path
}
