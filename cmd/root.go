package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/logger"
)

var version = "1.0.0"

// cliActor is recorded as the user in audit entries written by commands.
const cliActor = "cli"

var (
	cfgFile  string
	dbPath   string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio - hotel back-office accounting",
	Long: `Folio manages customers, quotations, proforma invoices and invoices for a
hotel back office. It records payments against documents, renders PDFs,
emails documents to customers and exports monthly, customer and
outstanding-balance reports.

Configuration is read from an optional YAML file (--config or FOLIO_CONFIG)
and overridden by environment variables, which may be placed in a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			c.DBPath = dbPath
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if err := logger.Setup(c.LoggerConfig()); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
}

// openDB opens and migrates the configured database.
func openDB() (*sql.DB, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	return db, nil
}
