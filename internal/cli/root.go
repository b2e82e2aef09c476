// Package cli implements the quantumia CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/config"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/logging"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool

	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

// RootCmd is the top-level command. Without a subcommand it starts an
// interactive conversation on stdin.
var RootCmd = &cobra.Command{
	Use:   "quantumia",
	Short: "A rule-based conversational responder",
	Long: `Quantumia answers text input from a table of keyword rules and remembers
the conversation in a local SQLite database.

Run without arguments to start an interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("config loaded",
			zap.String("db", getDBPath()),
			zap.String("rules", cfg.RulesPath),
			zap.Int("ceiling", cfg.Retention.Ceiling),
			zap.Int("floor", cfg.Retention.Floor))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	Run: runChat,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $QUANTUMIA_DB, db_path from config, or ~/.quantumia/quantumia.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $QUANTUMIA_CONFIG or ~/.quantumia/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.ResolvedDBPath()
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath(),
		store.WithRetention(store.Retention{
			Ceiling: cfg.Retention.Ceiling,
			Floor:   cfg.Retention.Floor,
		}),
		store.WithLogger(logger))
}

func exitErr(msg string, err error) {
	_ = logger.Sync()
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}
