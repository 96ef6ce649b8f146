package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/config"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "docindex",
	Short:        "docindex — search index generator for C++ API documentation",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `docindex scans C++ headers and writes the searchData JavaScript tables
that a documentation site's search box loads from html/search/.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.FileName, "Path to the project configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger. The level comes from
// --verbose, then from log_level in the config or its environment override.
func setupLogging(w *os.File) error {
	level := slog.LevelInfo
	if cfg, _, err := config.LoadOrDefault(flagConfig); err == nil {
		if lvl, err := cfg.Level(); err == nil {
			level = lvl
		}
	}
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads --config, falling back to defaults when it is missing.
func loadConfig() (*config.Config, error) {
	cfg, found, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	if !found {
		slog.Debug("config not found, using defaults", slog.String("path", flagConfig))
	}
	return cfg, nil
}
