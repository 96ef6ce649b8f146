package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/config"
)

var (
	flagInitSources []string
	flagInitOutput  string
)

var initCmd = &cobra.Command{
	Use:   "init [project-dir]",
	Short: "Write a default docindex.yaml and .env template",
	Long: `Create docindex.yaml and an .env override template in the project
directory (default: current directory). Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringSliceVar(&flagInitSources, "source", nil, "Source root to scan (repeatable)")
	initCmd.Flags().StringVar(&flagInitOutput, "output", "", "Index output directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}

	printSection("docindex init")

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		if len(flagInitSources) > 0 {
			cfg.Sources = flagInitSources
		}
		if flagInitOutput != "" {
			cfg.OutputDir = flagInitOutput
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	} else if err != nil {
		return fmt.Errorf("cannot stat %s: %w", cfgPath, err)
	} else {
		printSkip("", fmt.Sprintf("config already exists: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(dir); err != nil {
		return err
	}
	printOK("", fmt.Sprintf(".env template ready: %s", config.DotEnvPath(dir)))

	fmt.Println("\nNext: edit the sources list, then run 'docindex build'.")
	return nil
}
