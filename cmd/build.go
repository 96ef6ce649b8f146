package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/searchdata"
	"github.com/kamusis/docindex-cli/internal/symbols"
)

var (
	flagBuildForce       bool
	flagBuildOut         string
	flagBuildSingle      string
	flagBuildDumpSymbols string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Scan sources and regenerate the search index",
	Long: `Scan the configured C++ sources and symbol manifests and regenerate the
search index directory wholesale.

The previous output is kept when the inputs are unchanged; use --force to
rewrite it anyway.`,
	Example: `  docindex build
  docindex build --out doc/html/search --force
  docindex build --single all.js --dump-symbols symbols.yaml`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&flagBuildForce, "force", false, "Regenerate even if inputs are unchanged")
	buildCmd.Flags().StringVar(&flagBuildOut, "out", "", "Output directory (overrides output_dir)")
	buildCmd.Flags().StringVar(&flagBuildSingle, "single", "", "Also write the whole index as one searchData file")
	buildCmd.Flags().StringVar(&flagBuildDumpSymbols, "dump-symbols", "", "Write the collected symbols as a YAML manifest")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagBuildOut != "" {
		abs, err := filepath.Abs(flagBuildOut)
		if err != nil {
			return err
		}
		cfg.OutputDir = abs
	}

	printSection("docindex build")
	c, res, err := generateIndex(cmd.Context(), cfg, flagBuildForce)
	if err != nil {
		printErr("", err.Error())
		return err
	}

	for _, f := range c.Scan.Files {
		printInfo(f.Path, fmt.Sprintf("%d symbol(s)", f.Symbols))
	}
	for _, rel := range c.Scan.Skipped {
		printWarn(rel, "skipped (too large or not UTF-8)")
	}

	out := cfg.Path(cfg.OutputDir)
	if res.Skipped {
		printSkip("", fmt.Sprintf("inputs unchanged, kept %s (use --force to rewrite)", out))
	} else {
		printOK("", fmt.Sprintf("%d symbol(s) → %d entries in %s", len(c.Symbols), len(res.Index.Entries), out))
	}

	if flagBuildSingle != "" {
		if err := searchdata.WriteFile(flagBuildSingle, res.Index); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("single index written: %s", flagBuildSingle))
	}
	if flagBuildDumpSymbols != "" {
		if err := symbols.WriteManifest(flagBuildDumpSymbols, c.Symbols); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("symbols written: %s", flagBuildDumpSymbols))
	}
	return nil
}
