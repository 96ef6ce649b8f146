package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/searchdata"
)

var validateCmd = &cobra.Command{
	Use:   "validate [index-dir | searchData.js]",
	Short: "Check a generated index against the searchData format",
	Long: `Parse a generated index directory (or a single searchData file) and report
every entry that breaks the format: unsorted or mis-encoded keys, empty
occurrence lists, malformed anchor URLs and unescaped markup.

Without an argument the configured output directory is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		target = cfg.Path(cfg.OutputDir)
	}

	printSection("docindex validate")
	idx, err := loadIndexAt(target)
	if err != nil {
		printErr("", err.Error())
		return err
	}

	problems := searchdata.Validate(idx)
	for _, p := range problems {
		printErr("", p.String())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) in %s", len(problems), target)
	}
	printOK("", fmt.Sprintf("%d entries valid in %s", len(idx.Entries), target))
	return nil
}

// loadIndexAt loads a generated directory or a single searchData file.
func loadIndexAt(path string) (*searchdata.Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open index: %w", err)
	}
	if !info.IsDir() {
		return searchdata.Load(path)
	}
	if _, err := os.Stat(filepath.Join(path, searchdata.ManifestFile)); err != nil {
		return nil, fmt.Errorf("%s has no %s; run 'docindex build' first", path, searchdata.ManifestFile)
	}
	idx, _, err := searchdata.LoadDir(path)
	return idx, err
}
