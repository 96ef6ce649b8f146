package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/searchdata"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the generated index and whether it is up to date",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cfg.Path(cfg.OutputDir)

	fmt.Println("=== Index ===")
	m := searchdata.ReadManifest(out)
	if m == nil {
		printMiss("", fmt.Sprintf("no index in %s — run 'docindex build'", out))
		return nil
	}
	printInfo("", fmt.Sprintf("directory:  %s", out))
	printInfo("", fmt.Sprintf("format:     v%d", m.IndexVersion))
	printInfo("", fmt.Sprintf("symbols:    %d", m.Symbols))
	printInfo("", fmt.Sprintf("entries:    %d in %d section file(s)", m.Entries, len(m.Sections)))
	printInfo("", fmt.Sprintf("url prefix: %q", m.URLPrefix))

	fmt.Println("\n=== Sources ===")
	c, err := collectSymbols(cmd.Context(), cfg)
	if err != nil {
		printErr("", err.Error())
		return err
	}
	printInfo("", fmt.Sprintf("%d header(s), %d symbol(s)", len(c.Scan.Files), len(c.Symbols)))

	hash, err := searchdata.Fingerprint(c.Symbols, searchdata.BuildOptions{URLPrefix: cfg.URLPrefix, ShortOwners: cfg.ShortOwners})
	if err != nil {
		return err
	}
	if hash == m.InputHash && m.IndexVersion == searchdata.IndexVersion {
		printOK("", "index is up to date")
	} else {
		printWarn("", "index is stale — run 'docindex build'")
	}
	return nil
}
