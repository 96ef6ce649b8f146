package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/search"
	"github.com/kamusis/docindex-cli/internal/searchdata"
)

var flagInspectRaw bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <label>",
	Short: "Show the index entry of a symbol name",
	Long: `Display the index entry for a display label: its encoded key and every
occurrence with owner description and anchor URL.

Labels whose keys collide are all shown. If no entry has exactly that label,
entries whose key contains it are listed instead.

Example:
  docindex inspect "operator=="
  docindex inspect size --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&flagInspectRaw, "raw", false, "Also print the entry as written to the searchData file")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := loadIndexAt(cfg.Path(cfg.OutputDir))
	if err != nil {
		return err
	}

	label := args[0]
	entries := resolveEntries(idx, label)
	if len(entries) == 0 {
		printMiss("", fmt.Sprintf("no entry for %q", label))
		return nil
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Println(strings.Repeat("─", 50))
		}
		if err := printInspect(e); err != nil {
			return err
		}
	}
	return nil
}

// resolveEntries finds the entries for label. The plain key and its
// disambiguated variants are tried first, then falls back to substring
// matching on keys.
func resolveEntries(idx *searchdata.Index, label string) []searchdata.Entry {
	key := searchdata.EncodeKey(label)
	var out []searchdata.Entry
	if e, ok := idx.Lookup(key); ok {
		out = append(out, e)
	}
	for n := 0; ; n++ {
		e, ok := idx.Lookup(fmt.Sprintf("%s_%d", key, n))
		if !ok {
			break
		}
		out = append(out, e)
	}
	var exact []searchdata.Entry
	for _, e := range out {
		if e.Label == label {
			exact = append(exact, e)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	if len(out) > 0 {
		return out
	}
	for _, r := range search.KeywordSearch(idx, label, 0) {
		out = append(out, r.Entry)
	}
	return out
}

func printInspect(e searchdata.Entry) error {
	printBullet(e.Label)
	fmt.Printf("  key:         %s\n", e.Key)
	fmt.Printf("  occurrences: %d\n", len(e.Occurrences))
	for _, o := range e.Occurrences {
		fmt.Printf("    - %s\n      %s\n", o.Owner, o.URL)
	}
	if flagInspectRaw {
		fmt.Println()
		one := &searchdata.Index{Entries: []searchdata.Entry{e}}
		if err := one.WriteJS(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}
