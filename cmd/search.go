package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/search"
)

var (
	flagSearchK    int
	flagSearchJSON bool
	flagSearchDir  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the generated index the way the browser search box does",
	Args:  cobra.MinimumNArgs(0),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 10, "Number of results to show")
	searchCmd.Flags().BoolVar(&flagSearchJSON, "json", false, "Print results as JSON")
	searchCmd.Flags().StringVar(&flagSearchDir, "index", "", "Index directory or searchData file (defaults to output_dir)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	query := strings.Join(args, " ")

	target := flagSearchDir
	if target == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		target = cfg.Path(cfg.OutputDir)
	}
	idx, err := loadIndexAt(target)
	if err != nil {
		return err
	}

	results := search.KeywordSearch(idx, query, flagSearchK)
	if flagSearchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printSearchResults(query, results)
	return nil
}

func printSearchResults(query string, results []search.Result) {
	fmt.Printf("\ndocindex search %q\n\n", query)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "  %d.\t%s\t[%s]\t%s\n", i+1, r.Entry.Label, r.Why, r.Entry.Key)
		for _, o := range r.Entry.Occurrences {
			fmt.Fprintf(w, "  \t- %s\t\t%s\n", o.Owner, o.URL)
		}
	}
	_ = w.Flush()
}
