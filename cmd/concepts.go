package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/concept"
)

var flagConceptList string

var conceptsCmd = &cobra.Command{
	Use:   "concepts -c <concept-list> <text>",
	Short: "Find known concepts in a text",
	Long: `Find in <text> those of the concepts listed, one per line, in the concept
list file. Matching ignores ASCII case and punctuation; multi-word concepts
match whole consecutive words.

The list defaults to the 'concepts' entry of the configuration.`,
	Example: `  docindex concepts -c cuisines.txt "Which restaurants do West Indian food"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runConcepts,
}

func init() {
	conceptsCmd.Flags().StringVarP(&flagConceptList, "concepts", "c", "", "Concept list file, one concept per line")
	rootCmd.AddCommand(conceptsCmd)
}

func runConcepts(_ *cobra.Command, args []string) error {
	path := flagConceptList
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Concepts == "" {
			return fmt.Errorf("no concept list: pass -c <file> or set 'concepts' in %s", flagConfig)
		}
		path = cfg.Path(cfg.Concepts)
	}

	e, err := concept.Load(path)
	if err != nil {
		return err
	}
	found := e.Extract(strings.Join(args, " "))
	fmt.Println(conceptSummary(len(found)))
	for _, c := range found {
		fmt.Println(c)
	}
	return nil
}

func conceptSummary(n int) string {
	switch {
	case n == 0:
		return "0 concept found."
	case n == 1:
		return "1 concept found :"
	}
	return fmt.Sprintf("%d concepts found :", n)
}
