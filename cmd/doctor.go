package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/config"
	"github.com/kamusis/docindex-cli/internal/cppscan"
	"github.com/kamusis/docindex-cli/internal/searchdata"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that the configuration, sources, parser and generated index are
usable. Run this command when something seems wrong, or before filing a bug
report.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the index output.

Currently fixes:
  - Leftovers of interrupted builds: removes .searchdata-* temp dirs and the
    <output>.bak backup next to the output directory

Run 'docindex doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cfg.Path(cfg.OutputDir)

	printSection("docindex doctor fix")

	fmt.Println("\n[ Interrupted builds ]")
	busy, err := searchdata.LockHeld(out)
	if err != nil {
		return err
	}
	if busy {
		printWarn("", "a build is running — try again when it finishes")
		return nil
	}
	left, err := searchdata.Leftovers(out)
	if err != nil {
		return err
	}
	if len(left) == 0 {
		printOK("", "no leftovers found — nothing to fix")
		return nil
	}

	var failed int
	for _, p := range left {
		if err := os.RemoveAll(p); err != nil {
			printErr("", fmt.Sprintf("cannot delete %s: %v", p, err))
			failed++
		} else {
			printOK("", fmt.Sprintf("deleted %s", p))
		}
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d path(s) could not be deleted", failed)
	}
	return nil
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("docindex doctor")
	fmt.Println()

	// ── Check 1: config ───────────────────────────────────────────────────
	fmt.Println("[ " + flagConfig + " ]")
	cfg, found, err := config.LoadOrDefault(flagConfig)
	switch {
	case err != nil:
		failD("cannot load config: %v", err)
		return fmt.Errorf("doctor found problems")
	case !found:
		printWarn("", "not found — using defaults (run 'docindex init')")
	default:
		printOK("", fmt.Sprintf("valid YAML — %d source(s), %d manifest(s)", len(cfg.Sources), len(cfg.Manifests)))
	}
	fmt.Println()

	// ── Check 2: sources ──────────────────────────────────────────────────
	fmt.Println("[ Sources ]")
	for _, src := range cfg.SourcePaths() {
		if _, err := os.Stat(src); err != nil {
			failD("%s: %v", src, err)
		} else {
			printOK("", src)
		}
	}
	for _, m := range cfg.Manifests {
		if _, err := os.Stat(cfg.Path(m)); err != nil {
			failD("%s: %v", cfg.Path(m), err)
		} else {
			printOK("", cfg.Path(m))
		}
	}
	if len(cfg.Sources)+len(cfg.Manifests) == 0 {
		failD("no sources or manifests configured")
	}
	fmt.Println()

	// ── Check 3: parser ───────────────────────────────────────────────────
	fmt.Println("[ C++ parser ]")
	if err := checkParser(cmd.Context()); err != nil {
		failD("tree-sitter C++ grammar unusable: %v", err)
	} else {
		printOK("", "tree-sitter C++ grammar loaded")
	}
	fmt.Println()

	// ── Check 4: index ────────────────────────────────────────────────────
	fmt.Println("[ Index ]")
	out := cfg.Path(cfg.OutputDir)
	if searchdata.ReadManifest(out) == nil {
		printMiss("", fmt.Sprintf("no index in %s — run 'docindex build'", out))
	} else if idx, _, err := searchdata.LoadDir(out); err != nil {
		failD("cannot load index: %v", err)
	} else if problems := searchdata.Validate(idx); len(problems) > 0 {
		failD("%d format problem(s) — run 'docindex validate'", len(problems))
	} else {
		printOK("", fmt.Sprintf("%d entries valid", len(idx.Entries)))
	}
	if busy, err := searchdata.LockHeld(out); err == nil && busy {
		printInfo("", "a build is currently running")
	}
	if left, err := searchdata.Leftovers(out); err == nil && len(left) > 0 {
		printWarn("", fmt.Sprintf("%d leftover(s) of interrupted builds — run 'docindex doctor fix'", len(left)))
	}
	fmt.Println()

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	printOK("", "all checks passed")
	return nil
}

// checkParser parses a tiny header to prove the grammar is linked in.
func checkParser(ctx context.Context) error {
	syms, err := cppscan.New().ScanFile(ctx, "doctor.hpp", []byte("namespace N { struct S { int f(); }; }\n"))
	if err != nil {
		return err
	}
	if len(syms) < 4 {
		return fmt.Errorf("expected 4 symbols, got %d", len(syms))
	}
	return nil
}
