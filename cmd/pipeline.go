package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kamusis/docindex-cli/internal/config"
	"github.com/kamusis/docindex-cli/internal/cppscan"
	"github.com/kamusis/docindex-cli/internal/searchdata"
	"github.com/kamusis/docindex-cli/internal/symbols"
)

// collected is the symbol set of one generator run.
type collected struct {
	Symbols []symbols.Symbol
	Scan    *cppscan.Result
}

func newScanner(cfg *config.Config) *cppscan.Scanner {
	return cppscan.New(
		cppscan.WithExcludes(cfg.Excludes),
		cppscan.WithPrivate(cfg.IncludePrivate),
	)
}

// collectSymbols scans the configured sources, then appends symbols from
// manifests, preserving first-seen order.
func collectSymbols(ctx context.Context, cfg *config.Config) (*collected, error) {
	out := &collected{Scan: &cppscan.Result{}}
	if len(cfg.Sources) > 0 {
		res, err := newScanner(cfg).ScanPaths(ctx, cfg.SourcePaths())
		if err != nil {
			return nil, err
		}
		out.Scan = res
		out.Symbols = append(out.Symbols, res.Symbols...)
	}
	for _, m := range cfg.Manifests {
		path := cfg.Path(m)
		syms, err := symbols.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("symbol manifest loaded", slog.String("path", path), slog.Int("symbols", len(syms)))
		out.Symbols = append(out.Symbols, syms...)
	}
	if len(out.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols found in sources %v or manifests %v", cfg.Sources, cfg.Manifests)
	}
	return out, nil
}

// generateIndex runs a full regeneration of the configured output directory.
func generateIndex(ctx context.Context, cfg *config.Config, force bool) (*collected, *searchdata.GenerateResult, error) {
	c, err := collectSymbols(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := searchdata.Generate(ctx, c.Symbols, searchdata.GenerateOptions{
		OutDir:      cfg.Path(cfg.OutputDir),
		URLPrefix:   cfg.URLPrefix,
		ShortOwners: cfg.ShortOwners,
		Force:       force,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, res, nil
}
