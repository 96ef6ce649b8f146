package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/docindex-cli/internal/config"
	"github.com/kamusis/docindex-cli/internal/watch"
)

var flagWatchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the index whenever a source header changes",
	Long: `Build the index, then watch the configured sources and rebuild the whole
index after every settled batch of header changes. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printSection("docindex watch")
	if _, _, err := generateIndex(ctx, cfg, false); err != nil {
		printErr("", err.Error())
		return err
	}
	printOK("", fmt.Sprintf("index ready in %s, watching %d source root(s) and %d manifest(s)", cfg.Path(cfg.OutputDir), len(cfg.Sources), len(cfg.Manifests)))
	return watchSources(ctx, cfg, flagWatchDebounce, nil)
}

// watchSources rebuilds the index on every change batch and then calls
// after, if set. It returns when ctx is cancelled.
func watchSources(ctx context.Context, cfg *config.Config, debounce time.Duration, after func() error) error {
	w := watch.New(watchRoots(cfg), func(ctx context.Context, changed []string) error {
		_, res, err := generateIndex(ctx, cfg, false)
		if err != nil {
			printErr("", fmt.Sprintf("rebuild failed: %v", err))
			return err
		}
		if res.Skipped {
			printSkip("", fmt.Sprintf("%d change(s), index unchanged", len(changed)))
			return nil
		}
		printOK("", fmt.Sprintf("%d change(s), rebuilt %d entries", len(changed), len(res.Index.Entries)))
		if after != nil {
			return after()
		}
		return nil
	}, watch.WithDebounce(debounce), watch.WithFilter(newWatchFilter(cfg)))
	return w.Run(ctx)
}

// watchRoots lists the source roots followed by the symbol manifests.
func watchRoots(cfg *config.Config) []string {
	roots := cfg.SourcePaths()
	for _, m := range cfg.Manifests {
		roots = append(roots, cfg.Path(m))
	}
	return roots
}

// watchFilter accepts scanned headers and the configured manifest files.
type watchFilter struct {
	headers   watch.Filter
	manifests map[string]bool
}

func newWatchFilter(cfg *config.Config) *watchFilter {
	f := &watchFilter{headers: newScanner(cfg), manifests: make(map[string]bool)}
	for _, m := range cfg.Manifests {
		f.manifests[filepath.Clean(cfg.Path(m))] = true
	}
	return f
}

func (f *watchFilter) Relevant(root, path string) bool {
	return f.manifests[filepath.Clean(path)] || f.headers.Relevant(root, path)
}

func (f *watchFilter) Excluded(root, dir string) bool {
	return f.headers.Excluded(root, dir)
}
