package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/docindex-cli/internal/concept"
	"github.com/kamusis/docindex-cli/internal/server"
	"github.com/kamusis/docindex-cli/internal/watch"
)

var (
	flagServeAddr  string
	flagServeBuild bool
	flagServeWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index over HTTP with search and metrics endpoints",
	Long: `Serve the generated index directory:

  GET /healthz          index status
  GET /search?q=&limit= ranked JSON results
  GET /search/<file>    the generated JavaScript files
  GET /concepts?text=   concept extraction (when 'concepts' is configured)
  GET /metrics          Prometheus metrics

With --watch, source changes rebuild the index and the server reloads it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (overrides serve.addr)")
	serveCmd.Flags().BoolVar(&flagServeBuild, "build", false, "Build the index before serving")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "Rebuild and reload when sources change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Serve.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagServeBuild || flagServeWatch {
		if _, _, err := generateIndex(ctx, cfg, false); err != nil {
			return err
		}
	}

	var opts []server.Option
	if cfg.Concepts != "" {
		e, err := concept.Load(cfg.Path(cfg.Concepts))
		if err != nil {
			return err
		}
		opts = append(opts, server.WithConcepts(e))
	}
	srv, err := server.New(cfg.Path(cfg.OutputDir), opts...)
	if err != nil {
		return fmt.Errorf("%w\nRun 'docindex build' first.", err)
	}
	printOK("", fmt.Sprintf("serving %s on http://%s", cfg.Path(cfg.OutputDir), addr))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, addr) })
	if flagServeWatch {
		g.Go(func() error { return watchSources(ctx, cfg, watch.DefaultDebounce, srv.Reload) })
	}
	return g.Wait()
}
