package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/polisearch/polisearch/internal/analyze"
	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/server"
	"github.com/polisearch/polisearch/internal/watch"
)

// serveOptions holds CLI flags for serve.
type serveOptions struct {
	addr     string
	watchDir string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the REST API for document processing and clause retrieval.

With --watch, policy text files dropped into the watched directory are
processed automatically and kept current as they change.

Examples:
  polisearch serve
  polisearch serve --addr 0.0.0.0:8580 --watch ./policies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&opts.watchDir, "watch", "", "Directory to watch for policy files")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStack(false)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := engine.NewRegistry()

	// The analyzer is optional: without an API key the /analyze route
	// reports the backend unavailable instead of failing startup.
	var analyzer *analyze.Analyzer
	if a, err := newAnalyzer(st.cfg); err == nil {
		analyzer = a
	} else {
		st.logger.Info("analyzer disabled", slog.String("reason", err.Error()))
	}

	srv, err := server.New(server.Options{
		Engine:   st.engine,
		Registry: registry,
		Docs:     st.docs,
		Ingestor: st.ingestor,
		Analyzer: analyzer,
		DefaultK: st.cfg.Retrieval.TopK,
		Logger:   st.logger,
	})
	if err != nil {
		return err
	}

	addr := opts.addr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", st.cfg.Server.Host, st.cfg.Server.Port)
	}

	watchDir := opts.watchDir
	if watchDir == "" {
		watchDir = st.cfg.Server.WatchDir
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})

	if watchDir != "" {
		debounce := config.Duration(st.cfg.Server.WatchDebounce, watch.DefaultDebounce)
		watcher := watch.New(watchDir, debounce, &watchHandler{st: st, registry: registry}, st.logger)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return g.Wait()
}

// watchHandler reprocesses policy files as they change on disk.
type watchHandler struct {
	st       *stack
	registry *engine.Registry
}

func (h *watchHandler) FileChanged(ctx context.Context, path string) error {
	res, err := h.st.ingestor.File(ctx, path)
	if err != nil {
		return err
	}
	h.registry.Put(res.Document.ID, res.Index)
	return nil
}

func (h *watchHandler) FileRemoved(ctx context.Context, path string) error {
	name := filepath.Base(path)
	docs, err := h.st.docs.Documents(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.Name != name {
			continue
		}
		if err := h.st.ingestor.Delete(ctx, d.ID); err != nil {
			return err
		}
		h.registry.Delete(d.ID)
	}
	return nil
}
