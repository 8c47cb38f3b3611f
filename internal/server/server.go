// Package server exposes the clause pipeline over HTTP: document
// upload, retrieval, and coverage analysis for the front-end
// collaborator.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polisearch/polisearch/internal/analyze"
	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/ingest"
	"github.com/polisearch/polisearch/internal/store"
)

// Server wires the HTTP API to the pipeline, the registry of served
// index handles, and the document store.
type Server struct {
	engine   *engine.Engine
	registry *engine.Registry
	docs     *store.DocumentStore
	ingestor *ingest.Ingestor
	analyzer *analyze.Analyzer // nil when no API key is configured
	defaultK int
	logger   *slog.Logger
	router   *gin.Engine
}

// Options configures a Server. Engine, Registry, Docs, and Ingestor
// are required; Analyzer is optional.
type Options struct {
	Engine   *engine.Engine
	Registry *engine.Registry
	Docs     *store.DocumentStore
	Ingestor *ingest.Ingestor
	Analyzer *analyze.Analyzer
	DefaultK int
	Logger   *slog.Logger
}

// New creates the server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil || opts.Registry == nil || opts.Docs == nil || opts.Ingestor == nil {
		return nil, errors.New("server requires engine, registry, document store, and ingestor")
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		engine:   opts.Engine,
		registry: opts.Registry,
		docs:     opts.Docs,
		ingestor: opts.Ingestor,
		analyzer: opts.Analyzer,
		defaultK: opts.DefaultK,
		logger:   opts.Logger.With(slog.String("component", "server")),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(s.requestLogger(), gin.Recovery())

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api/v1")
	{
		api.POST("/documents", s.handleCreateDocument)
		api.GET("/documents", s.handleListDocuments)
		api.GET("/documents/:id", s.handleGetDocument)
		api.DELETE("/documents/:id", s.handleDeleteDocument)
		api.POST("/documents/:id/search", s.handleSearch)
		api.POST("/documents/:id/analyze", s.handleAnalyze)
		api.GET("/stats", s.handleStats)
	}

	s.router = router
	return s, nil
}

// Router returns the configured gin engine, mostly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
