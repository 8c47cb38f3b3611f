package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu    sync.Mutex
	out   io.Writer
	stage Stage
	last  string
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	var line string
	if event.Total > 0 {
		line = fmt.Sprintf("[%s] %d/%d %s", event.Stage.Icon(), event.Current, event.Total, event.Message)
	} else if event.Message != "" {
		line = fmt.Sprintf("[%s] %s", event.Stage.Icon(), event.Message)
	} else {
		return
	}

	// Skip repeated identical lines so piped output stays readable.
	if line == r.last {
		return
	}
	r.last = line
	_, _ = fmt.Fprintln(r.out, line)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats.Reused {
		_, _ = fmt.Fprintf(r.out, "[DONE] %s unchanged, reusing %d clauses (%s)\n",
			stats.Document, stats.Clauses, stats.Backend)
		return
	}
	_, _ = fmt.Fprintf(r.out, "[DONE] %s: %d pages, %d clauses, backend=%s in %s\n",
		stats.Document, stats.Pages, stats.Clauses, stats.Backend, stats.Duration.Round(timeRounding))
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
