// Package watch keeps a directory of policy text files current:
// changed files are reprocessed through the pipeline and the served
// index is swapped, removed files are dropped. Errors are logged and
// never stop the watch loop.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor write bursts per file.
const DefaultDebounce = 200 * time.Millisecond

// Op is the coalesced file operation.
type Op int

const (
	// OpChange means the file was created or modified and should be
	// (re)processed.
	OpChange Op = iota
	// OpRemove means the file is gone and its document should be
	// dropped.
	OpRemove
)

// Event is one coalesced file event.
type Event struct {
	Path    string
	Op      Op
	Created bool // the change first appeared in this debounce window
}

// Handler reacts to coalesced events. Implementations own their error
// handling; the watcher only logs.
type Handler interface {
	FileChanged(ctx context.Context, path string) error
	FileRemoved(ctx context.Context, path string) error
}

// Watcher watches one directory, non-recursively, for policy text
// files.
type Watcher struct {
	dir      string
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger
}

// New creates a Watcher over dir.
func New(dir string, debounce time.Duration, handler Handler, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handler:  handler,
		logger:   logger.With(slog.String("component", "watch")),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	deb := newDebouncer(w.debounce)
	defer deb.stop()

	w.logger.Info("watching policy directory", slog.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isPolicyFile(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				deb.add(Event{Path: event.Name, Op: OpChange, Created: true})
			case event.Has(fsnotify.Write):
				deb.add(Event{Path: event.Name, Op: OpChange})
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				deb.add(Event{Path: event.Name, Op: OpRemove})
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case batch, ok := <-deb.events():
			if !ok {
				return nil
			}
			w.dispatch(ctx, batch)
		}
	}
}

// dispatch hands a coalesced batch to the handler.
func (w *Watcher) dispatch(ctx context.Context, batch []Event) {
	for _, event := range batch {
		var err error
		switch event.Op {
		case OpChange:
			err = w.handler.FileChanged(ctx, event.Path)
		case OpRemove:
			err = w.handler.FileRemoved(ctx, event.Path)
		}
		if err != nil {
			w.logger.Warn("watch handler failed",
				slog.String("path", event.Path),
				slog.String("error", err.Error()))
		}
	}
}

// isPolicyFile keeps the watch to extracted policy text.
func isPolicyFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return true
	default:
		return false
	}
}
