// Package ingest glues the clause pipeline to persistence: it runs
// process + build for a document, stores the result in SQLite, writes
// the index snapshot, and can later reload a served index from disk.
// A file lock serializes ingests across processes.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/store"
)

// Notify receives coarse pipeline progress. Stage is one of "segment",
// "index", or "persist"; total is 0 when a stage has no unit count.
type Notify func(stage string, current, total int, message string)

// Ingestor runs the document pipeline end to end and persists the
// outcome.
type Ingestor struct {
	engine  *engine.Engine
	docs    *store.DocumentStore
	dataDir string
	logger  *slog.Logger

	// OnProgress, when set, is called as pipeline stages advance.
	OnProgress Notify
}

// New creates an Ingestor.
func New(eng *engine.Engine, docs *store.DocumentStore, dataDir string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		engine:  eng,
		docs:    docs,
		dataDir: dataDir,
		logger:  logger.With(slog.String("component", "ingest")),
	}
}

// Result is one completed ingest.
type Result struct {
	Document store.Document
	Clauses  []*clause.Clause
	Index    *engine.Index

	// Reused reports that a byte-identical document was already
	// stored; the existing record was kept and only the served index
	// was rebuilt.
	Reused bool
}

func (in *Ingestor) notify(stage string, current, total int, message string) {
	if in.OnProgress != nil {
		in.OnProgress(stage, current, total, message)
	}
}

// Pages ingests page-tagged text under the given document name.
func (in *Ingestor) Pages(ctx context.Context, name string, pages []clause.Page) (*Result, error) {
	lock := store.NewIngestLock(in.dataDir)
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	in.notify("segment", 0, len(pages), fmt.Sprintf("%d pages", len(pages)))
	clauses, err := in.engine.ProcessDocument(ctx, pages)
	if err != nil {
		return nil, err
	}

	in.notify("index", 0, len(clauses), fmt.Sprintf("%d clauses", len(clauses)))
	idx, err := in.engine.BuildIndex(ctx, clauses)
	if err != nil {
		return nil, err
	}

	in.notify("persist", 0, 0, name)
	doc, created, err := in.docs.SaveDocument(ctx, name, store.ContentHash(pages),
		idx.Backend(), len(pages), clauses)
	if err != nil {
		idx.Close()
		return nil, err
	}

	if err := store.SaveSnapshot(store.SnapshotPath(in.dataDir, doc.ID), idx.Snapshot()); err != nil {
		idx.Close()
		return nil, err
	}

	in.logger.Info("document ingested",
		slog.String("document_id", doc.ID),
		slog.String("name", doc.Name),
		slog.Int("clauses", len(clauses)),
		slog.String("backend", idx.Backend()),
		slog.Bool("reused", !created))

	return &Result{Document: doc, Clauses: clauses, Index: idx, Reused: !created}, nil
}

// File ingests a text file. Form feeds separate pages, the convention
// PDF text extractors emit; a file without form feeds is one page.
func (in *Ingestor) File(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound,
				fmt.Sprintf("file %s does not exist", path), err)
		}
		return nil, errors.New(errors.ErrCodeFileUnreadable,
			fmt.Sprintf("read %s", path), err)
	}
	return in.Pages(ctx, filepath.Base(path), SplitPages(string(data)))
}

// SplitPages converts form-feed separated text into numbered pages.
func SplitPages(text string) []clause.Page {
	parts := strings.Split(text, "\f")
	pages := make([]clause.Page, len(parts))
	for i, part := range parts {
		pages[i] = clause.Page{Number: i + 1, Text: part}
	}
	return pages
}

// Load returns a served index for a stored document: from its
// snapshot when present, otherwise rebuilt from the stored clauses
// (and re-snapshotted).
func (in *Ingestor) Load(ctx context.Context, docID string) (*engine.Index, error) {
	if _, err := in.docs.Document(ctx, docID); err != nil {
		return nil, err
	}

	path := store.SnapshotPath(in.dataDir, docID)
	if snap, err := store.LoadSnapshot(path); err == nil {
		idx, err := in.engine.FromSnapshot(ctx, snap)
		if err == nil {
			return idx, nil
		}
		in.logger.Warn("snapshot unusable, rebuilding index",
			slog.String("document_id", docID),
			slog.String("error", err.Error()))
	}

	clauses, err := in.docs.Clauses(ctx, docID)
	if err != nil {
		return nil, err
	}
	idx, err := in.engine.BuildIndex(ctx, clauses)
	if err != nil {
		return nil, err
	}
	if err := store.SaveSnapshot(path, idx.Snapshot()); err != nil {
		in.logger.Warn("snapshot rewrite failed", slog.String("error", err.Error()))
	}
	return idx, nil
}

// Delete removes a stored document and its snapshot.
func (in *Ingestor) Delete(ctx context.Context, docID string) error {
	if err := in.docs.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	return store.RemoveSnapshot(store.SnapshotPath(in.dataDir, docID))
}
