package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/errors"
)

const documentSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	content_hash  TEXT NOT NULL UNIQUE,
	pages         INTEGER NOT NULL,
	clause_count  INTEGER NOT NULL,
	backend       TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clauses (
	document_id   TEXT NOT NULL,
	clause_id     INTEGER NOT NULL,
	title         TEXT NOT NULL,
	body          TEXT NOT NULL,
	page          INTEGER NOT NULL,
	PRIMARY KEY (document_id, clause_id),
	FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);
`

// DocumentStore persists processed documents and their clauses in
// SQLite. WAL mode allows the HTTP server and CLI to read while an
// ingest is writing.
type DocumentStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// OpenDocumentStore opens (or creates) the database under dataDir.
func OpenDocumentStore(dataDir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.New(errors.ErrCodeStoreOpen, "create data directory", err)
	}

	path := filepath.Join(dataDir, "polisearch.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreOpen, "open database", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.New(errors.ErrCodeStoreOpen, pragma, err)
		}
	}

	if _, err := db.Exec(documentSchema); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrCodeStoreOpen, "create schema", err)
	}

	return &DocumentStore{db: db, path: path}, nil
}

// ContentHash computes the dedupe hash for a document's pages.
func ContentHash(pages []clause.Page) string {
	h := sha256.New()
	for _, p := range pages {
		fmt.Fprintf(h, "%d\x00%s\x00", p.Number, p.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SaveDocument stores a document and its clauses in one transaction.
// A document with the same content hash already in the store is
// returned unchanged with created reported false.
func (s *DocumentStore) SaveDocument(ctx context.Context, name, contentHash, backend string, pages int, clauses []*clause.Clause) (Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Document{}, false, errors.StorageError("store is closed", nil)
	}

	if existing, err := s.documentBy(ctx, "content_hash", contentHash); err == nil {
		return existing, false, nil
	}

	doc := Document{
		ID:          uuid.NewString(),
		Name:        name,
		ContentHash: contentHash,
		Pages:       pages,
		ClauseCount: len(clauses),
		Backend:     backend,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, false, errors.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, name, content_hash, pages, clause_count, backend, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.ContentHash, doc.Pages, doc.ClauseCount, doc.Backend,
		doc.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Document{}, false, errors.StorageError("insert document", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO clauses (document_id, clause_id, title, body, page) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Document{}, false, errors.StorageError("prepare clause insert", err)
	}
	defer stmt.Close()

	for _, c := range clauses {
		if _, err := stmt.ExecContext(ctx, doc.ID, c.ID, c.Title, c.Body, c.Page); err != nil {
			return Document{}, false, errors.StorageError("insert clause", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Document{}, false, errors.StorageError("commit document", err)
	}
	return doc, true, nil
}

// Document returns a stored document by ID.
func (s *DocumentStore) Document(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentBy(ctx, "id", id)
}

// documentBy fetches one document by an exact column match. Callers
// hold s.mu.
func (s *DocumentStore) documentBy(ctx context.Context, column, value string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, content_hash, pages, clause_count, backend, created_at
		 FROM documents WHERE `+column+` = ?`, value)
	return scanDocument(row)
}

// Latest returns the most recently stored document.
func (s *DocumentStore) Latest(ctx context.Context) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, content_hash, pages, clause_count, backend, created_at
		 FROM documents ORDER BY created_at DESC LIMIT 1`)
	return scanDocument(row)
}

// Documents lists stored documents, newest first.
func (s *DocumentStore) Documents(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, content_hash, pages, clause_count, backend, created_at
		 FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.StorageError("list documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Clauses returns a document's clauses in ID order.
func (s *DocumentStore) Clauses(ctx context.Context, docID string) ([]*clause.Clause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT clause_id, title, body, page FROM clauses
		 WHERE document_id = ? ORDER BY clause_id`, docID)
	if err != nil {
		return nil, errors.StorageError("list clauses", err)
	}
	defer rows.Close()

	var clauses []*clause.Clause
	for rows.Next() {
		c := &clause.Clause{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Body, &c.Page); err != nil {
			return nil, errors.StorageError("scan clause", err)
		}
		clauses = append(clauses, c)
	}
	return clauses, rows.Err()
}

// DeleteDocument removes a document; its clauses cascade.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.StorageError("store is closed", nil)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.StorageError("delete document", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.StorageError("delete document", err)
	}
	if affected == 0 {
		return errors.New(errors.ErrCodeDocumentNotFound,
			fmt.Sprintf("document %s not found", id), nil)
	}
	return nil
}

// Stats reports document and clause counts, broken down by backend.
func (s *DocumentStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Backends: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents`).Scan(&stats.Documents); err != nil {
		return Stats{}, errors.StorageError("count documents", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clauses`).Scan(&stats.Clauses); err != nil {
		return Stats{}, errors.StorageError("count clauses", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT backend, COUNT(*) FROM documents GROUP BY backend`)
	if err != nil {
		return Stats{}, errors.StorageError("count backends", err)
	}
	defer rows.Close()

	for rows.Next() {
		var backend string
		var count int
		if err := rows.Scan(&backend, &count); err != nil {
			return Stats{}, errors.StorageError("scan backend count", err)
		}
		stats.Backends[backend] = count
	}
	return stats, rows.Err()
}

// Path returns the database file location.
func (s *DocumentStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var createdAt string
	err := row.Scan(&doc.ID, &doc.Name, &doc.ContentHash, &doc.Pages,
		&doc.ClauseCount, &doc.Backend, &createdAt)
	if err == sql.ErrNoRows {
		return Document{}, errors.New(errors.ErrCodeDocumentNotFound, "document not found", err)
	}
	if err != nil {
		return Document{}, errors.StorageError("scan document", err)
	}
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		doc.CreatedAt = t
	}
	return doc, nil
}
