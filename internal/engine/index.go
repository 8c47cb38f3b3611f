package engine

import (
	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/embed"
	"github.com/polisearch/polisearch/internal/store"
)

// Index is the opaque handle returned by BuildIndex: one document's
// clause snapshot, the fitted vectorizer, and the similarity index.
// An Index is immutable after construction, so Retrieve is safe to
// call from any number of goroutines. Reprocessing a document builds
// a fresh Index; it never patches an existing one.
type Index struct {
	backend  embed.ProviderType
	model    string
	clauses  []*clause.Clause
	byID     map[int]*clause.Clause
	embedder embed.Embedder
	vectors  *store.CosineIndex
}

// newIndex bundles built state into a handle.
func newIndex(backend embed.ProviderType, model string, clauses []*clause.Clause, embedder embed.Embedder, vectors *store.CosineIndex) *Index {
	byID := make(map[int]*clause.Clause, len(clauses))
	snapshot := make([]*clause.Clause, len(clauses))
	for i, c := range clauses {
		snapshot[i] = c
		byID[c.ID] = c
	}
	return &Index{
		backend:  backend,
		model:    model,
		clauses:  snapshot,
		byID:     byID,
		embedder: embedder,
		vectors:  vectors,
	}
}

// Backend returns the vectorizer backend tag fixed at build time.
func (idx *Index) Backend() string {
	return string(idx.backend)
}

// Model returns the embedding model identifier.
func (idx *Index) Model() string {
	return idx.model
}

// Len returns the corpus size.
func (idx *Index) Len() int {
	return len(idx.clauses)
}

// Clauses returns the indexed clauses in ID order. The slice is a
// copy; the clauses are shared and must not be mutated.
func (idx *Index) Clauses() []*clause.Clause {
	out := make([]*clause.Clause, len(idx.clauses))
	copy(out, idx.clauses)
	return out
}

// Clause returns an indexed clause by ID.
func (idx *Index) Clause(id int) (*clause.Clause, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// Snapshot captures the handle for persistence. Sparse handles embed
// their fitted vocabulary so the snapshot is queryable offline.
func (idx *Index) Snapshot() *store.Snapshot {
	snap := store.NewSnapshot(idx.Backend(), idx.model, idx.clauses, idx.vectors)

	inner := idx.embedder
	if cached, ok := inner.(*embed.CachedEmbedder); ok {
		inner = cached.Inner()
	}
	if tfidf, ok := inner.(*embed.TFIDFEmbedder); ok {
		snap.Vocabulary, snap.IDF = tfidf.State()
	}
	return snap
}

// Close releases the handle's embedder.
func (idx *Index) Close() error {
	if idx.embedder == nil {
		return nil
	}
	return idx.embedder.Close()
}
