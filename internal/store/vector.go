package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// CosineIndex is an exact nearest-neighbor index over clause vectors.
// Vectors are L2-normalized on insert, so cosine similarity reduces to
// a dot product at query time. Corpora are single-document sized (a
// few hundred clauses at most), so a brute-force scan beats any
// approximate structure here.
//
// An index is mutated only while a document is being built; after that
// it is read-only and safe for concurrent searches.
type CosineIndex struct {
	mu      sync.RWMutex
	dims    int
	ids     []int
	vectors [][]float32
	byID    map[int]int // clause ID -> position in ids/vectors
	closed  bool
}

// NewCosineIndex creates an empty index. dims may be 0, in which case
// the dimension is fixed by the first Add.
func NewCosineIndex(dims int) *CosineIndex {
	return &CosineIndex{
		dims: dims,
		byID: make(map[int]int),
	}
}

// Add inserts vectors with their clause IDs. A zero-magnitude vector
// is stored as-is and scores 0 against every query.
func (idx *CosineIndex) Add(ctx context.Context, ids []int, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("index is closed")
	}

	for i, id := range ids {
		if idx.dims == 0 {
			idx.dims = len(vectors[i])
		}
		if len(vectors[i]) != idx.dims {
			return fmt.Errorf("vector for clause %d has %d dimensions, index has %d",
				id, len(vectors[i]), idx.dims)
		}
		if _, dup := idx.byID[id]; dup {
			return fmt.Errorf("clause %d already indexed", id)
		}

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		idx.byID[id] = len(idx.ids)
		idx.ids = append(idx.ids, id)
		idx.vectors = append(idx.vectors, vec)
	}
	return nil
}

// Search returns the k nearest clauses by cosine similarity, ordered
// by descending score with ties broken by ascending clause ID. Fewer
// than k results are returned when the index holds fewer vectors.
func (idx *CosineIndex) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if k <= 0 || len(idx.ids) == 0 {
		return []VectorResult{}, nil
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d", len(query), idx.dims)
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	results := make([]VectorResult, len(idx.ids))
	for i, id := range idx.ids {
		// float64 accumulation keeps small score differences stable.
		var dot float64
		for j, v := range idx.vectors[i] {
			dot += float64(v) * float64(q[j])
		}
		results[i] = VectorResult{ID: id, Score: dot}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Contains reports whether a clause ID is indexed.
func (idx *CosineIndex) Contains(id int) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.byID[id]
	return ok
}

// Len returns the number of indexed vectors.
func (idx *CosineIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Dimensions returns the vector dimension, 0 for an empty index.
func (idx *CosineIndex) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dims
}

// Close marks the index closed. Further operations fail.
func (idx *CosineIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	return nil
}

// vectorData returns the raw ids and vectors for snapshotting.
// The returned slices alias internal state; callers must not mutate.
func (idx *CosineIndex) vectorData() ([]int, [][]float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ids, idx.vectors
}

// normalizeInPlace scales a vector to unit length. Zero vectors are
// left alone so they score 0 everywhere instead of dividing by zero.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return
	}
	for i, val := range v {
		v[i] = float32(float64(val) / magnitude)
	}
}
