package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/errors"
)

// Snapshot is the gob-serialized form of one built index: the clause
// corpus, its vectors, and enough backend state to answer queries
// after a restart. Sparse snapshots carry the fitted TF-IDF
// vocabulary so they are queryable offline; dense snapshots record
// the model name and need the backend live again at query time.
type Snapshot struct {
	Backend string
	Model   string
	Dims    int
	Clauses []clause.Clause
	IDs     []int
	Vectors [][]float32

	// Sparse backend state; nil for dense snapshots.
	Vocabulary map[string]int
	IDF        []float64
}

// NewSnapshot captures an index and its clause corpus.
func NewSnapshot(backend, model string, clauses []*clause.Clause, idx *CosineIndex) *Snapshot {
	ids, vectors := idx.vectorData()

	snap := &Snapshot{
		Backend: backend,
		Model:   model,
		Dims:    idx.Dimensions(),
		Clauses: make([]clause.Clause, len(clauses)),
		IDs:     make([]int, len(ids)),
		Vectors: make([][]float32, len(vectors)),
	}
	for i, c := range clauses {
		snap.Clauses[i] = *c
	}
	copy(snap.IDs, ids)
	for i, v := range vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		snap.Vectors[i] = vec
	}
	return snap
}

// Index rebuilds the cosine index from the snapshot.
func (s *Snapshot) Index() (*CosineIndex, error) {
	idx := NewCosineIndex(s.Dims)
	// Vectors were normalized before the snapshot; Add normalizes
	// again, which is a no-op on unit vectors.
	if err := idx.Add(context.Background(), s.IDs, s.Vectors); err != nil {
		return nil, err
	}
	return idx, nil
}

// SnapshotPath returns the index snapshot location for a document.
func SnapshotPath(dataDir, docID string) string {
	return filepath.Join(dataDir, "indexes", docID+".idx")
}

// SaveSnapshot writes the snapshot atomically: gob to a temp file in
// the target directory, then rename.
func SaveSnapshot(path string, snap *Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.StorageError("create snapshot directory", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return errors.StorageError("create snapshot file", err)
	}

	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return errors.StorageError("encode snapshot", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.StorageError("close snapshot file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.StorageError("rename snapshot file", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeSnapshotCorrupt,
				fmt.Sprintf("snapshot %s does not exist", path), err)
		}
		return nil, errors.StorageError("open snapshot", err)
	}
	defer file.Close()

	var snap Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, errors.New(errors.ErrCodeSnapshotCorrupt, "decode snapshot", err)
	}
	if len(snap.IDs) != len(snap.Vectors) {
		return nil, errors.New(errors.ErrCodeSnapshotCorrupt,
			fmt.Sprintf("snapshot %s: %d ids but %d vectors", path, len(snap.IDs), len(snap.Vectors)), nil)
	}
	return &snap, nil
}

// RemoveSnapshot deletes a snapshot file. Missing files are fine.
func RemoveSnapshot(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.StorageError("remove snapshot", err)
	}
	return nil
}
