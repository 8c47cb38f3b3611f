package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/polisearch/polisearch/internal/errors"
)

// IngestLock serializes document ingestion across processes, so a CLI
// process and the server never write the same data directory at once.
// Works on all platforms.
type IngestLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewIngestLock creates a lock rooted in the data directory. The lock
// file is created at <dataDir>/.ingest.lock.
func NewIngestLock(dataDir string) *IngestLock {
	path := filepath.Join(dataDir, ".ingest.lock")
	return &IngestLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Lock acquires the exclusive lock, blocking until available.
func (l *IngestLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.StorageError("create lock directory", err)
	}
	if err := l.flock.Lock(); err != nil {
		return errors.New(errors.ErrCodeStoreLocked,
			fmt.Sprintf("acquire ingest lock %s", l.path), err)
	}
	l.locked = true
	return nil
}

// TryLock attempts the lock without blocking and reports whether it
// was acquired.
func (l *IngestLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, errors.StorageError("create lock directory", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, errors.New(errors.ErrCodeStoreLocked,
			fmt.Sprintf("acquire ingest lock %s", l.path), err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *IngestLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return errors.StorageError("release ingest lock", err)
	}
	return nil
}

// Path returns the lock file location.
func (l *IngestLock) Path() string {
	return l.path
}
