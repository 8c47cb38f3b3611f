// Package embed turns clause text into feature vectors. Two kinds of
// backend implement one contract: dense semantic embeddings (Ollama,
// Gemini) and a lexical TF-IDF fallback that needs no external service.
package embed

import (
	"context"
	"math"
	"time"

	"github.com/polisearch/polisearch/internal/errors"
)

// Common embedding constants.
const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// MaxBatchSize caps batch size to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultTimeout is the default timeout for embedding requests.
	DefaultTimeout = 30 * time.Second

	// ConnectTimeout bounds the initial availability probe.
	ConnectTimeout = 5 * time.Second

	// DefaultMaxRetries is the number of attempts for transient failures.
	DefaultMaxRetries = 3
)

// backendRetryConfig maps a backend's total attempt count onto the
// shared retry helper, whose MaxRetries excludes the first attempt.
func backendRetryConfig(attempts int) errors.RetryConfig {
	cfg := errors.DefaultRetryConfig()
	cfg.InitialDelay = 200 * time.Millisecond
	cfg.MaxDelay = 2 * time.Second
	if attempts > 0 {
		cfg.MaxRetries = attempts - 1
	}
	return cfg
}

// Embedder generates vector embeddings for text.
//
// EmbedBatch is corpus-scoped: lexical backends rebuild their
// vocabulary from the batch, so one Embedder instance serves exactly
// one document index. Embed produces a query vector against the state
// left by the last EmbedBatch.
type Embedder interface {
	// Embed generates an embedding for a single query text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for a clause corpus.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the backend is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length. Zero vectors are
// returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
