package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/polisearch/polisearch/internal/errors"
)

// Gemini API constants.
const (
	// DefaultGeminiModel is the Gemini embedding model.
	DefaultGeminiModel = "gemini-embedding-001"

	// geminiTaskDocument marks corpus texts stored for retrieval.
	geminiTaskDocument = "RETRIEVAL_DOCUMENT"

	// geminiTaskQuery marks query texts searched against a corpus.
	geminiTaskQuery = "RETRIEVAL_QUERY"
)

// GeminiConfig configures the Gemini embedder.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the embedding model (default: gemini-embedding-001).
	Model string

	// BatchSize for batch embedding requests (default: 32).
	BatchSize int

	// Timeout for API requests (default: 30s).
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3).
	MaxRetries int
}

// GeminiEmbedder generates embeddings using the Gemini API. Corpus
// texts are embedded with the document task type, queries with the
// query task type, which is what the retrieval models expect.
type GeminiEmbedder struct {
	client *genai.Client
	config GeminiConfig

	mu     sync.RWMutex
	dims   int
	closed bool
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates a Gemini embedder.
func NewGeminiEmbedder(ctx context.Context, cfg GeminiConfig) (*GeminiEmbedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{client: client, config: cfg}, nil
}

// Embed generates an embedding for a single query text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if strings.TrimSpace(text) == "" {
		return make([]float32, e.Dimensions()), nil
	}

	vectors, err := e.embedWithRetry(ctx, []string{text}, geminiTaskQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for a clause corpus. Empty texts
// become zero vectors without an API call.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	results := make([][]float32, len(texts))

	for i, text := range texts {
		if strings.TrimSpace(text) != "" {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}

	for start := 0; start < len(nonEmpty); start += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + e.config.BatchSize
		if end > len(nonEmpty) {
			end = len(nonEmpty)
		}

		batch := nonEmpty[start:end]
		batchTexts := make([]string, len(batch))
		for i, it := range batch {
			batchTexts[i] = it.text
		}

		vectors, err := e.embedWithRetry(ctx, batchTexts, geminiTaskDocument)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		for i, vec := range vectors {
			results[batch[i].idx] = vec
		}
	}

	// Zero vectors are sized after the API told us the dimension.
	dims := e.Dimensions()
	for i := range results {
		if results[i] == nil {
			results[i] = make([]float32, dims)
		}
	}

	return results, nil
}

// embedWithRetry calls the Gemini embedding API with exponential backoff.
func (e *GeminiEmbedder) embedWithRetry(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	attempt := 0
	return errors.RetryWithResult(ctx, backendRetryConfig(e.config.MaxRetries), func() ([][]float32, error) {
		attempt++
		timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		vectors, err := e.doEmbed(timeoutCtx, texts, taskType)
		if err != nil {
			slog.Debug("gemini embed attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("texts", len(texts)),
				slog.String("error", err.Error()))
		}
		return vectors, err
	})
}

// doEmbed performs a single embedding request.
func (e *GeminiEmbedder) doEmbed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.config.Model, contents, &genai.EmbedContentConfig{
		TaskType: taskType,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding returned")
		}
		vectors[i] = normalizeVector(emb.Values)
	}

	e.mu.Lock()
	if e.dims == 0 && len(vectors) > 0 {
		e.dims = len(vectors[0])
	}
	e.mu.Unlock()

	return vectors, nil
}

// Dimensions returns the embedding dimension, 0 until the first call.
func (e *GeminiEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier.
func (e *GeminiEmbedder) ModelName() string {
	return e.config.Model
}

// Available reports whether the embedder is usable. Key validity is
// only proven by a real call; this checks local state.
func (e *GeminiEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed && e.client != nil
}

// Close releases resources.
func (e *GeminiEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
