package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ProviderType identifies an embedding backend.
type ProviderType string

const (
	// ProviderAuto probes dense backends and degrades to the lexical
	// fallback when none is reachable.
	ProviderAuto ProviderType = "auto"

	// ProviderOllama uses a local Ollama server.
	ProviderOllama ProviderType = "ollama"

	// ProviderGemini uses the Gemini API.
	ProviderGemini ProviderType = "gemini"

	// ProviderTFIDF uses the in-process lexical vectorizer.
	ProviderTFIDF ProviderType = "tfidf"
)

// Options selects and configures the embedding backend for one index
// build. Each build gets its own embedder; lexical backends carry
// corpus state and must never be shared across documents.
type Options struct {
	Provider     ProviderType
	OllamaHost   string
	OllamaModel  string
	GeminiModel  string
	GeminiAPIKey string
	BatchSize    int
	CacheSize    int // <0 disables the dense query cache
	Timeout      time.Duration
}

// NewEmbedder creates an embedder according to opts. An explicitly
// requested backend fails loudly when unavailable; auto selection
// degrades silently down the chain Ollama, Gemini, TF-IDF and never
// returns an error.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	switch opts.Provider {
	case ProviderOllama:
		e, err := newOllama(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("ollama unavailable: %w", err)
		}
		return wrapCache(e, opts), nil

	case ProviderGemini:
		e, err := newGemini(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("gemini unavailable: %w", err)
		}
		return wrapCache(e, opts), nil

	case ProviderTFIDF:
		return NewTFIDFEmbedder(), nil

	case ProviderAuto, "":
		return newAuto(ctx, opts), nil

	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", opts.Provider)
	}
}

// newAuto walks the fallback chain. Dense backend failures are logged
// and swallowed; the lexical fallback always works.
func newAuto(ctx context.Context, opts Options) Embedder {
	if e, err := newOllama(ctx, opts); err == nil {
		slog.Debug("using ollama embeddings", slog.String("model", e.ModelName()))
		return wrapCache(e, opts)
	} else {
		slog.Debug("ollama not reachable", slog.String("error", err.Error()))
	}

	if opts.GeminiAPIKey != "" {
		if e, err := newGemini(ctx, opts); err == nil {
			slog.Debug("using gemini embeddings", slog.String("model", e.ModelName()))
			return wrapCache(e, opts)
		} else {
			slog.Debug("gemini not reachable", slog.String("error", err.Error()))
		}
	}

	slog.Info("dense embedding backends unavailable, using lexical fallback")
	return NewTFIDFEmbedder()
}

func newOllama(ctx context.Context, opts Options) (*OllamaEmbedder, error) {
	cfg := DefaultOllamaConfig()
	if opts.OllamaHost != "" {
		cfg.Host = opts.OllamaHost
	}
	if opts.OllamaModel != "" {
		cfg.Model = opts.OllamaModel
	}
	if opts.BatchSize > 0 {
		cfg.BatchSize = opts.BatchSize
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	return NewOllamaEmbedder(ctx, cfg)
}

func newGemini(ctx context.Context, opts Options) (*GeminiEmbedder, error) {
	cfg := GeminiConfig{
		APIKey: opts.GeminiAPIKey,
		Model:  opts.GeminiModel,
	}
	if opts.BatchSize > 0 {
		cfg.BatchSize = opts.BatchSize
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	return NewGeminiEmbedder(ctx, cfg)
}

// wrapCache adds the LRU layer to dense backends.
func wrapCache(e Embedder, opts Options) Embedder {
	if opts.CacheSize < 0 {
		return e
	}
	return NewCachedEmbedder(e, opts.CacheSize)
}

// ParseProvider converts a string to a ProviderType.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ollama":
		return ProviderOllama
	case "gemini":
		return ProviderGemini
	case "tfidf", "sparse", "lexical":
		return ProviderTFIDF
	default:
		return ProviderAuto
	}
}

// String returns the string representation.
func (p ProviderType) String() string {
	return string(p)
}

// EmbedderInfo describes an embedder for status output and index
// metadata.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo inspects an embedder, unwrapping the cache layer.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	case *GeminiEmbedder:
		info.Provider = ProviderGemini
	case *TFIDFEmbedder:
		info.Provider = ProviderTFIDF
	default:
		info.Provider = ProviderAuto
	}

	return info
}

// IsSparse reports whether the embedder is the corpus-scoped lexical
// backend rather than a dense semantic one.
func IsSparse(embedder Embedder) bool {
	if cached, ok := embedder.(*CachedEmbedder); ok {
		embedder = cached.Inner()
	}
	_, ok := embedder.(*TFIDFEmbedder)
	return ok
}
