package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "auto", cfg.Embeddings.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.OllamaHost)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 80, cfg.Segment.MaxHeadingRunes)
	assert.Equal(t, 0, cfg.Segment.MinBodyRunes)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Analyzer.BaseURL)
	assert.NotEmpty(t, cfg.Storage.DataDir)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Embeddings.Provider)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "polisearch.yaml")
	content := `
embeddings:
  provider: tfidf
retrieval:
  top_k: 3
segment:
  min_body_runes: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embeddings.Provider)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 50, cfg.Segment.MinBodyRunes)
	// Untouched sections keep defaults.
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.OllamaModel)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "polisearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embeddings: [broken"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "polisearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embeddings:\n  provider: ollama\n"), 0o644))

	t.Setenv("POLISEARCH_EMBEDDINGS_PROVIDER", "tfidf")
	t.Setenv("POLISEARCH_TOP_K", "9")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embeddings.Provider)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "faiss" }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"negative min body", func(c *Config) { c.Segment.MinBodyRunes = -1 }},
		{"zero heading cutoff", func(c *Config) { c.Segment.MaxHeadingRunes = 0 }},
		{"zero batch size", func(c *Config) { c.Embeddings.BatchSize = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad timeout", func(c *Config) { c.Analyzer.Timeout = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSave_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "polisearch.yaml")

	cfg := NewConfig()
	cfg.Embeddings.Provider = "gemini"
	cfg.Server.Port = 9000
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", loaded.Embeddings.Provider)
	assert.Equal(t, 9000, loaded.Server.Port)
}

func TestDuration_FallbackBehavior(t *testing.T) {
	assert.Equal(t, 30*time.Second, Duration("", 30*time.Second))
	assert.Equal(t, 30*time.Second, Duration("bogus", 30*time.Second))
	assert.Equal(t, 200*time.Millisecond, Duration("200ms", time.Second))
}
