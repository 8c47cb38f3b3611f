// Package config loads and validates polisearch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete polisearch configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Segment    SegmentConfig    `yaml:"segment" json:"segment"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer" json:"analyzer"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// StorageConfig configures the document store location.
type StorageConfig struct {
	// DataDir holds the SQLite database, index snapshots, and lock file.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// SegmentConfig configures clause segmentation heuristics.
type SegmentConfig struct {
	// MaxHeadingRunes is the length cutoff above which a line is never a heading.
	MaxHeadingRunes int `yaml:"max_heading_runes" json:"max_heading_runes"`

	// AllCapsMaxWords is the word cutoff for the all-caps heading rule.
	AllCapsMaxWords int `yaml:"all_caps_max_words" json:"all_caps_max_words"`

	// MinBodyRunes drops clauses with shorter bodies when > 0.
	// 0 keeps every clause so bodies always partition the input text.
	MinBodyRunes int `yaml:"min_body_runes" json:"min_body_runes"`

	// KeepBoilerplate disables the page-footer filter when true.
	KeepBoilerplate bool `yaml:"keep_boilerplate" json:"keep_boilerplate"`
}

// EmbeddingsConfig configures the embedding provider chain.
type EmbeddingsConfig struct {
	// Provider selects the backend: "auto", "ollama", "gemini", or "tfidf".
	// Auto probes ollama, then gemini, then falls back to tfidf.
	Provider string `yaml:"provider" json:"provider"`

	// OllamaHost is the Ollama API endpoint (default http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// OllamaModel is the embedding model pulled into Ollama.
	OllamaModel string `yaml:"ollama_model" json:"ollama_model"`

	// GeminiModel is the Gemini embedding model name.
	GeminiModel string `yaml:"gemini_model" json:"gemini_model"`

	// GeminiAPIKeyEnv names the environment variable holding the API key.
	GeminiAPIKeyEnv string `yaml:"gemini_api_key_env" json:"gemini_api_key_env"`

	// BatchSize is the number of clauses embedded per backend request.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// CacheSize is the LRU capacity for query vectors.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// RequestTimeout bounds a single backend call, e.g. "30s".
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// RetrievalConfig configures query-time behavior.
type RetrievalConfig struct {
	// TopK is the default number of clauses returned per query.
	TopK int `yaml:"top_k" json:"top_k"`
}

// AnalyzerConfig configures the coverage-decision client.
type AnalyzerConfig struct {
	// BaseURL is the OpenAI-compatible chat completions endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Model is the reasoning model name.
	Model string `yaml:"model" json:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	// Timeout bounds a single decision call, e.g. "60s".
	Timeout string `yaml:"timeout" json:"timeout"`

	// MaxEvidence caps the number of clauses sent as decision context.
	MaxEvidence int `yaml:"max_evidence" json:"max_evidence"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// WatchDir enables directory watching when set: text files dropped
	// there are processed automatically and kept current.
	WatchDir string `yaml:"watch_dir" json:"watch_dir"`

	// WatchDebounce coalesces rapid file events, e.g. "200ms".
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Segment: SegmentConfig{
			MaxHeadingRunes: 80,
			AllCapsMaxWords: 6,
			MinBodyRunes:    0,
			KeepBoilerplate: false,
		},
		Embeddings: EmbeddingsConfig{
			Provider:        "auto",
			OllamaHost:      "http://localhost:11434",
			OllamaModel:     "nomic-embed-text",
			GeminiModel:     "gemini-embedding-001",
			GeminiAPIKeyEnv: "GEMINI_API_KEY",
			BatchSize:       32,
			CacheSize:       512,
			RequestTimeout:  "30s",
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Analyzer: AnalyzerConfig{
			BaseURL:     "https://api.perplexity.ai",
			Model:       "sonar-pro",
			APIKeyEnv:   "PERPLEXITY_API_KEY",
			Timeout:     "60s",
			MaxEvidence: 5,
		},
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          8580,
			WatchDebounce: "200ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "polisearch")
	}
	return filepath.Join(home, ".polisearch")
}

// DefaultPath returns the config file path probed when --config is not given.
func DefaultPath() string {
	return "polisearch.yaml"
}

// Load reads configuration from path, fills unset values with defaults, and
// applies POLISEARCH_* environment overrides. A missing file is not an error;
// defaults are returned.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies POLISEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("POLISEARCH_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("POLISEARCH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("POLISEARCH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("POLISEARCH_OLLAMA_MODEL"); v != "" {
		c.Embeddings.OllamaModel = v
	}
	if v := os.Getenv("POLISEARCH_GEMINI_MODEL"); v != "" {
		c.Embeddings.GeminiModel = v
	}
	if v := os.Getenv("POLISEARCH_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.Retrieval.TopK = k
		}
	}
	if v := os.Getenv("POLISEARCH_ANALYZER_BASE_URL"); v != "" {
		c.Analyzer.BaseURL = v
	}
	if v := os.Getenv("POLISEARCH_ANALYZER_MODEL"); v != "" {
		c.Analyzer.Model = v
	}
	if v := os.Getenv("POLISEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Embeddings.Provider {
	case "auto", "ollama", "gemini", "tfidf":
	default:
		return fmt.Errorf("embeddings.provider %q: must be auto, ollama, gemini, or tfidf",
			c.Embeddings.Provider)
	}

	if c.Segment.MaxHeadingRunes <= 0 {
		return fmt.Errorf("segment.max_heading_runes must be positive, got %d",
			c.Segment.MaxHeadingRunes)
	}
	if c.Segment.AllCapsMaxWords <= 0 {
		return fmt.Errorf("segment.all_caps_max_words must be positive, got %d",
			c.Segment.AllCapsMaxWords)
	}
	if c.Segment.MinBodyRunes < 0 {
		return fmt.Errorf("segment.min_body_runes must not be negative, got %d",
			c.Segment.MinBodyRunes)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}

	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d",
			c.Embeddings.BatchSize)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	for name, v := range map[string]string{
		"embeddings.request_timeout": c.Embeddings.RequestTimeout,
		"analyzer.timeout":           c.Analyzer.Timeout,
		"server.watch_debounce":      c.Server.WatchDebounce,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// Duration parses a duration field, returning fallback for empty or bad values.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
