// Package analyze is the thin client to the external reasoning
// service. It packages a claim query plus the retrieved clause
// evidence into a chat-completions request and parses the structured
// coverage decision from the response. The retrieval core never
// depends on this package.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/errors"
)

// Defaults match the Perplexity chat-completions API.
const (
	DefaultBaseURL     = "https://api.perplexity.ai"
	DefaultModel       = "sonar-pro"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxEvidence = 5

	decisionTemperature = 0.1
	decisionMaxTokens   = 1000
)

// Config configures the reasoning client.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxEvidence int
}

// DefaultConfig returns the default client configuration. The API key
// must still be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		MaxEvidence: DefaultMaxEvidence,
	}
}

// Decision is the structured coverage determination returned by the
// reasoning service.
type Decision struct {
	Decision      string `json:"decision"`
	Amount        string `json:"amount,omitempty"`
	Justification string `json:"justification"`
	References    []int  `json:"references,omitempty"`
}

// Analyzer calls an OpenAI-compatible chat-completions endpoint.
type Analyzer struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	retry  errors.RetryConfig
}

// New creates an Analyzer. An empty API key is an error; callers that
// have no key configured should simply not construct an Analyzer.
func New(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigError("analyzer API key is not set", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = DefaultMaxEvidence
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(slog.String("component", "analyze")),
		retry:  errors.DefaultRetryConfig(),
	}, nil
}

// Model returns the configured reasoning model.
func (a *Analyzer) Model() string {
	return a.cfg.Model
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Analyze asks the reasoning service for a coverage decision given a
// claim query and its retrieved clause evidence.
func (a *Analyzer) Analyze(ctx context.Context, query string, evidence []engine.Result) (*Decision, error) {
	if len(evidence) > a.cfg.MaxEvidence {
		evidence = evidence[:a.cfg.MaxEvidence]
	}

	reqBody := chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(query, evidence)},
		},
		Temperature: decisionTemperature,
		MaxTokens:   decisionMaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.InternalError("marshal analyzer request", err)
	}

	// Transient transport and gateway failures are retried; malformed
	// decisions are not, so a confused model fails fast.
	start := time.Now()
	body, err := errors.RetryWithResult(ctx, a.retry, func() ([]byte, error) {
		return a.postChat(ctx, payload)
	})
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.New(errors.ErrCodeDecisionMalformed, "decode reasoning response", err)
	}
	if parsed.Error != nil {
		return nil, errors.New(errors.ErrCodeAnalyzerFailed, parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeDecisionMalformed, "reasoning response has no choices", nil)
	}

	decision, err := parseDecision(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("decision received",
		slog.String("decision", decision.Decision),
		slog.Duration("elapsed", time.Since(start)))
	return decision, nil
}

// postChat performs one chat-completions exchange and returns the raw
// response body.
func (a *Analyzer) postChat(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.InternalError("build analyzer request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.New(errors.ErrCodeAnalyzerFailed, "call reasoning service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.New(errors.ErrCodeAnalyzerFailed, "read reasoning response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeAnalyzerFailed,
			fmt.Sprintf("reasoning service returned %d", resp.StatusCode), nil).
			WithDetail("body", truncate(string(body), 300))
	}
	return body, nil
}

// parseDecision extracts the decision JSON, tolerating markdown code
// fences and prose around the object.
func parseDecision(content string) (*Decision, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, errors.New(errors.ErrCodeDecisionMalformed,
			"no JSON object in reasoning response", nil)
	}

	var decision Decision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, errors.New(errors.ErrCodeDecisionMalformed, "parse decision JSON", err)
	}
	if decision.Decision == "" {
		return nil, errors.New(errors.ErrCodeDecisionMalformed, "decision field is empty", nil)
	}
	return &decision, nil
}

// extractJSON returns the first balanced top-level JSON object in the
// text, or "".
func extractJSON(text string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
