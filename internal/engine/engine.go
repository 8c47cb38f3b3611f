// Package engine orchestrates the clause pipeline: normalize pages,
// segment them into clauses, build a similarity index, and serve
// ranked top-k retrieval for claim queries.
package engine

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/embed"
	"github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/normalize"
	"github.com/polisearch/polisearch/internal/segment"
	"github.com/polisearch/polisearch/internal/store"
)

// Result is one ranked retrieval hit. Results for a query are ordered
// by non-increasing score, ties broken by ascending clause ID.
type Result struct {
	ClauseID int            `json:"clause_id"`
	Score    float64        `json:"score"`
	Rank     int            `json:"rank"`
	Clause   *clause.Clause `json:"clause,omitempty"`
}

// Engine runs the document pipeline. One Engine serves any number of
// documents; per-document state lives in the Index handles it builds.
type Engine struct {
	normalizer *normalize.Normalizer
	segmenter  *segment.Segmenter
	embedOpts  embed.Options
	batchSize  int
	logger     *slog.Logger
}

// New creates an Engine from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var normOpts []normalize.Option
	if cfg.Segment.KeepBoilerplate {
		normOpts = append(normOpts, normalize.WithBoilerplate())
	}

	batchSize := cfg.Embeddings.BatchSize
	if batchSize <= 0 {
		batchSize = embed.DefaultBatchSize
	}

	return &Engine{
		normalizer: normalize.New(normOpts...),
		segmenter: segment.New(
			segment.WithMaxHeadingRunes(cfg.Segment.MaxHeadingRunes),
			segment.WithAllCapsMaxWords(cfg.Segment.AllCapsMaxWords),
			segment.WithMinBodyRunes(cfg.Segment.MinBodyRunes),
		),
		embedOpts: embed.Options{
			Provider:     embed.ParseProvider(cfg.Embeddings.Provider),
			OllamaHost:   cfg.Embeddings.OllamaHost,
			OllamaModel:  cfg.Embeddings.OllamaModel,
			GeminiModel:  cfg.Embeddings.GeminiModel,
			GeminiAPIKey: os.Getenv(cfg.Embeddings.GeminiAPIKeyEnv),
			BatchSize:    batchSize,
			CacheSize:    cfg.Embeddings.CacheSize,
			Timeout:      config.Duration(cfg.Embeddings.RequestTimeout, embed.DefaultTimeout),
		},
		batchSize: batchSize,
		logger:    logger.With(slog.String("component", "engine")),
	}
}

// ProcessDocument normalizes and segments page text into an ordered
// clause sequence. An empty page list yields an empty sequence; pages
// that are present but contain no extractable text are an input error.
func (e *Engine) ProcessDocument(ctx context.Context, pages []clause.Page) ([]*clause.Clause, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return []*clause.Clause{}, nil
	}

	normalized := make([]clause.Page, 0, len(pages))
	hasText := false
	for _, page := range pages {
		text := e.normalizer.Normalize(page.Text)
		if text != "" {
			hasText = true
		}
		normalized = append(normalized, clause.Page{Number: page.Number, Text: text})
	}
	if !hasText {
		return nil, errors.NoTextError()
	}

	clauses := e.segmenter.Segment(normalized).All()
	e.logger.Debug("document segmented",
		slog.Int("pages", len(pages)),
		slog.Int("clauses", len(clauses)))
	return clauses, nil
}

// BuildIndex vectorizes a clause corpus and returns the immutable
// handle that Retrieve operates on. An empty corpus builds an empty
// index successfully; every retrieval against it returns no results.
// Dense backend failures during corpus embedding degrade to the
// lexical fallback transparently.
func (e *Engine) BuildIndex(ctx context.Context, clauses []*clause.Clause) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return newIndex(embed.ProviderTFIDF, embed.TFIDFModelName, nil,
			embed.NewTFIDFEmbedder(), store.NewCosineIndex(0)), nil
	}

	texts := make([]string, len(clauses))
	ids := make([]int, len(clauses))
	for i, c := range clauses {
		texts[i] = c.IndexText()
		ids[i] = c.ID
	}

	embedder, err := embed.NewEmbedder(ctx, e.embedOpts)
	if err != nil {
		return nil, errors.BackendUnavailableError(e.embedOpts.Provider.String(), err)
	}

	vectors, err := e.embedCorpus(ctx, embedder, texts)
	if err != nil && !embed.IsSparse(embedder) {
		// The dense backend passed its probe but failed mid-corpus.
		// Degrade to the lexical fallback instead of surfacing it.
		e.logger.Warn("dense embedding failed, falling back to lexical backend",
			slog.String("model", embedder.ModelName()),
			slog.String("error", err.Error()))
		embedder.Close()
		embedder = embed.NewTFIDFEmbedder()
		vectors, err = e.embedCorpus(ctx, embedder, texts)
	}
	if err != nil {
		embedder.Close()
		return nil, errors.EmptyCorpusError(err)
	}

	idx := store.NewCosineIndex(embedder.Dimensions())
	if err := idx.Add(ctx, ids, vectors); err != nil {
		embedder.Close()
		return nil, errors.New(errors.ErrCodeIndexFailed, "index clause vectors", err)
	}

	info := embed.GetInfo(ctx, embedder)
	e.logger.Info("index built",
		slog.Int("clauses", len(clauses)),
		slog.String("backend", info.Provider.String()),
		slog.String("model", info.Model),
		slog.Int("dimensions", idx.Dimensions()))

	return newIndex(info.Provider, info.Model, clauses, embedder, idx), nil
}

// embedCorpus produces one vector per text. The lexical backend fits
// its vocabulary from the whole corpus in a single call; dense
// backends are batched over HTTP and the batches run concurrently.
func (e *Engine) embedCorpus(ctx context.Context, embedder embed.Embedder, texts []string) ([][]float32, error) {
	if embed.IsSparse(embedder) || len(texts) <= e.batchSize {
		return embedder.EmbedBatch(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		g.Go(func() error {
			batch, err := embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Retrieve returns the top-k clauses for a query, at most the corpus
// size. An empty or whitespace-only query is not an error; it returns
// an empty result set. Retrieval is read-only against the handle.
func (e *Engine) Retrieve(ctx context.Context, idx *Index, query string, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, errors.ValidationError("index handle is nil", nil)
	}

	query = strings.TrimSpace(query)
	if query == "" || k <= 0 || idx.Len() == 0 {
		return []Result{}, nil
	}

	vector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "embed query", err)
	}

	hits, err := idx.vectors.Search(ctx, vector, k)
	if err != nil {
		return nil, errors.InternalError("search index", err)
	}

	results := make([]Result, len(hits))
	for rank, hit := range hits {
		c, _ := idx.Clause(hit.ID)
		results[rank] = Result{
			ClauseID: hit.ID,
			Score:    hit.Score,
			Rank:     rank,
			Clause:   c,
		}
	}
	return results, nil
}

// FromSnapshot rebuilds an Index handle from a persisted snapshot.
// Sparse snapshots restore their vocabulary and work offline; dense
// snapshots need their backend reachable again for query embedding.
func (e *Engine) FromSnapshot(ctx context.Context, snap *store.Snapshot) (*Index, error) {
	vectors, err := snap.Index()
	if err != nil {
		return nil, errors.New(errors.ErrCodeSnapshotCorrupt, "rebuild vector index", err)
	}

	clauses := make([]*clause.Clause, len(snap.Clauses))
	for i := range snap.Clauses {
		c := snap.Clauses[i]
		clauses[i] = &c
	}

	backend := embed.ParseProvider(snap.Backend)
	var embedder embed.Embedder
	switch backend {
	case embed.ProviderTFIDF:
		embedder = embed.NewTFIDFEmbedderFromState(snap.Vocabulary, snap.IDF)
	default:
		opts := e.embedOpts
		opts.Provider = backend
		embedder, err = embed.NewEmbedder(ctx, opts)
		if err != nil {
			return nil, errors.BackendUnavailableError(snap.Backend, err)
		}
	}

	return newIndex(backend, snap.Model, clauses, embedder, vectors), nil
}
