package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/store"
)

// newTestEngine pins the lexical backend so tests never touch the
// network.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "tfidf"
	return New(cfg, nil)
}

func samplePages() []clause.Page {
	return []clause.Page{{
		Number: 1,
		Text: "1. Coverage\nDental treatment is covered up to Rs 50000 per year.\n" +
			"2. Exclusions\nPre-existing conditions excluded.",
	}}
}

func buildSampleIndex(t *testing.T, e *Engine) *Index {
	t.Helper()
	ctx := context.Background()

	clauses, err := e.ProcessDocument(ctx, samplePages())
	require.NoError(t, err)

	idx, err := e.BuildIndex(ctx, clauses)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestProcessDocument_SegmentsNumberedSections(t *testing.T) {
	e := newTestEngine(t)

	clauses, err := e.ProcessDocument(context.Background(), samplePages())
	require.NoError(t, err)
	require.Len(t, clauses, 2)

	assert.Equal(t, "1. Coverage", clauses[0].Title)
	assert.Equal(t, "Dental treatment is covered up to Rs 50000 per year.", clauses[0].Body)
	assert.Equal(t, 1, clauses[0].Page)
	assert.Equal(t, "2. Exclusions", clauses[1].Title)
	assert.Equal(t, []int{0, 1}, []int{clauses[0].ID, clauses[1].ID})
}

func TestProcessDocument_EmptyPageList(t *testing.T) {
	e := newTestEngine(t)

	clauses, err := e.ProcessDocument(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestProcessDocument_AllPagesBlankIsInputError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ProcessDocument(context.Background(), []clause.Page{
		{Number: 1, Text: "   \n\t  "},
		{Number: 2, Text: ""},
	})
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))
}

func TestRetrieve_DentalQueryRanksCoverageFirst(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	results, err := e.Retrieve(context.Background(), idx, "Is dental treatment covered?", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 0, results[0].ClauseID)
	assert.Equal(t, 0, results[0].Rank)
	assert.Equal(t, "1. Coverage", results[0].Clause.Title)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestRetrieve_SelfQueryRanksOwnClauseFirst(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	for _, c := range idx.Clauses() {
		results, err := e.Retrieve(context.Background(), idx, c.IndexText(), idx.Len())
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, c.ID, results[0].ClauseID, "query %q", c.IndexText())
	}
}

func TestRetrieve_KLargerThanCorpus(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	results, err := e.Retrieve(context.Background(), idx, "coverage", 50)
	require.NoError(t, err)
	assert.Len(t, results, idx.Len())
}

func TestRetrieve_EmptyQueryReturnsNoResults(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	for _, query := range []string{"", "   ", "\t\n"} {
		for _, k := range []int{1, 5, 100} {
			results, err := e.Retrieve(context.Background(), idx, query, k)
			require.NoError(t, err)
			assert.Empty(t, results, "query %q k=%d", query, k)
		}
	}
}

func TestRetrieve_NonPositiveK(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	for _, k := range []int{0, -1} {
		results, err := e.Retrieve(context.Background(), idx, "coverage", k)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestRetrieve_ScoresNonIncreasingAndBounded(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	results, err := e.Retrieve(context.Background(), idx, "treatment conditions year", idx.Len())
	require.NoError(t, err)

	for i, r := range results {
		assert.Equal(t, i, r.Rank)
		assert.GreaterOrEqual(t, r.Score, -1.0-1e-9)
		assert.LessOrEqual(t, r.Score, 1.0+1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
			if results[i-1].Score == r.Score {
				assert.Less(t, results[i-1].ClauseID, r.ClauseID)
			}
		}
	}
}

func TestRetrieve_NilIndexIsError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Retrieve(context.Background(), nil, "coverage", 1)
	assert.Error(t, err)
}

func TestBuildIndex_EmptyCorpusServesEmptyResults(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	idx, err := e.BuildIndex(ctx, nil)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 0, idx.Len())

	results, err := e.Retrieve(ctx, idx, "anything at all", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuildIndex_RebuildIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	clauses, err := e.ProcessDocument(ctx, samplePages())
	require.NoError(t, err)

	first, err := e.BuildIndex(ctx, clauses)
	require.NoError(t, err)
	defer first.Close()
	second, err := e.BuildIndex(ctx, clauses)
	require.NoError(t, err)
	defer second.Close()

	for _, query := range []string{"dental treatment", "pre-existing conditions", "covered"} {
		a, err := e.Retrieve(ctx, first, query, len(clauses))
		require.NoError(t, err)
		b, err := e.Retrieve(ctx, second, query, len(clauses))
		require.NoError(t, err)
		assert.Equal(t, a, b, "query %q", query)
	}
}

func TestBuildIndex_EveryClauseHasAVector(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	results, err := e.Retrieve(context.Background(), idx, "dental exclusions covered conditions", idx.Len())
	require.NoError(t, err)
	require.Len(t, results, idx.Len())

	seen := make(map[int]bool)
	for _, r := range results {
		seen[r.ClauseID] = true
	}
	for _, c := range idx.Clauses() {
		assert.True(t, seen[c.ID], "clause %d missing from full retrieval", c.ID)
	}
}

func TestBuildIndex_UnknownQueryTermsScoreZero(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	// Every term is out of vocabulary for this corpus.
	results, err := e.Retrieve(context.Background(), idx, "zymurgy quixotic", idx.Len())
	require.NoError(t, err)
	require.Len(t, results, idx.Len())
	for _, r := range results {
		assert.InDelta(t, 0.0, r.Score, 1e-9)
	}
}

func TestSnapshot_RoundTripThroughEngine(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	idx := buildSampleIndex(t, e)

	snap := idx.Snapshot()
	assert.Equal(t, "tfidf", snap.Backend)
	assert.NotEmpty(t, snap.Vocabulary, "sparse snapshot carries its vocabulary")

	restored, err := e.FromSnapshot(ctx, snap)
	require.NoError(t, err)
	defer restored.Close()

	query := "Is dental treatment covered?"
	want, err := e.Retrieve(ctx, idx, query, 2)
	require.NoError(t, err)
	got, err := e.Retrieve(ctx, restored, query, 2)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ClauseID, got[i].ClauseID)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}

func TestSnapshot_PersistedRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	idx := buildSampleIndex(t, e)

	path := store.SnapshotPath(t.TempDir(), "doc-1")
	require.NoError(t, store.SaveSnapshot(path, idx.Snapshot()))

	snap, err := store.LoadSnapshot(path)
	require.NoError(t, err)

	restored, err := e.FromSnapshot(ctx, snap)
	require.NoError(t, err)
	defer restored.Close()

	results, err := e.Retrieve(ctx, restored, "dental treatment", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1. Coverage", results[0].Clause.Title)
}

func TestIndex_ClauseLookup(t *testing.T) {
	e := newTestEngine(t)
	idx := buildSampleIndex(t, e)

	c, ok := idx.Clause(1)
	require.True(t, ok)
	assert.Equal(t, "2. Exclusions", c.Title)

	_, ok = idx.Clause(99)
	assert.False(t, ok)
}
