package embed

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder is a deterministic in-memory Embedder that records
// how often the backend is actually hit.
type countingEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	lastBatch  []string
	model      string
	dims       int
	failNext   bool
	closed     bool
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{model: "counting-model", dims: 4}
}

func (m *countingEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, r := range text {
		vec[i%m.dims] += float32(r)
	}
	return normalizeVector(vec)
}

func (m *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return nil, fmt.Errorf("backend down")
	}
	m.embedCalls++
	return m.vectorFor(text), nil
}

func (m *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return nil, fmt.Errorf("backend down")
	}
	m.batchCalls++
	m.lastBatch = append([]string(nil), texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *countingEmbedder) Dimensions() int                { return m.dims }
func (m *countingEmbedder) ModelName() string              { return m.model }
func (m *countingEmbedder) Available(context.Context) bool { return !m.closed }
func (m *countingEmbedder) Close() error                   { m.closed = true; return nil }

func TestCachedEmbedder_EmbedCachesRepeats(t *testing.T) {
	inner := newCountingEmbedder()
	cached := NewCachedEmbedder(inner, 16)

	first, err := cached.Embed(context.Background(), "dental treatment")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "dental treatment")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.embedCalls)

	_, err = cached.Embed(context.Background(), "waiting period")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.embedCalls)
}

func TestCachedEmbedder_BatchEmbedsOnlyMisses(t *testing.T) {
	inner := newCountingEmbedder()
	cached := NewCachedEmbedder(inner, 16)

	_, err := cached.EmbedBatch(context.Background(), []string{"premium", "renewal"})
	require.NoError(t, err)
	require.Equal(t, 1, inner.batchCalls)

	results, err := cached.EmbedBatch(context.Background(), []string{"premium", "renewal", "cancellation"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 2, inner.batchCalls)
	assert.Equal(t, []string{"cancellation"}, inner.lastBatch)
	for _, vec := range results {
		assert.NotNil(t, vec)
	}
}

func TestCachedEmbedder_FullHitSkipsBackend(t *testing.T) {
	inner := newCountingEmbedder()
	cached := NewCachedEmbedder(inner, 16)

	texts := []string{"deductible", "co-payment"}
	_, err := cached.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	_, err = cached.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.batchCalls)
}

func TestCachedEmbedder_EmptyBatch(t *testing.T) {
	inner := newCountingEmbedder()
	cached := NewCachedEmbedder(inner, 16)

	results, err := cached.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, inner.batchCalls)
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	inner := newCountingEmbedder()
	inner.failNext = true
	cached := NewCachedEmbedder(inner, 16)

	_, err := cached.Embed(context.Background(), "exclusions")
	require.Error(t, err)

	vec, err := cached.Embed(context.Background(), "exclusions")
	require.NoError(t, err)
	assert.NotNil(t, vec)
	assert.Equal(t, 1, inner.embedCalls)
}

func TestCachedEmbedder_KeyIncludesModelName(t *testing.T) {
	a := NewCachedEmbedder(&countingEmbedder{model: "model-a", dims: 4}, 16)
	b := NewCachedEmbedder(&countingEmbedder{model: "model-b", dims: 4}, 16)

	assert.NotEqual(t, a.cacheKey("same text"), b.cacheKey("same text"))
	assert.Equal(t, a.cacheKey("same text"), a.cacheKey("same text"))
}

func TestCachedEmbedder_Passthroughs(t *testing.T) {
	inner := newCountingEmbedder()
	cached := NewCachedEmbedder(inner, 0) // 0 falls back to the default size

	assert.Equal(t, inner.dims, cached.Dimensions())
	assert.Equal(t, inner.model, cached.ModelName())
	assert.True(t, cached.Available(context.Background()))
	assert.Same(t, inner, cached.Inner())

	require.NoError(t, cached.Close())
	assert.True(t, inner.closed)
	assert.False(t, cached.Available(context.Background()))
}
