package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTFIDFEmbedder_BatchBuildsVocabulary(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	corpus := []string{
		"Dental treatment is covered up to Rs 50000 per year.",
		"Pre-existing conditions are excluded from coverage.",
	}

	vectors, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	assert.Positive(t, e.Dimensions())
	for _, vec := range vectors {
		assert.Len(t, vec, e.Dimensions())
		assert.InDelta(t, 1.0, vectorMagnitude(vec), 1e-6)
	}
}

func TestTFIDFEmbedder_QueryMatchesRelevantText(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	corpus := []string{
		"Coverage: Dental treatment is covered up to Rs 50000 per year.",
		"Exclusions: Pre-existing conditions excluded.",
	}
	vectors, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)

	query, err := e.Embed(context.Background(), "Is dental treatment covered?")
	require.NoError(t, err)

	assert.Greater(t, cosineSimilarity(query, vectors[0]), cosineSimilarity(query, vectors[1]))
}

func TestTFIDFEmbedder_EmbedBeforeBatchFails(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	_, err := e.Embed(context.Background(), "dental treatment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vocabulary not built")
}

func TestTFIDFEmbedder_UnknownTermsYieldZeroVector(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	_, err := e.EmbedBatch(context.Background(), []string{
		"Dental treatment is covered.",
		"Hospitalization expenses are reimbursed.",
	})
	require.NoError(t, err)

	query, err := e.Embed(context.Background(), "quantum entanglement")
	require.NoError(t, err)
	assert.Len(t, query, e.Dimensions())
	assert.Zero(t, vectorMagnitude(query))
}

func TestTFIDFEmbedder_EmptyCorpus(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	vectors, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestTFIDFEmbedder_CorpusWithoutTermsFails(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	tests := []struct {
		name   string
		corpus []string
	}{
		{"all empty", []string{"", "   "}},
		{"punctuation only", []string{"... !!! 123"}},
		{"stopwords only", []string{"the and of", "is are was"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EmbedBatch(context.Background(), tt.corpus)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no indexable terms")
		})
	}
}

func TestTFIDFEmbedder_EmptyTextInCorpusGetsZeroVector(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	vectors, err := e.EmbedBatch(context.Background(), []string{
		"Premium payment is due annually.",
		"",
		"Claims must be filed within thirty days.",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Positive(t, vectorMagnitude(vectors[0]))
	assert.Zero(t, vectorMagnitude(vectors[1]))
	assert.Len(t, vectors[1], e.Dimensions())
	assert.Positive(t, vectorMagnitude(vectors[2]))
}

func TestTFIDFEmbedder_RebuildIsDeterministic(t *testing.T) {
	corpus := []string{
		"Dental treatment is covered up to Rs 50000 per year.",
		"Pre-existing conditions are excluded.",
		"The free look period lasts fifteen days.",
	}

	first := NewTFIDFEmbedder()
	defer func() { _ = first.Close() }()
	second := NewTFIDFEmbedder()
	defer func() { _ = second.Close() }()

	vecsA, err := first.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	vecsB, err := second.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)

	require.Equal(t, first.Dimensions(), second.Dimensions())
	for i := range vecsA {
		assert.Equal(t, vecsA[i], vecsB[i])
	}

	queryA, err := first.Embed(context.Background(), "dental coverage")
	require.NoError(t, err)
	queryB, err := second.Embed(context.Background(), "dental coverage")
	require.NoError(t, err)
	assert.Equal(t, queryA, queryB)
}

func TestTFIDFEmbedder_SelfSimilarityIsHighest(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	corpus := []string{
		"Grievance redressal procedures are described in annexure two.",
		"Sum insured restoration applies once per policy year.",
		"Co-payment of ten percent applies to senior citizens.",
	}
	vectors, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)

	for i, text := range corpus {
		query, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		for j := range vectors {
			if i == j {
				assert.InDelta(t, 1.0, cosineSimilarity(query, vectors[i]), 1e-6)
			} else {
				assert.LessOrEqual(t, cosineSimilarity(query, vectors[j]), cosineSimilarity(query, vectors[i]))
			}
		}
	}
}

func TestTFIDFEmbedder_ClosedFails(t *testing.T) {
	e := NewTFIDFEmbedder()
	_, err := e.EmbedBatch(context.Background(), []string{"dental treatment"})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.False(t, e.Available(context.Background()))

	_, err = e.Embed(context.Background(), "dental")
	require.Error(t, err)
	_, err = e.EmbedBatch(context.Background(), []string{"dental"})
	require.Error(t, err)
}

func TestTFIDFEmbedder_ModelName(t *testing.T) {
	e := NewTFIDFEmbedder()
	defer func() { _ = e.Close() }()

	assert.Equal(t, TFIDFModelName, e.ModelName())
	assert.True(t, e.Available(context.Background()))
	assert.Zero(t, e.Dimensions())
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and splits", "Dental Treatment", []string{"dental", "treatment"}},
		{"drops stopwords", "the scope of cover", []string{"scope", "cover"}},
		{"keeps apostrophes", "the insurer's liability", []string{"insurer's", "liability"}},
		{"drops digits and punctuation", "Rs 50000 per year!", []string{"rs", "per", "year"}},
		{"empty", "", nil},
		{"hyphen splits", "pre-existing", []string{"pre", "existing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.text))
		})
	}
}
