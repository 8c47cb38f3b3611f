package embed

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// TFIDFModelName identifies the lexical fallback backend.
const TFIDFModelName = "tfidf"

// tfidfTokenPattern extracts word tokens, keeping internal apostrophes.
var tfidfTokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// tfidfStopwords are dropped before counting term frequencies.
var tfidfStopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again",
		"further", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out",
		"off", "own", "same", "too", "very", "can", "will", "just",
		"don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// TFIDFEmbedder is the lexical fallback vectorizer. EmbedBatch builds a
// vocabulary and smoothed IDF weights from the corpus; Embed projects a
// query onto that vocabulary, so query terms unseen in the corpus
// contribute zero weight. One instance serves one document index.
type TFIDFEmbedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	dims       int
	prepared   bool
	closed     bool
}

var _ Embedder = (*TFIDFEmbedder)(nil)

// NewTFIDFEmbedder creates an unprepared TF-IDF embedder.
func NewTFIDFEmbedder() *TFIDFEmbedder {
	return &TFIDFEmbedder{vocabulary: make(map[string]int)}
}

// EmbedBatch builds the vocabulary from the corpus and returns one
// vector per text. An empty corpus yields an empty result; a corpus
// with no indexable terms at all is an error.
func (e *TFIDFEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	// Document frequencies, counting each term once per text.
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return nil, fmt.Errorf("no indexable terms in corpus")
	}

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF keeps terms present in every text from zeroing out.
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dims = len(terms)
	e.prepared = true

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vectorize(text)
	}
	return vectors, nil
}

// State returns the fitted vocabulary and IDF weights for
// persistence. Nil until EmbedBatch has run.
func (e *TFIDFEmbedder) State() (map[string]int, []float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.prepared {
		return nil, nil
	}
	vocab := make(map[string]int, len(e.vocabulary))
	for term, idx := range e.vocabulary {
		vocab[term] = idx
	}
	idf := make([]float64, len(e.idf))
	copy(idf, e.idf)
	return vocab, idf
}

// NewTFIDFEmbedderFromState restores an embedder from persisted
// vocabulary state, making stored sparse indexes queryable without
// refitting the corpus.
func NewTFIDFEmbedderFromState(vocabulary map[string]int, idf []float64) *TFIDFEmbedder {
	e := NewTFIDFEmbedder()
	if len(vocabulary) == 0 || len(vocabulary) != len(idf) {
		return e
	}
	e.vocabulary = make(map[string]int, len(vocabulary))
	for term, idx := range vocabulary {
		e.vocabulary[term] = idx
	}
	e.idf = make([]float64, len(idf))
	copy(e.idf, idf)
	e.dims = len(idf)
	e.prepared = true
	return e
}

// Embed projects a query onto the corpus vocabulary.
func (e *TFIDFEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	if !e.prepared {
		return nil, fmt.Errorf("tfidf vocabulary not built")
	}
	return e.vectorize(text), nil
}

// vectorize computes a normalized TF-IDF vector. Callers hold e.mu.
func (e *TFIDFEmbedder) vectorize(text string) []float32 {
	weights := make([]float64, e.dims)

	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return make([]float32, e.dims)
	}

	for idx, count := range tf {
		weights[idx] = float64(count) / float64(total) * e.idf[idx]
	}

	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dims)
	for i, w := range weights {
		if norm > 0 {
			vec[i] = float32(w / norm)
		}
	}
	return vec
}

// tokenize lower-cases, extracts word tokens and drops stopwords.
func tokenize(text string) []string {
	raw := tfidfTokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, stop := tfidfStopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Dimensions returns the vocabulary size, 0 until EmbedBatch runs.
func (e *TFIDFEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier.
func (e *TFIDFEmbedder) ModelName() string {
	return TFIDFModelName
}

// Available always reports true; the fallback needs no external service.
func (e *TFIDFEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *TFIDFEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
