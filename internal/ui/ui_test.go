package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_StringAndIcon(t *testing.T) {
	assert.Equal(t, "Segmenting", StageSegmenting.String())
	assert.Equal(t, "SEG", StageSegmenting.Icon())
	assert.Equal(t, "Embedding", StageEmbedding.String())
	assert.Equal(t, "DONE", StageComplete.Icon())
}

func TestNewRenderer_BufferGetsPlain(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(NewConfig(buf))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok, "non-TTY output should select the plain renderer")
}

func TestNewRenderer_ForcePlain(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(NewConfig(buf, WithForcePlain(true)))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestPlainRenderer_PrintsStageLines(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	require.NoError(t, r.Start(context.Background()))

	r.UpdateProgress(ProgressEvent{Stage: StageSegmenting, Message: "3 pages"})
	r.UpdateProgress(ProgressEvent{Stage: StageEmbedding, Current: 5, Total: 10, Message: "clauses"})

	output := buf.String()
	assert.Contains(t, output, "[SEG] 3 pages")
	assert.Contains(t, output, "[EMBED] 5/10 clauses")
	require.NoError(t, r.Stop())
}

func TestPlainRenderer_SkipsDuplicateLines(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	event := ProgressEvent{Stage: StageEmbedding, Current: 5, Total: 10, Message: "clauses"}
	r.UpdateProgress(event)
	r.UpdateProgress(event)

	assert.Equal(t, 1, strings.Count(buf.String(), "[EMBED]"))
}

func TestPlainRenderer_CompleteSummarizes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(CompletionStats{
		Document: "health-policy",
		Pages:    4,
		Clauses:  22,
		Backend:  "tfidf",
		Duration: 120 * time.Millisecond,
	})

	output := buf.String()
	assert.Contains(t, output, "health-policy")
	assert.Contains(t, output, "22 clauses")
	assert.Contains(t, output, "backend=tfidf")
}

func TestPlainRenderer_CompleteReportsReuse(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(CompletionStats{Document: "health-policy", Clauses: 22, Backend: "tfidf", Reused: true})

	assert.Contains(t, buf.String(), "unchanged")
}

func TestIngestModel_ViewShowsStageProgression(t *testing.T) {
	m := newIngestModel()
	m.styles = NoColorStyles()

	m.stage = StageEmbedding
	m.current = 3
	m.total = 10
	m.message = "batch 1/4"

	view := m.View()
	assert.Contains(t, view, "✓ Normalizing")
	assert.Contains(t, view, "✓ Segmenting")
	assert.Contains(t, view, "Embedding")
	assert.Contains(t, view, "· Indexing")
	assert.Contains(t, view, "batch 1/4")
}

func TestIngestModel_CompleteRendersSummary(t *testing.T) {
	m := newIngestModel()
	m.styles = NoColorStyles()

	updated, cmd := m.Update(completeMsg{Clauses: 12, Pages: 2, Backend: "ollama", Duration: time.Second})
	require.NotNil(t, cmd, "complete should quit the program")

	view := updated.(*ingestModel).View()
	assert.Contains(t, view, "12 clauses")
	assert.Contains(t, view, "ollama")
}

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	_, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))
	assert.Error(t, err)
}
