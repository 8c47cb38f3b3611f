package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexText_JoinsTitleAndBody(t *testing.T) {
	c := &Clause{Title: "1. Coverage", Body: "Dental treatment is covered."}
	assert.Equal(t, "1. Coverage: Dental treatment is covered.", c.IndexText())
}

func TestIndexText_MissingParts(t *testing.T) {
	assert.Equal(t, "body only", (&Clause{Body: "body only"}).IndexText())
	assert.Equal(t, "Exclusions", (&Clause{Title: "Exclusions"}).IndexText())
	assert.Equal(t, "", (&Clause{}).IndexText())
}

func TestStore_AppendAssignsSequentialIDs(t *testing.T) {
	s := NewStore()

	first, ok := s.Append("1. Coverage", "Dental treatment is covered.", 1)
	require.True(t, ok)
	second, ok := s.Append("2. Exclusions", "Pre-existing conditions excluded.", 1)
	require.True(t, ok)

	assert.Equal(t, 0, first.ID)
	assert.Equal(t, 1, second.ID)
	assert.Equal(t, 2, s.Count())
}

func TestStore_RejectsDuplicateTriple(t *testing.T) {
	s := NewStore()

	_, ok := s.Append("Definitions", "Hospital means an institution.", 3)
	require.True(t, ok)

	// Same page, title and body is a duplicate.
	_, ok = s.Append("Definitions", "Hospital means an institution.", 3)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Count())

	// Same text on a different page is a new clause.
	c, ok := s.Append("Definitions", "Hospital means an institution.", 4)
	require.True(t, ok)
	assert.Equal(t, 1, c.ID)
}

func TestStore_GetBoundsChecked(t *testing.T) {
	s := NewStore()
	s.Append("Coverage", "Covered.", 1)

	got, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "Coverage", got.Title)

	_, ok = s.Get(1)
	assert.False(t, ok)
	_, ok = s.Get(-1)
	assert.False(t, ok)
}

func TestStore_AllReturnsCopyInOrder(t *testing.T) {
	s := NewStore()
	s.Append("A", "first", 1)
	s.Append("B", "second", 2)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Title)
	assert.Equal(t, "B", all[1].Title)

	// Mutating the returned slice must not disturb the store.
	all[0] = nil
	got, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "A", got.Title)
}

func TestStore_EmptyStore(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.All())
}
