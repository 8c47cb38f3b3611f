package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisearch/polisearch/internal/clause"
)

func pagesOf(texts ...string) []clause.Page {
	pages := make([]clause.Page, len(texts))
	for i, text := range texts {
		pages[i] = clause.Page{Number: i + 1, Text: text}
	}
	return pages
}

func TestSegment_TwoNumberedSections(t *testing.T) {
	s := New()

	text := "1. Coverage\nDental treatment is covered up to Rs 50000 per year.\n2. Exclusions\nPre-existing conditions excluded."
	store := s.Segment(pagesOf(text))

	all := store.All()
	require.Len(t, all, 2)

	assert.Equal(t, 0, all[0].ID)
	assert.Equal(t, "1. Coverage", all[0].Title)
	assert.Equal(t, "Dental treatment is covered up to Rs 50000 per year.", all[0].Body)
	assert.Equal(t, 1, all[0].Page)

	assert.Equal(t, 1, all[1].ID)
	assert.Equal(t, "2. Exclusions", all[1].Title)
	assert.Equal(t, "Pre-existing conditions excluded.", all[1].Body)
	assert.Equal(t, 1, all[1].Page)
}

func TestSegment_BodiesPartitionTheText(t *testing.T) {
	s := New()

	pages := pagesOf(
		"Preamble text before any heading.\n1. Coverage\nHospitalization expenses are covered.\nDay care procedures are covered.",
		"Continuation of coverage terms on the next page.\nEXCLUSIONS\nCosmetic treatments are excluded.\nDental treatment unless due to accident.",
	)
	store := s.Segment(pages)

	var headings, bodies []string
	for _, c := range store.All() {
		bodies = append(bodies, c.Body)
	}
	headings = []string{"1. Coverage", "EXCLUSIONS"}

	// Every non-heading word of the input survives, in order.
	var want []string
	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			if line == "1. Coverage" || line == "EXCLUSIONS" {
				continue
			}
			want = append(want, strings.Fields(line)...)
		}
	}
	got := strings.Fields(strings.Join(bodies, " "))
	assert.Equal(t, want, got)
	assert.Len(t, headings, 2)
}

func TestSegment_NoHeadingsSynthesizesTitle(t *testing.T) {
	s := New()

	store := s.Segment(pagesOf("Plain paragraph without any heading lines.\nAnother sentence of the same paragraph."))

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Section 1", all[0].Title)
	assert.Equal(t, "Plain paragraph without any heading lines. Another sentence of the same paragraph.", all[0].Body)
	assert.Equal(t, 1, all[0].Page)
}

func TestSegment_PreambleBeforeFirstHeading(t *testing.T) {
	s := New()

	store := s.Segment(pagesOf("This policy is issued by the insurer.\n1. Coverage\nHospitalization is covered."))

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Section 1", all[0].Title)
	assert.Equal(t, "This policy is issued by the insurer.", all[0].Body)
	assert.Equal(t, "1. Coverage", all[1].Title)
}

func TestSegment_ClausesSpanPages(t *testing.T) {
	s := New()

	pages := pagesOf(
		"1. Coverage\nHospitalization expenses are covered.",
		"Ambulance charges are also covered.\n2. Exclusions\nCosmetic treatments.",
	)
	store := s.Segment(pages)

	all := store.All()
	require.Len(t, all, 2)

	assert.Equal(t, "Hospitalization expenses are covered. Ambulance charges are also covered.", all[0].Body)
	assert.Equal(t, 1, all[0].Page, "clause keeps the page of its opening heading")
	assert.Equal(t, 2, all[1].Page)
}

func TestSegment_EmptyInput(t *testing.T) {
	s := New()

	assert.Equal(t, 0, s.Segment(nil).Count())
	assert.Equal(t, 0, s.Segment([]clause.Page{}).Count())
	assert.Equal(t, 0, s.Segment(pagesOf("", "   \n  ")).Count())
}

func TestSegment_NonEmptyInputAlwaysYieldsAClause(t *testing.T) {
	s := New()

	store := s.Segment(pagesOf("### ---"))

	assert.Equal(t, 1, store.Count())
}

func TestSegment_HeadingWithoutBodyIsKept(t *testing.T) {
	s := New()

	store := s.Segment(pagesOf("1. Coverage\n2. Exclusions\nPre-existing conditions excluded."))

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "1. Coverage", all[0].Title)
	assert.Equal(t, "", all[0].Body)
	assert.Equal(t, "2. Exclusions", all[1].Title)
}

func TestSegment_MinBodyRunesDropsShortClauses(t *testing.T) {
	s := New(WithMinBodyRunes(30))

	text := "1. Coverage\nShort.\n2. Exclusions\nThis body is comfortably longer than thirty runes."
	store := s.Segment(pagesOf(text))

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "2. Exclusions", all[0].Title)
}

func TestSegment_MinBodyRunesKeepsAllWhenFilterWouldEmpty(t *testing.T) {
	s := New(WithMinBodyRunes(500))

	store := s.Segment(pagesOf("1. Coverage\nShort body.\n2. Exclusions\nAnother short body."))

	assert.Equal(t, 2, store.Count())
}

func TestSegment_DuplicateTextOnSamePageCollapses(t *testing.T) {
	s := New()

	pages := []clause.Page{
		{Number: 4, Text: "Exclusions\nCosmetic treatments are excluded."},
		{Number: 4, Text: "Exclusions\nCosmetic treatments are excluded."},
	}
	store := s.Segment(pages)

	assert.Equal(t, 1, store.Count())
}

func TestSegment_IDsFollowReadingOrder(t *testing.T) {
	s := New()

	pages := pagesOf(
		"1. Coverage\nBody one.",
		"2. Exclusions\nBody two.",
		"3. Claims\nBody three.",
	)
	store := s.Segment(pages)

	all := store.All()
	require.Len(t, all, 3)
	for i, c := range all {
		assert.Equal(t, i, c.ID)
		assert.Equal(t, i+1, c.Page)
	}
}
