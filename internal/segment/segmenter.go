// Package segment splits normalized policy text into titled clauses
// using an ordered table of heading rules.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/polisearch/polisearch/internal/clause"
)

// Default classification thresholds, shared with the config layer.
const (
	DefaultMaxHeadingRunes = 80
	DefaultAllCapsMaxWords = 6
)

// Segmenter partitions per-page text into clauses. Runs of lines
// between two headings become one clause body; a clause keeps
// accumulating across page boundaries until the next heading, and its
// page is the page of its opening heading.
type Segmenter struct {
	maxHeadingRunes int
	allCapsMaxWords int
	minBodyRunes    int
	classifier      *Classifier
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithMaxHeadingRunes sets the length above which a line is never a heading.
func WithMaxHeadingRunes(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.maxHeadingRunes = n
		}
	}
}

// WithAllCapsMaxWords sets the word limit for the all-caps heading rule.
func WithAllCapsMaxWords(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.allCapsMaxWords = n
		}
	}
}

// WithMinBodyRunes drops clauses whose body is shorter than n runes.
// If the filter would drop every clause of a document, all clauses are
// kept instead so a non-empty document always yields at least one.
func WithMinBodyRunes(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.minBodyRunes = n
		}
	}
}

// New creates a Segmenter.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		maxHeadingRunes: DefaultMaxHeadingRunes,
		allCapsMaxWords: DefaultAllCapsMaxWords,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.classifier = NewClassifier(s.maxHeadingRunes, s.allCapsMaxWords)
	return s
}

// candidate is a clause before ID assignment and length filtering.
type candidate struct {
	title string
	body  string
	page  int
}

// Segment splits the given pages into an ordered clause store. Pages
// are expected to be normalized already; blank lines and blank pages
// are skipped. Text before the first heading becomes its own clause
// with a synthesized title.
func (s *Segmenter) Segment(pages []clause.Page) *clause.Store {
	var (
		candidates []candidate
		title      string
		body       []string
		openPage   int
	)

	emit := func() {
		text := strings.Join(body, " ")
		if title == "" {
			if text == "" {
				return
			}
			title = fmt.Sprintf("Section %d", len(candidates)+1)
		}
		candidates = append(candidates, candidate{title: title, body: text, page: openPage})
	}

	for _, page := range pages {
		for _, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, heading := s.classifier.Classify(line); heading {
				emit()
				title = line
				body = nil
				openPage = page.Number
				continue
			}
			if title == "" && len(body) == 0 {
				openPage = page.Number
			}
			body = append(body, line)
		}
	}
	emit()

	store := clause.NewStore()
	for _, c := range s.filter(candidates) {
		store.Append(c.title, c.body, c.page)
	}
	return store
}

// filter applies the minimum body length, keeping everything when the
// filter would leave nothing.
func (s *Segmenter) filter(candidates []candidate) []candidate {
	if s.minBodyRunes <= 0 {
		return candidates
	}
	kept := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if utf8.RuneCountInString(c.body) >= s.minBodyRunes {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}
