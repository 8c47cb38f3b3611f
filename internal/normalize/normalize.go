// Package normalize cleans raw page text extracted from policy PDFs
// before segmentation. It collapses whitespace, strips control
// characters, rejoins words hyphenated across line breaks, and drops
// boilerplate lines (regulatory footers, page numbers).
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// hyphenBreak matches a word split across a line break, e.g. "cover-\nage".
// The continuation must start lower-case so hyphenated proper compounds
// keep their hyphen.
var hyphenBreak = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{Ll})`)

// pageMarker matches standalone page-number lines like "Page 3" or "3 of 12".
var pageMarker = regexp.MustCompile(`^(page\s*\d+|\d+\s*of\s*\d+)$`)

// boilerplateMarkers are substrings that identify regulatory headers and
// footers common in Indian insurance policy documents.
var boilerplateMarkers = []string{
	"uin:", "irda", "regn. no.", "reg. no.", "cin:", "gstin",
	"subject matter of solicitation", "trade logo", "corporate office",
	"registered office", "toll-free", "website:", "e-mail", ".com", ".in",
	"confidential", "internal use",
}

// Normalizer cleans extracted page text. The zero value keeps default
// behavior; use New with options to change it.
type Normalizer struct {
	keepBoilerplate bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithBoilerplate disables boilerplate filtering so headers, footers
// and page markers survive normalization.
func WithBoilerplate() Option {
	return func(n *Normalizer) { n.keepBoilerplate = true }
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize cleans one page of raw extracted text. Output lines are
// trimmed and joined by single newlines with no blank lines between
// them; whitespace runs inside a line collapse to one space. Empty or
// unusable input yields an empty string, never an error.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	text = stripControl(text)

	// Repeat until fixed point: a match consumes the continuation rune,
	// so back-to-back breaks need another pass.
	for hyphenBreak.MatchString(text) {
		text = hyphenBreak.ReplaceAllString(text, "$1$2")
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if !n.keepBoilerplate && IsBoilerplate(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// IsBoilerplate reports whether a line is junk rather than policy
// content: regulatory identifiers, contact footers, page markers.
func IsBoilerplate(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return true
	}
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return pageMarker.MatchString(lower)
}

// stripControl removes control characters, keeping newlines and tabs.
// Tabs are collapsed with other whitespace later.
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}
