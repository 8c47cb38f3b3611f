package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind tags which heading rule classified a line.
type Kind string

const (
	KindNumbered Kind = "numbered"
	KindAllCaps  Kind = "all-caps"
	KindKeyword  Kind = "keyword"
)

// numberedMarker matches section markers like "1.", "2)", "1.2", "1.2.3.",
// "A.", "(i)", "(a)", and "•", followed by heading text. Bare "-" is not a
// marker; policy documents use it for list items inside a clause body.
var numberedMarker = regexp.MustCompile(`^(\d{1,2}(\.\d+)+\.?|\d{1,2}[.)]|[A-Z][.)]|\([a-z0-9]{1,4}\)|•)\s+\S`)

// sentenceEnd matches trailing punctuation that marks prose, not a heading.
var sentenceEnd = regexp.MustCompile(`[.!?;,]$`)

// headingStopwords are words that cannot form a heading on their own.
var headingStopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"a": {}, "an": {}, "for": {}, "on": {}, "by": {}, "at": {},
	"is": {}, "are": {}, "as": {}, "be": {}, "with": {}, "from": {},
	"not": {}, "no": {},
}

// sectionKeywords are section labels common in health policy documents,
// matched as a whole line (rule 3).
var sectionKeywords = map[string]struct{}{
	"definitions": {}, "exclusions": {}, "coverage": {}, "benefits": {},
	"eligibility": {}, "claims": {}, "claim process": {}, "claim procedure": {},
	"premium": {}, "renewal": {}, "cancellation": {}, "termination": {},
	"waiting period": {}, "waiting periods": {}, "conditions": {},
	"general conditions": {}, "grievance redressal": {}, "grievances": {},
	"free look period": {}, "deductible": {}, "co-payment": {},
	"sum insured": {}, "schedule of benefits": {}, "annexure": {},
	"preamble": {}, "scope of cover": {},
}

type rule struct {
	kind  Kind
	match func(line string) bool
}

// Classifier decides whether a line is a section heading. Rules are
// checked in a fixed precedence order and the first match wins:
// numbered marker, then short all-caps line, then known section label.
type Classifier struct {
	maxHeadingRunes int
	allCapsMaxWords int
	rules           []rule
}

// NewClassifier builds a Classifier with the given thresholds. A line
// longer than maxHeadingRunes is never a heading; an all-caps line with
// more than allCapsMaxWords words is treated as shouted prose.
func NewClassifier(maxHeadingRunes, allCapsMaxWords int) *Classifier {
	c := &Classifier{
		maxHeadingRunes: maxHeadingRunes,
		allCapsMaxWords: allCapsMaxWords,
	}
	c.rules = []rule{
		{KindNumbered, c.matchNumbered},
		{KindAllCaps, c.matchAllCaps},
		{KindKeyword, c.matchKeyword},
	}
	return c
}

// Classify returns the kind of the first rule matching the line, or
// false when the line is body text.
func (c *Classifier) Classify(line string) (Kind, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	for _, r := range c.rules {
		if r.match(line) {
			return r.kind, true
		}
	}
	return "", false
}

func (c *Classifier) matchNumbered(line string) bool {
	if utf8.RuneCountInString(line) > c.maxHeadingRunes {
		return false
	}
	if sentenceEnd.MatchString(line) {
		return false
	}
	return numberedMarker.MatchString(line)
}

func (c *Classifier) matchAllCaps(line string) bool {
	if utf8.RuneCountInString(line) > c.maxHeadingRunes {
		return false
	}
	if sentenceEnd.MatchString(line) {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > c.allCapsMaxWords {
		return false
	}
	if strings.ToUpper(line) != line {
		return false
	}

	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, ".,:;()"))
		if _, stop := headingStopwords[w]; !stop && w != "" {
			return true
		}
	}
	return false
}

func (c *Classifier) matchKeyword(line string) bool {
	key := strings.ToLower(strings.TrimSpace(strings.TrimRight(line, ":")))
	_, ok := sectionKeywords[key]
	return ok
}
