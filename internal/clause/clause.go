// Package clause defines the structured unit of policy text produced by
// segmentation and the per-document collection that holds those units.
package clause

// Page is one page of extracted document text, as handed over by the
// PDF text layer. Numbering is 1-based.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Clause is a titled, page-referenced unit of policy text.
type Clause struct {
	ID    int    `json:"id"`    // Positional, assigned in discovery order
	Title string `json:"title"` // Detected heading, or a synthesized label
	Body  string `json:"body"`  // Text up to the next heading
	Page  int    `json:"page"`  // 1-based page where the clause began
}

// IndexText returns the text that is vectorized for this clause. The
// title is prepended so heading terms participate in matching.
func (c *Clause) IndexText() string {
	if c.Title == "" {
		return c.Body
	}
	if c.Body == "" {
		return c.Title
	}
	return c.Title + ": " + c.Body
}
