package analyze

import (
	"fmt"
	"strings"

	"github.com/polisearch/polisearch/internal/engine"
)

const systemPrompt = `You are an insurance claims analyst. You are given a claim query and the
policy clauses most relevant to it. Decide whether the claim is covered based only on the
provided clauses. Respond with a single JSON object and nothing else, using this shape:
{"decision": "approved" | "rejected" | "needs_review", "amount": "<covered amount or empty>",
"justification": "<one or two sentences citing the clauses>", "references": [<clause ids>]}`

// buildUserPrompt renders the claim query and its clause evidence.
// Each clause line carries its ID, title, and page so the decision can
// reference them.
func buildUserPrompt(query string, evidence []engine.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Claim query: %s\n\nRelevant policy clauses:\n", query)
	if len(evidence) == 0 {
		b.WriteString("(no matching clauses were found in the policy)\n")
	}
	for _, r := range evidence {
		if r.Clause == nil {
			continue
		}
		fmt.Fprintf(&b, "Clause %d (%s, p.%d): %s\n",
			r.ClauseID, r.Clause.Title, r.Clause.Page, r.Clause.Body)
	}
	b.WriteString("\nAnswer with the JSON decision object only.")
	return b.String()
}
