package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	doc    string
	topK   int
	format string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find policy clauses matching a query",
		Long: `Search a processed document for the clauses most similar to a query.

Results are ranked by cosine similarity and carry the clause title,
body, and originating page.

Examples:
  polisearch search "dental treatment waiting period"
  polisearch search "room rent limit" -k 3
  polisearch search "maternity" --doc 4f1d... --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.doc, "doc", "", "Document ID (default: most recently processed)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Number of clauses to return (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	st, err := openStack(false)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := resolveDocument(ctx, st.docs, opts.doc)
	if err != nil {
		return err
	}

	idx, err := st.ingestor.Load(ctx, doc.ID)
	if err != nil {
		return err
	}
	defer idx.Close()

	k := opts.topK
	if k <= 0 {
		k = st.cfg.Retrieval.TopK
	}

	results, err := st.engine.Retrieve(ctx, idx, query, k)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := output.New(cmd.OutOrStdout())
	printResults(out, doc.Name, query, results)
	return nil
}

func printResults(out *output.Writer, docName, query string, results []engine.Result) {
	if len(results) == 0 {
		out.Warningf("no clauses matched %q in %s", query, docName)
		return
	}

	out.Header(fmt.Sprintf("%s: %d clauses for %q", docName, len(results), query))
	out.Newline()
	for _, r := range results {
		out.Statusf("", "%d. [%.3f] %s (p.%d)", r.Rank+1, r.Score, r.Clause.Title, r.Clause.Page)
		out.Dim(snippet(r.Clause.Body, 240))
		out.Newline()
	}
}

// snippet shortens a clause body for terminal display.
func snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndex(s[:limit], " ")
	if cut <= 0 {
		cut = limit
	}
	return s[:cut] + "…"
}
