package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/analyze"
	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/output"
)

// askOptions holds CLI flags for ask.
type askOptions struct {
	doc    string
	topK   int
	format string
}

func newAskCmd() *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Get a coverage decision for a claim question",
		Long: `Retrieve the clauses relevant to a claim question and ask the
configured reasoning service for a coverage decision.

The decision cites the retrieved clauses it relied on. Requires an API
key in the environment variable named by analyzer.api_key_env.

Examples:
  polisearch ask "46M, knee surgery in Pune, 3-month-old policy"
  polisearch ask "is cataract surgery covered in year one" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.doc, "doc", "", "Document ID (default: most recently processed)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Number of evidence clauses (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, question string, opts askOptions) error {
	st, err := openStack(false)
	if err != nil {
		return err
	}
	defer st.Close()

	analyzer, err := newAnalyzer(st.cfg)
	if err != nil {
		return err
	}

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

	evidence, err := st.engine.Retrieve(ctx, idx, question, k)
	if err != nil {
		return err
	}

	decision, err := analyzer.Analyze(ctx, question, evidence)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Question string            `json:"question"`
			Document string            `json:"document_id"`
			Decision *analyze.Decision `json:"decision"`
		}{question, doc.ID, decision})
	}

	out := output.New(cmd.OutOrStdout())
	out.Header(fmt.Sprintf("Decision: %s", decision.Decision))
	if decision.Amount != "" {
		out.Field("Amount", decision.Amount)
	}
	out.Field("Document", doc.Name)
	out.Newline()
	out.Status("", decision.Justification)

	if len(decision.References) > 0 {
		out.Newline()
		out.Header("Referenced clauses")
		for _, id := range decision.References {
			for _, e := range evidence {
				if e.ClauseID == id && e.Clause != nil {
					out.Statusf("", "%d. %s (p.%d)", id, e.Clause.Title, e.Clause.Page)
				}
			}
		}
	}
	return nil
}

// newAnalyzer builds the reasoning client from config and environment.
func newAnalyzer(cfg *config.Config) (*analyze.Analyzer, error) {
	acfg := analyze.DefaultConfig()
	acfg.BaseURL = cfg.Analyzer.BaseURL
	acfg.Model = cfg.Analyzer.Model
	acfg.APIKey = os.Getenv(cfg.Analyzer.APIKeyEnv)
	acfg.Timeout = config.Duration(cfg.Analyzer.Timeout, acfg.Timeout)
	acfg.MaxEvidence = cfg.Analyzer.MaxEvidence
	if acfg.APIKey == "" {
		return nil, fmt.Errorf("no analyzer API key: set %s", cfg.Analyzer.APIKeyEnv)
	}
	return analyze.New(acfg, nil)
}
