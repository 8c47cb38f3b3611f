package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/output"
)

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage processed documents",
		Long: `List, inspect, and remove processed policy documents.

Examples:
  polisearch documents
  polisearch documents show 4f1d...
  polisearch documents rm 4f1d...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocumentsList(cmd.Context(), cmd, "text")
		},
	}

	cmd.AddCommand(newDocumentsListCmd())
	cmd.AddCommand(newDocumentsShowCmd())
	cmd.AddCommand(newDocumentsRmCmd())
	return cmd
}

func newDocumentsListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocumentsList(cmd.Context(), cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runDocumentsList(ctx context.Context, cmd *cobra.Command, format string) error {
	st, err := openStack(false)
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.docs.Documents(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	out := output.New(cmd.OutOrStdout())
	if len(docs) == 0 {
		out.Status("", "no documents processed yet, run 'polisearch process <file>'")
		return nil
	}

	for _, d := range docs {
		out.Statusf("", "%s  %-30s  %3d clauses  %s  %s",
			d.ID[:8], d.Name, d.ClauseCount, d.Backend,
			d.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func newDocumentsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show a document and its clauses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocumentsShow(cmd.Context(), cmd, args[0])
		},
	}
	return cmd
}

func runDocumentsShow(ctx context.Context, cmd *cobra.Command, docID string) error {
	st, err := openStack(false)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := st.docs.Document(ctx, docID)
	if err != nil {
		return err
	}
	clauses, err := st.docs.Clauses(ctx, doc.ID)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Header(doc.Name)
	out.Field("ID", doc.ID)
	out.Field("Pages", fmt.Sprintf("%d", doc.Pages))
	out.Field("Clauses", fmt.Sprintf("%d", doc.ClauseCount))
	out.Field("Backend", doc.Backend)
	out.Field("Processed", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	out.Newline()

	for _, c := range clauses {
		out.Statusf("", "%3d. %s (p.%d)", c.ID, c.Title, c.Page)
	}
	return nil
}

func newDocumentsRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Remove a document and its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocumentsRm(cmd.Context(), cmd, args[0])
		},
	}
	return cmd
}

func runDocumentsRm(ctx context.Context, cmd *cobra.Command, docID string) error {
	st, err := openStack(false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ingestor.Delete(ctx, docID); err != nil {
		return err
	}

	output.New(cmd.OutOrStdout()).Successf("removed document %s", docID)
	return nil
}
