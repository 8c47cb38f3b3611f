package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: `Serve clause search tools over the Model Context Protocol.

The server speaks MCP on stdin/stdout for AI assistant integration,
so logs go to the log file only. Exposes search_clauses,
list_documents, and get_clause tools over the processed corpus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Quiet logging: stdout carries the protocol.
			st, err := openStack(true)
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := mcp.NewServer(st.engine, engine.NewRegistry(), st.docs, st.ingestor, st.logger)
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
	return cmd
}
