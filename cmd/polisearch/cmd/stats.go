package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/output"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStack(false)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.docs.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			out := output.New(cmd.OutOrStdout())
			out.Header("Corpus")
			out.Field("Documents", fmt.Sprintf("%d", stats.Documents))
			out.Field("Clauses", fmt.Sprintf("%d", stats.Clauses))
			out.Field("Data dir", st.cfg.Storage.DataDir)

			if len(stats.Backends) > 0 {
				out.Newline()
				out.Header("Backends")
				names := make([]string, 0, len(stats.Backends))
				for name := range stats.Backends {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					out.Field(name, fmt.Sprintf("%d documents", stats.Backends[name]))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")
	return cmd
}
