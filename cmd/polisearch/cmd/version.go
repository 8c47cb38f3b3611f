package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var asJSON, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the build version, git commit, build date, and Go toolchain version.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout(), asJSON, short)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit build info as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "Emit only the bare version")

	return cmd
}

// printVersion writes one of the three version renderings. The short
// form wins when both flags are set.
func printVersion(w io.Writer, asJSON, short bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, version.Short())
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(version.GetInfo())
	default:
		_, err := fmt.Fprintln(w, version.String())
		return err
	}
}
