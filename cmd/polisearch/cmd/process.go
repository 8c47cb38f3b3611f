package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/ingest"
	"github.com/polisearch/polisearch/internal/output"
	"github.com/polisearch/polisearch/internal/ui"
)

// processOptions holds CLI flags for process.
type processOptions struct {
	name     string
	provider string
	plain    bool
	noColor  bool
}

func newProcessCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Segment and index policy documents",
		Long: `Process one or more policy text files into searchable clauses.

Form feeds (\f) in a file separate pages, the convention PDF text
extractors emit; a file without form feeds is treated as one page.
Re-processing an unchanged file reuses the stored document.

Examples:
  polisearch process policy.txt
  polisearch process --name "Easy Health" policy.txt
  polisearch process --provider tfidf *.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.name != "" && len(args) > 1 {
				return fmt.Errorf("--name applies to a single file, got %d", len(args))
			}
			return runProcess(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Document name (default: file base name)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Embedding backend: auto, ollama, gemini, tfidf")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain line output (no interactive UI)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runProcess(ctx context.Context, cmd *cobra.Command, files []string, opts processOptions) error {
	st, err := openStack(false, func(cfg *config.Config) {
		if opts.provider != "" {
			cfg.Embeddings.Provider = opts.provider
		}
	})
	if err != nil {
		return err
	}
	defer st.Close()

	out := output.New(cmd.OutOrStdout())

	for _, file := range files {
		if err := processOne(ctx, cmd, st, out, file, opts); err != nil {
			return err
		}
	}
	return nil
}

func processOne(ctx context.Context, cmd *cobra.Command, st *stack, out *output.Writer, file string, opts processOptions) error {
	pages, name, err := readPolicyFile(file)
	if err != nil {
		return err
	}
	if opts.name != "" {
		name = opts.name
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(opts.noColor)))
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	st.ingestor.OnProgress = func(stage string, current, total int, message string) {
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   pipelineStage(stage),
			Current: current,
			Total:   total,
			Message: message,
		})
	}
	defer func() { st.ingestor.OnProgress = nil }()

	started := time.Now()
	res, err := st.ingestor.Pages(ctx, name, pages)
	if err != nil {
		_ = renderer.Stop()
		return err
	}
	defer res.Index.Close()

	renderer.Complete(ui.CompletionStats{
		Document: res.Document.Name,
		Pages:    res.Document.Pages,
		Clauses:  len(res.Clauses),
		Backend:  res.Index.Backend(),
		Model:    res.Index.Model(),
		Duration: time.Since(started),
		Reused:   res.Reused,
	})
	_ = renderer.Stop()

	if res.Reused {
		out.Successf("%s unchanged, reusing stored document", res.Document.Name)
	} else {
		out.Successf("%s: %d clauses from %d pages", res.Document.Name, len(res.Clauses), res.Document.Pages)
	}
	out.Field("Document", res.Document.ID)
	out.Field("Backend", res.Index.Backend())
	return nil
}

// readPolicyFile reads a policy text file and splits it into pages.
func readPolicyFile(path string) ([]clause.Page, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.New(errors.ErrCodeFileNotFound,
				fmt.Sprintf("file %s does not exist", path), err)
		}
		return nil, "", errors.New(errors.ErrCodeFileUnreadable,
			fmt.Sprintf("read %s", path), err)
	}
	return ingest.SplitPages(string(data)), filepath.Base(path), nil
}

func pipelineStage(stage string) ui.Stage {
	switch stage {
	case "segment":
		return ui.StageSegmenting
	case "index":
		return ui.StageEmbedding
	case "persist":
		return ui.StagePersisting
	default:
		return ui.StageNormalizing
	}
}
