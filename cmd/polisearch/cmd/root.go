// Package cmd provides the CLI commands for polisearch.
package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/ingest"
	"github.com/polisearch/polisearch/internal/logging"
	"github.com/polisearch/polisearch/internal/store"
	"github.com/polisearch/polisearch/pkg/version"
)

// Persistent flags shared by every subcommand.
var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool
)

// NewRootCmd creates the root command for the polisearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polisearch",
		Short: "Clause-level search over insurance policy documents",
		Long: `Polisearch segments insurance policy text into titled clauses and
serves similarity search over them.

Documents are normalized, split into clauses at detected headings, and
vectorized with a local or hosted embedding backend (with a lexical
fallback that needs no network). Retrieval returns the clauses most
similar to a natural-language query, with scores and page references.

Typical flow:

  polisearch process policy.txt
  polisearch search "dental treatment waiting period"
  polisearch ask "46M, knee surgery in Pune, 3-month-old policy"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("polisearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file path (default polisearch.yaml)")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory override")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newDocumentsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprint(os.Stderr, cliError(err))
		return err
	}
	return nil
}

// cliError renders an error for stderr. Taxonomy errors carry their
// detail lines and code; plain errors get the bare prefix.
func cliError(err error) string {
	var perr *errors.PolicyError
	if stderrors.As(err, &perr) {
		return errors.FormatForCLI(err)
	}
	return fmt.Sprintf("Error: %s\n", err.Error())
}

// loadConfig loads configuration honoring the persistent flags.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.Storage.DataDir = flagDataDir
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// stack bundles the long-lived pieces a command needs: config, logger,
// document store, engine, and ingestor. Close releases them.
type stack struct {
	cfg      *config.Config
	logger   *slog.Logger
	docs     *store.DocumentStore
	engine   *engine.Engine
	ingestor *ingest.Ingestor

	logCleanup func()
}

func (s *stack) Close() {
	if s.docs != nil {
		_ = s.docs.Close()
	}
	if s.logCleanup != nil {
		s.logCleanup()
	}
}

// openStack loads config, sets up logging, and opens storage.
// quiet routes logs to the file only, keeping stdio clean. Mutators
// run on the loaded config before anything is constructed from it.
func openStack(quiet bool, mutate ...func(*config.Config)) (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	for _, m := range mutate {
		m(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.File,
		Quiet:    quiet,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	docs, err := store.OpenDocumentStore(cfg.Storage.DataDir)
	if err != nil {
		cleanup()
		return nil, err
	}

	eng := engine.New(cfg, logger)
	return &stack{
		cfg:        cfg,
		logger:     logger,
		docs:       docs,
		engine:     eng,
		ingestor:   ingest.New(eng, docs, cfg.Storage.DataDir, logger),
		logCleanup: cleanup,
	}, nil
}

// resolveDocument maps the --doc flag to a stored document. Empty or
// "latest" selects the most recently ingested one.
func resolveDocument(ctx context.Context, docs *store.DocumentStore, docFlag string) (store.Document, error) {
	if docFlag == "" || docFlag == "latest" {
		return docs.Latest(ctx)
	}
	return docs.Document(ctx, docFlag)
}
