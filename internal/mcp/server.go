// Package mcp exposes clause retrieval to AI agents over the Model
// Context Protocol. Tools return the same evidence the HTTP API
// serves, so an agent can quote policy clauses when reasoning about a
// claim.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/ingest"
	"github.com/polisearch/polisearch/internal/store"
	"github.com/polisearch/polisearch/pkg/version"
)

// DefaultLimit caps search results when the agent does not ask for a
// specific count.
const DefaultLimit = 5

// Server bridges MCP clients with the retrieval engine.
type Server struct {
	mcp      *mcp.Server
	engine   *engine.Engine
	registry *engine.Registry
	docs     *store.DocumentStore
	ingestor *ingest.Ingestor
	logger   *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(eng *engine.Engine, registry *engine.Registry, docs *store.DocumentStore, ingestor *ingest.Ingestor, logger *slog.Logger) (*Server, error) {
	if eng == nil || registry == nil || docs == nil || ingestor == nil {
		return nil, errors.New("mcp server requires engine, registry, document store, and ingestor")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:   eng,
		registry: registry,
		docs:     docs,
		ingestor: ingestor,
		logger:   logger.With(slog.String("component", "mcp")),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "polisearch",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// registerTools registers the clause retrieval tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search_clauses",
		Description: "Find the policy clauses most relevant to a claim query. " +
			"Returns ranked clause evidence with titles, page numbers, and similarity scores. " +
			"Use the returned clause text to justify coverage determinations.",
	}, s.handleSearchClauses)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_documents",
		Description: "List the processed policy documents available for clause search, " +
			"newest first, with their page and clause counts.",
	}, s.handleListDocuments)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_clause",
		Description: "Fetch one clause's full title and body by document and clause ID, " +
			"for quoting a complete clause after a search.",
	}, s.handleGetClause)

	s.logger.Debug("mcp tools registered", slog.Int("count", 3))
}

// Serve runs the server over stdio until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp server stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp server stopped")
	return nil
}

// resolveIndex returns the served index for a document, defaulting to
// the most recently stored document when docID is empty.
func (s *Server) resolveIndex(ctx context.Context, docID string) (string, *engine.Index, error) {
	if docID == "" {
		if id, idx, ok := s.registry.Latest(); ok {
			return id, idx, nil
		}
		doc, err := s.docs.Latest(ctx)
		if err != nil {
			return "", nil, err
		}
		docID = doc.ID
	}

	if idx, ok := s.registry.Get(docID); ok {
		return docID, idx, nil
	}
	idx, err := s.ingestor.Load(ctx, docID)
	if err != nil {
		return "", nil, err
	}
	s.registry.Put(docID, idx)
	return docID, idx, nil
}
