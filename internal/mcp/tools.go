package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchClausesInput is the input schema for the search_clauses tool.
type SearchClausesInput struct {
	Query      string `json:"query" jsonschema:"the claim query to search clauses for"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"document to search; defaults to the most recent document"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of clauses to return, default 5"`
}

// SearchClausesOutput is the output schema for the search_clauses tool.
type SearchClausesOutput struct {
	DocumentID string         `json:"document_id" jsonschema:"document the results came from"`
	Results    []ClauseResult `json:"results" jsonschema:"ranked clause evidence"`
}

// ClauseResult is one ranked clause hit.
type ClauseResult struct {
	ClauseID int     `json:"clause_id" jsonschema:"clause identifier within the document"`
	Title    string  `json:"title" jsonschema:"clause heading"`
	Body     string  `json:"body" jsonschema:"clause text"`
	Page     int     `json:"page" jsonschema:"1-based page where the clause begins"`
	Score    float64 `json:"score" jsonschema:"cosine similarity, higher is more relevant"`
	Rank     int     `json:"rank" jsonschema:"0-based rank in descending score order"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents" jsonschema:"stored policy documents, newest first"`
}

// DocumentInfo describes one stored document.
type DocumentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Pages       int    `json:"pages"`
	ClauseCount int    `json:"clause_count"`
	Backend     string `json:"backend" jsonschema:"vectorizer backend the document was indexed with"`
	CreatedAt   string `json:"created_at"`
}

// GetClauseInput is the input schema for get_clause.
type GetClauseInput struct {
	DocumentID string `json:"document_id" jsonschema:"document holding the clause"`
	ClauseID   int    `json:"clause_id" jsonschema:"clause identifier from a search result"`
}

// GetClauseOutput is the output schema for get_clause.
type GetClauseOutput struct {
	Clause ClauseResult `json:"clause" jsonschema:"the full clause"`
}

func (s *Server) handleSearchClauses(ctx context.Context, req *mcp.CallToolRequest, input SearchClausesInput) (
	*mcp.CallToolResult,
	SearchClausesOutput,
	error,
) {
	if input.Query == "" {
		return nil, SearchClausesOutput{}, fmt.Errorf("query parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	docID, idx, err := s.resolveIndex(ctx, input.DocumentID)
	if err != nil {
		return nil, SearchClausesOutput{}, err
	}

	results, err := s.engine.Retrieve(ctx, idx, input.Query, limit)
	if err != nil {
		return nil, SearchClausesOutput{}, err
	}

	out := SearchClausesOutput{
		DocumentID: docID,
		Results:    make([]ClauseResult, 0, len(results)),
	}
	for _, r := range results {
		if r.Clause == nil {
			continue
		}
		out.Results = append(out.Results, ClauseResult{
			ClauseID: r.ClauseID,
			Title:    r.Clause.Title,
			Body:     r.Clause.Body,
			Page:     r.Clause.Page,
			Score:    r.Score,
			Rank:     r.Rank,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListDocuments(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
	*mcp.CallToolResult,
	ListDocumentsOutput,
	error,
) {
	docs, err := s.docs.Documents(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	out := ListDocumentsOutput{Documents: make([]DocumentInfo, len(docs))}
	for i, doc := range docs {
		out.Documents[i] = DocumentInfo{
			ID:          doc.ID,
			Name:        doc.Name,
			Pages:       doc.Pages,
			ClauseCount: doc.ClauseCount,
			Backend:     doc.Backend,
			CreatedAt:   doc.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetClause(ctx context.Context, req *mcp.CallToolRequest, input GetClauseInput) (
	*mcp.CallToolResult,
	GetClauseOutput,
	error,
) {
	if input.DocumentID == "" {
		return nil, GetClauseOutput{}, fmt.Errorf("document_id parameter is required")
	}

	_, idx, err := s.resolveIndex(ctx, input.DocumentID)
	if err != nil {
		return nil, GetClauseOutput{}, err
	}

	c, ok := idx.Clause(input.ClauseID)
	if !ok {
		return nil, GetClauseOutput{}, fmt.Errorf("clause %d not found in document %s",
			input.ClauseID, input.DocumentID)
	}

	return nil, GetClauseOutput{Clause: ClauseResult{
		ClauseID: c.ID,
		Title:    c.Title,
		Body:     c.Body,
		Page:     c.Page,
	}}, nil
}
