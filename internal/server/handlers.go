package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polisearch/polisearch/internal/clause"
	"github.com/polisearch/polisearch/internal/engine"
	"github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/ingest"
	"github.com/polisearch/polisearch/internal/store"
)

// createDocumentRequest accepts either page-tagged text or a single
// text blob whose pages are separated by form feeds.
type createDocumentRequest struct {
	Name  string        `json:"name" binding:"required"`
	Pages []clause.Page `json:"pages,omitempty"`
	Text  string        `json:"text,omitempty"`
}

type documentResponse struct {
	Document store.Document   `json:"document"`
	Clauses  []*clause.Clause `json:"clauses,omitempty"`
	Reused   bool             `json:"reused,omitempty"`
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	K     int    `json:"k,omitempty"`
}

type searchResponse struct {
	DocumentID string          `json:"document_id"`
	Query      string          `json:"query"`
	Results    []engine.Result `json:"results"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": s.registry.Len()})
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.ValidationError("invalid request body", err))
		return
	}

	pages := req.Pages
	if len(pages) == 0 && req.Text != "" {
		pages = ingest.SplitPages(req.Text)
	}

	res, err := s.ingestor.Pages(c.Request.Context(), req.Name, pages)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// Swap the served handle; queries running against a previous
	// revision finish on their snapshot.
	s.registry.Put(res.Document.ID, res.Index)

	c.JSON(http.StatusCreated, documentResponse{
		Document: res.Document,
		Clauses:  res.Clauses,
		Reused:   res.Reused,
	})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.docs.Documents(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	doc, err := s.docs.Document(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	clauses, err := s.docs.Clauses(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentResponse{Document: doc, Clauses: clauses})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.ingestor.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.registry.Delete(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.ValidationError("invalid request body", err))
		return
	}

	id := c.Param("id")
	idx, err := s.serveIndex(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	k := req.K
	if k <= 0 {
		k = s.defaultK
	}
	results, err := s.engine.Retrieve(c.Request.Context(), idx, req.Query, k)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{DocumentID: id, Query: req.Query, Results: results})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	if s.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no analyzer configured: set the analyzer API key",
		})
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.ValidationError("invalid request body", err))
		return
	}

	id := c.Param("id")
	idx, err := s.serveIndex(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	k := req.K
	if k <= 0 {
		k = s.defaultK
	}
	ctx := c.Request.Context()
	results, err := s.engine.Retrieve(ctx, idx, req.Query, k)
	if err != nil {
		s.writeError(c, err)
		return
	}

	decision, err := s.analyzer.Analyze(ctx, req.Query, results)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id": id,
		"query":       req.Query,
		"decision":    decision,
		"evidence":    results,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.docs.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "served": s.registry.Len()})
}

// serveIndex returns the handle for a document, loading it from disk
// on first use after a restart.
func (s *Server) serveIndex(c *gin.Context, docID string) (*engine.Index, error) {
	if idx, ok := s.registry.Get(docID); ok {
		return idx, nil
	}
	idx, err := s.ingestor.Load(c.Request.Context(), docID)
	if err != nil {
		return nil, err
	}
	s.registry.Put(docID, idx)
	return idx, nil
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsInput(err), errors.GetCategory(err) == errors.CategoryValidation:
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsBackendUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		attrs := make([]any, 0, 16)
		for k, v := range errors.FormatForLog(err) {
			attrs = append(attrs, k, v)
		}
		s.logger.Error("request failed", attrs...)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
