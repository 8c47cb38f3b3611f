// Package store is the persistence layer: the in-memory cosine
// similarity index, its gob snapshot format, and the SQLite document
// and clause store.
package store

import "time"

// VectorResult is one similarity hit, ordered by descending score.
type VectorResult struct {
	ID    int
	Score float64
}

// Document is the persistence record for one processed policy
// document. ContentHash is the sha256 of the concatenated page text
// and is used to detect re-uploads of identical files.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	Pages       int       `json:"pages"`
	ClauseCount int       `json:"clause_count"`
	Backend     string    `json:"backend"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats summarizes the document store.
type Stats struct {
	Documents int            `json:"documents"`
	Clauses   int            `json:"clauses"`
	Backends  map[string]int `json:"backends"`
}
