// Package models defines data structures for the govqa document QA service.
package models

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Chunk is one retrieved unit of document text for a single turn.
// Immutable once returned by the retriever; ordered by descending similarity.
type Chunk struct {
	Text       string  `json:"text"`
	DocName    string  `json:"doc_name"`
	PageNo     int     `json:"page_no"`
	Similarity float64 `json:"similarity"`
}

// Citation returns the source reference for this chunk.
// Document and page only; the year label used in context blocks is separate.
func (c Chunk) Citation() string {
	return fmt.Sprintf("Document: %s, Page: %d", c.DocName, c.PageNo)
}

// ChunkRecord is the persisted form of a chunk in SurrealDB.
type ChunkRecord struct {
	ID        surrealmodels.RecordID `json:"id"`
	DocName   string                 `json:"doc_name"`
	PageNo    int                    `json:"page_no"`
	Text      string                 `json:"text"`
	Embedding []float32              `json:"embedding"`
	CreatedAt time.Time              `json:"created_at"`
}

// ChunkInput is the input structure for indexing a chunk.
type ChunkInput struct {
	DocName   string    `json:"doc_name"`
	PageNo    int       `json:"page_no"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}
