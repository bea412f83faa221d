package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/mehulvora/govqa-go/internal/models"
)

// chunkHit is the projection returned by the KNN search.
type chunkHit struct {
	DocName    string  `json:"doc_name"`
	PageNo     int     `json:"page_no"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// SearchChunks runs a cosine KNN search over the chunk table and returns up
// to k chunks ranked by descending similarity. An empty result is a valid
// outcome, not an error.
func (c *Client) SearchChunks(ctx context.Context, embedding []float32, k int) ([]models.Chunk, error) {
	defer c.observe(time.Now())

	if k <= 0 {
		return nil, fmt.Errorf("search chunks: k must be positive, got %d", k)
	}

	// KNN operator needs a literal neighbour count; ef=40 for better recall.
	sql := fmt.Sprintf(`
		SELECT doc_name, page_no, text,
			vector::similarity::cosine(embedding, $emb) AS similarity
		FROM chunk
		WHERE embedding <|%d,40|> $emb
		ORDER BY similarity DESC
		LIMIT $limit
	`, k)

	results, err := surrealdb.Query[[]chunkHit](ctx, c.db, sql, map[string]any{
		"emb":   embedding,
		"limit": k,
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Chunk{}, nil
	}

	hits := (*results)[0].Result
	chunks := make([]models.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = models.Chunk{
			Text:       h.Text,
			DocName:    h.DocName,
			PageNo:     h.PageNo,
			Similarity: h.Similarity,
		}
	}
	return chunks, nil
}

// InsertChunks stores a batch of embedded chunks.
func (c *Client) InsertChunks(ctx context.Context, chunks []models.ChunkInput) error {
	defer c.observe(time.Now())

	if len(chunks) == 0 {
		return nil
	}

	_, err := surrealdb.Query[any](ctx, c.db, `INSERT INTO chunk $chunks`, map[string]any{
		"chunks": chunks,
	})
	if err != nil {
		return fmt.Errorf("insert chunks: %w", wrapQueryError(err))
	}
	return nil
}

// DeleteDocChunks removes all chunks of a document, e.g. before re-ingesting
// a newer scan of the same file.
func (c *Client) DeleteDocChunks(ctx context.Context, docName string) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `DELETE chunk WHERE doc_name = $doc`, map[string]any{
		"doc": docName,
	})
	if err != nil {
		return fmt.Errorf("delete chunks for %s: %w", docName, wrapQueryError(err))
	}
	return nil
}

// DocCount holds the per-document chunk count.
type DocCount struct {
	DocName string `json:"doc_name"`
	Count   int    `json:"count"`
}

// ListDocs returns the indexed documents with their chunk counts.
func (c *Client) ListDocs(ctx context.Context) ([]DocCount, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]DocCount](ctx, c.db, `
		SELECT doc_name, count() AS count FROM chunk GROUP BY doc_name ORDER BY doc_name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []DocCount{}, nil
	}
	return (*results)[0].Result, nil
}
