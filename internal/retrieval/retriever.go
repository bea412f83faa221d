// Package retrieval turns a user query into a ranked, year-filtered set of
// document chunks ready to be assembled into an LLM context block.
package retrieval

import (
	"context"
	"fmt"

	"github.com/mehulvora/govqa-go/internal/models"
	"github.com/mehulvora/govqa-go/internal/years"
)

// Embedder converts a query into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs a similarity search over the chunk index.
type Searcher interface {
	SearchChunks(ctx context.Context, embedding []float32, k int) ([]models.Chunk, error)
}

// Retriever embeds queries and fetches matching chunks. When the query names
// specific years the fetch is widened before filtering, so the year filter has
// enough candidates to work with.
type Retriever struct {
	embedder   Embedder
	searcher   Searcher
	topK       int
	yearFetchK int
}

func NewRetriever(embedder Embedder, searcher Searcher, topK, yearFetchK int) *Retriever {
	if topK <= 0 {
		topK = 8
	}
	if yearFetchK < topK {
		yearFetchK = topK
	}
	return &Retriever{
		embedder:   embedder,
		searcher:   searcher,
		topK:       topK,
		yearFetchK: yearFetchK,
	}
}

// Retrieve fetches chunks relevant to the query. queryYears is the set of
// years already extracted from the query; pass nil for a year-less query.
// An empty result means no indexed content matched at all.
func (r *Retriever) Retrieve(ctx context.Context, query string, queryYears []string) ([]models.Chunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	k := r.topK
	if len(queryYears) > 0 && r.yearFetchK > k {
		k = r.yearFetchK
	}

	chunks, err := r.searcher.SearchChunks(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	return years.FilterChunks(chunks, queryYears), nil
}
