package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mehulvora/govqa-go/internal/jobs"
	"github.com/mehulvora/govqa-go/internal/metrics"
	"github.com/mehulvora/govqa-go/internal/models"
	"github.com/mehulvora/govqa-go/internal/parser"
)

// Embedder turns chunk texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore is the index surface ingestion writes to.
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []models.ChunkInput) error
	DeleteDocChunks(ctx context.Context, docName string) error
}

// embedBatchSize bounds how many chunk texts go to the embedding API at once.
const embedBatchSize = 16

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Docs   int      `json:"docs"`
	Pages  int      `json:"pages"`
	Chunks int      `json:"chunks"`
	Errors []string `json:"errors,omitempty"`
}

// Ingestor loads OCR page dumps into the chunk index: parse, clean, chunk,
// embed, store. Re-ingesting a document replaces its chunks.
type Ingestor struct {
	embedder  Embedder
	store     ChunkStore
	collector *metrics.Collector
	log       *slog.Logger
	chunkCfg  parser.ChunkConfig
	parseOpts parser.Options
}

func NewIngestor(embedder Embedder, store ChunkStore, collector *metrics.Collector, chunkCfg parser.ChunkConfig, parseOpts parser.Options, log *slog.Logger) *Ingestor {
	return &Ingestor{
		embedder:  embedder,
		store:     store,
		collector: collector,
		log:       log,
		chunkCfg:  chunkCfg,
		parseOpts: parseOpts,
	}
}

// IngestFile ingests a page-marked dump file from disk.
func (g *Ingestor) IngestFile(ctx context.Context, path string, handle *jobs.Handle) (*IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()
	return g.IngestDump(ctx, f, handle)
}

// IngestDump ingests a page-marked dump. Pages are processed per document so
// a document's old chunks are dropped exactly once, right before its new
// chunks arrive. handle is optional progress reporting; pass nil for
// synchronous runs.
func (g *Ingestor) IngestDump(ctx context.Context, r io.Reader, handle *jobs.Handle) (*IngestResult, error) {
	pages, err := parser.ParsePages(r, g.parseOpts)
	if err != nil {
		return nil, fmt.Errorf("parse dump: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("dump contains no pages")
	}

	if handle != nil {
		handle.SetTotal(len(pages))
	}

	result := &IngestResult{Pages: len(pages)}
	seen := map[string]bool{}
	processed := 0

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !seen[page.DocName] {
			if err := g.store.DeleteDocChunks(ctx, page.DocName); err != nil {
				return nil, fmt.Errorf("replace document %s: %w", page.DocName, err)
			}
			seen[page.DocName] = true
			result.Docs++
		}

		n, err := g.ingestPage(ctx, page)
		if err != nil {
			// One unreadable page should not sink a whole dump.
			g.log.Warn("page ingestion failed",
				"doc", page.DocName, "page", page.PageNo, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s page %d: %v", page.DocName, page.PageNo, err))
		} else {
			result.Chunks += n
		}

		processed++
		if handle != nil {
			handle.Progress(processed)
		}
	}

	g.log.Info("ingestion complete",
		"docs", result.Docs, "pages", result.Pages, "chunks", result.Chunks, "errors", len(result.Errors))
	return result, nil
}

// ingestPage chunks, embeds, and stores one page. Returns the chunk count.
func (g *Ingestor) ingestPage(ctx context.Context, page parser.Page) (int, error) {
	texts := parser.ChunkText(page.Text, g.chunkCfg)
	if len(texts) == 0 {
		return 0, nil
	}

	inputs := make([]models.ChunkInput, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch := texts[start:end]

		embedStart := time.Now()
		vectors, err := g.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("embed page %d: %w", page.PageNo, err)
		}
		g.collector.RecordTiming(metrics.OpEmbedding, time.Since(embedStart))

		for i, text := range batch {
			inputs = append(inputs, models.ChunkInput{
				DocName:   page.DocName,
				PageNo:    page.PageNo,
				Text:      text,
				Embedding: vectors[i],
			})
		}
	}

	if err := g.store.InsertChunks(ctx, inputs); err != nil {
		return 0, fmt.Errorf("store page %d: %w", page.PageNo, err)
	}
	return len(inputs), nil
}
