package database

import (
	"context"

	"compliance-rag/types"
)

// VectorDatabase defines the retrieval-store operations the pipeline needs.
// Results come back ranked, highest relevance first; the store defines the
// score scale.
type VectorDatabase interface {
	BatchInsertChunks(ctx context.Context, title string, chunks []types.DocumentChunk) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]types.RetrievedChunk, error)
	Count(ctx context.Context) (int, error)
	ReInit() error
}
