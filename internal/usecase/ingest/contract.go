package ingest

import (
	"context"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
)

// Index is the chunk index contract for ingestion. Dimension reports the
// vector dimensionality the index schema was configured with.
type Index interface {
	EnsureCollection(ctx context.Context) (bool, error)
	UpsertBatch(ctx context.Context, chunks []chunk.Chunk) error
	Dimension() int
}

// Embedder vectorizes chunk contents; ingestion always embeds in batches
// but probes dimensionality with a single call.
type Embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// Splitter cuts raw document text into overlapping pieces.
type Splitter interface {
	SplitText(text string) ([]string, error)
}
