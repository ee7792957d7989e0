package retrieval

import (
	"context"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
)

// Repository defines the index contract for the two retrieval stages.
// Both return hits ordered best-first by the backend's own score scale.
type Repository interface {
	SearchSemantic(ctx context.Context, vector []float32, limit int, threshold float64) ([]candidate.Hit, error)
	SearchText(ctx context.Context, query string, limit int) ([]candidate.Hit, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
