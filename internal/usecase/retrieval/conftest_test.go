package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
	"github.com/arcline-ai/ragdex/internal/retry"
)

// mockRepo implements Repository with overridable functions.
type mockRepo struct {
	semanticFn func(ctx context.Context, vector []float32, limit int, threshold float64) ([]candidate.Hit, error)
	textFn     func(ctx context.Context, query string, limit int) ([]candidate.Hit, error)
}

func (m *mockRepo) SearchSemantic(
	ctx context.Context, vector []float32, limit int, threshold float64,
) ([]candidate.Hit, error) {
	if m.semanticFn != nil {
		return m.semanticFn(ctx, vector, limit, threshold)
	}
	return nil, nil
}

func (m *mockRepo) SearchText(ctx context.Context, query string, limit int) ([]candidate.Hit, error) {
	if m.textFn != nil {
		return m.textFn(ctx, query, limit)
	}
	return nil, nil
}

// mockEmbedder implements Embedder; the default returns queryVector.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: queryVector(), TotalTokens: 7}, nil
}

func newTestService(repo *mockRepo, embed *mockEmbedder) *Service {
	return New(repo, embed, fastRetry(), zap.NewNop())
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2,
	}
}

func queryVector() []float32 {
	return []float32{0.5, 0.5, 0.5}
}

// vhit builds a vector-bearing stage hit.
func vhit(id string, score float64, vec []float32) candidate.Hit {
	c := chunk.Reconstruct(id, "content "+id, "docs/"+id+".md", chunk.Trusted, "text", 0.9, vec)
	return candidate.NewHit(c, score)
}

// thit builds a vectorless stage hit, as the text stage produces.
func thit(id string, score float64) candidate.Hit {
	c := chunk.Reconstruct(id, "content "+id, "docs/"+id+".md", chunk.Trusted, "text", 0.9, nil)
	return candidate.NewHit(c, score)
}

// vcand builds a fused vector-bearing candidate for diversification tests.
func vcand(id string, fused float64, vec []float32) candidate.Candidate {
	c := chunk.Reconstruct(id, "content "+id, "docs/"+id+".md", chunk.Trusted, "text", 0.9, vec)
	cand := candidate.New(c, candidate.At(1, fused), candidate.Absent())
	return cand.WithFused(fused)
}

// tcand builds a fused vectorless candidate.
func tcand(id string, fused float64) candidate.Candidate {
	c := chunk.Reconstruct(id, "content "+id, "docs/"+id+".md", chunk.Trusted, "text", 0.9, nil)
	cand := candidate.New(c, candidate.Absent(), candidate.At(1, fused))
	return cand.WithFused(fused)
}

func candidateIDs(pool []candidate.Candidate) []string {
	ids := make([]string, len(pool))
	for i := range pool {
		ids[i] = pool[i].ID()
	}
	return ids
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
