package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	domingest "github.com/arcline-ai/ragdex/internal/domain/ingest"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
	"github.com/arcline-ai/ragdex/internal/retry"
)

// mockIndex records upserted chunks keyed by ID, like the real index does.
type mockIndex struct {
	mu        sync.Mutex
	dim       int
	stored    map[string]chunk.Chunk
	upserts   int
	ensureFn  func(ctx context.Context) (bool, error)
	upsertErr func(batch []chunk.Chunk) error
}

func newMockIndex(dim int) *mockIndex {
	return &mockIndex{dim: dim, stored: make(map[string]chunk.Chunk)}
}

func (m *mockIndex) EnsureCollection(ctx context.Context) (bool, error) {
	if m.ensureFn != nil {
		return m.ensureFn(ctx)
	}
	return false, nil
}

func (m *mockIndex) UpsertBatch(ctx context.Context, chunks []chunk.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		if err := m.upsertErr(chunks); err != nil {
			return err
		}
	}
	for _, c := range chunks {
		m.stored[c.ID()] = c
	}
	return nil
}

func (m *mockIndex) Dimension() int { return m.dim }

func (m *mockIndex) storedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

// mockEmbedder returns a fixed-dimension vector per text.
type mockEmbedder struct {
	dim     int
	batchFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: make([]float32, m.dim), TotalTokens: 3}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, m.dim)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: len(texts),
		TotalTokens:  len(texts),
	}, nil
}

// lineSplitter splits on newlines, one chunk per non-empty line. Deterministic
// and overlap-free, unlike the production recursive splitter.
type lineSplitter struct{}

func (lineSplitter) SplitText(text string) ([]string, error) {
	return strings.Split(text, "\n"), nil
}

func newTestService(idx *mockIndex, emb *mockEmbedder) *Service {
	return New(idx, emb, 0, 0, fastRetry(), zap.NewNop()).WithSplitter(lineSplitter{})
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2,
	}
}

func testSettings() settings.Settings {
	set := settings.Default()
	set.IndexBatchSize = 2
	set.IndexParallelism = 2
	return set
}

func doc(source, content string) domingest.Document {
	d, err := domingest.NewDocument(source, content, chunk.Trusted, "text", 0.8)
	if err != nil {
		panic(err)
	}
	return d
}
