// Package ingest turns raw documents into indexed chunks: split, embed,
// upsert in concurrently dispatched batches with per-batch failure isolation.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	domingest "github.com/arcline-ai/ragdex/internal/domain/ingest"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
	"github.com/arcline-ai/ragdex/internal/metrics"
	"github.com/arcline-ai/ragdex/internal/retry"
)

// Splitting defaults, matching the recursive character splitter's
// paragraph-first separators.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// dimensionProbe is the throwaway text embedded once to learn the provider's
// output dimensionality.
const dimensionProbe = "dimension probe"

// Service ingests documents into the chunk index. A single ingestion path at
// a time is assumed; batches within one call run concurrently.
type Service struct {
	index    Index
	embed    Embedder
	splitter Splitter
	retryCfg retry.Config
	logger   *zap.Logger
}

// New creates an ingestion service with a recursive character splitter.
// chunkSize/chunkOverlap of zero fall back to the defaults.
func New(index Index, embed Embedder, chunkSize, chunkOverlap int, retryCfg retry.Config, logger *zap.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	sp := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	return &Service{index: index, embed: embed, splitter: sp, retryCfg: retryCfg, logger: logger}
}

// WithSplitter replaces the document splitter (tests, custom formats).
func (s *Service) WithSplitter(sp Splitter) *Service {
	s.splitter = sp
	return s
}

// EnsureCollection verifies the embedding provider's output dimension against
// the index schema, then brings the index to that schema. A mismatch is fatal
// and never silently truncated or padded. The returned bool reports whether
// existing data was wiped by a schema change.
func (s *Service) EnsureCollection(ctx context.Context) (bool, error) {
	probe, err := s.embed.Embed(ctx, dimensionProbe)
	if err != nil {
		return false, fmt.Errorf("probe embedding dimension: %w", err)
	}
	if got, want := len(probe.Embedding), s.index.Dimension(); got != want {
		return false, domain.NewDimensionMismatch(want, got)
	}

	wiped, err := s.index.EnsureCollection(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure collection: %w", err)
	}
	if wiped {
		s.logger.Warn("Chunk index schema changed, previous contents destroyed")
	}
	return wiped, nil
}

// Ingest splits every document into chunks, embeds them in batches of
// settings.IndexBatchSize, and upserts the batches concurrently up to
// settings.IndexParallelism workers. A failed batch is recorded on the report
// and never aborts its siblings; only context cancellation stops the pass.
func (s *Service) Ingest(ctx context.Context, docs []domingest.Document, set settings.Settings) (domingest.Report, error) {
	if err := set.Validate(); err != nil {
		return domingest.Report{}, fmt.Errorf("validate settings: %w", err)
	}

	chunks, err := s.split(docs)
	if err != nil {
		return domingest.Report{}, err
	}
	if len(chunks) == 0 {
		return domingest.Report{}, nil
	}

	batches := partition(chunks, set.IndexBatchSize)

	pool, err := ants.NewPool(set.IndexParallelism)
	if err != nil {
		return domingest.Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		prompt  int
		total   int
		results = make([]domingest.BatchResult, len(batches))
	)

	for i, batch := range batches {
		wg.Add(1)
		submit := pool.Submit(func() {
			defer wg.Done()
			res, usage := s.processBatch(ctx, i, batch)
			results[i] = res
			mu.Lock()
			prompt += usage.PromptTokens
			total += usage.TotalTokens
			mu.Unlock()
		})
		if submit != nil {
			wg.Done()
			results[i] = domingest.NewBatchError(i, chunkIDs(batch), fmt.Errorf("submit batch: %w", submit))
		}
	}
	wg.Wait()

	report := domingest.NewReport(results, prompt, total)

	s.logger.Info("Ingestion completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", report.TotalChunks()),
		zap.Int("indexed", report.Indexed()),
		zap.Int("failed_batches", len(report.Failures())),
	)

	return report, ctx.Err()
}

// processBatch embeds and upserts one batch, retrying transient failures.
func (s *Service) processBatch(
	ctx context.Context, n int, batch []chunk.Chunk,
) (domingest.BatchResult, domain.BatchEmbeddingResult) {
	ids := chunkIDs(batch)

	if ctx.Err() != nil {
		metrics.IngestBatchesTotal.WithLabelValues("failed").Inc()
		return domingest.NewBatchError(n, ids, ctx.Err()), domain.BatchEmbeddingResult{}
	}

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content()
	}

	emb, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		metrics.IngestBatchesTotal.WithLabelValues("failed").Inc()
		return domingest.NewBatchError(n, ids, fmt.Errorf("embed batch %d: %w", n, err)), domain.BatchEmbeddingResult{}
	}

	vectored := make([]chunk.Chunk, len(batch))
	for i := range batch {
		if len(emb.Embeddings[i]) != s.index.Dimension() {
			metrics.IngestBatchesTotal.WithLabelValues("failed").Inc()
			return domingest.NewBatchError(n, ids,
				domain.NewDimensionMismatch(s.index.Dimension(), len(emb.Embeddings[i]))), emb
		}
		vectored[i] = batch[i].WithVector(emb.Embeddings[i])
	}

	_, err = retry.Do(ctx, s.retryCfg, func() (struct{}, error) {
		return struct{}{}, s.index.UpsertBatch(ctx, vectored)
	})
	if err != nil {
		metrics.IngestBatchesTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("Batch upsert failed", zap.Int("batch", n), zap.Error(err))
		return domingest.NewBatchError(n, ids, fmt.Errorf("upsert batch %d: %w", n, err)), emb
	}

	metrics.IngestBatchesTotal.WithLabelValues("ok").Inc()
	metrics.IngestChunksTotal.Add(float64(len(batch)))
	return domingest.NewBatchOK(n, ids), emb
}

// split cuts every document into chunks with deterministic identifiers.
func (s *Service) split(docs []domingest.Document) ([]chunk.Chunk, error) {
	var chunks []chunk.Chunk
	for _, doc := range docs {
		pieces, err := s.splitter.SplitText(doc.Content())
		if err != nil {
			return nil, fmt.Errorf("split document %q: %w", doc.Source(), err)
		}
		ordinal := 0
		for _, piece := range pieces {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			c, err := chunk.New(
				chunkID(doc.Source(), ordinal, piece), piece,
				doc.Source(), doc.Trust(), doc.ContentType(), doc.Quality(),
			)
			if err != nil {
				return nil, fmt.Errorf("%w: document %q piece %d: %w",
					domain.ErrInvalidChunk, doc.Source(), ordinal, err)
			}
			chunks = append(chunks, c)
			ordinal++
		}
	}
	return chunks, nil
}

// chunkID derives a chunk identifier stable across re-indexing of identical
// content: re-ingesting an unchanged document overwrites its own chunks.
func chunkID(source string, ordinal int, content string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", source, ordinal, content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func partition(chunks []chunk.Chunk, size int) [][]chunk.Chunk {
	var batches [][]chunk.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

func chunkIDs(batch []chunk.Chunk) []string {
	ids := make([]string, len(batch))
	for i := range batch {
		ids[i] = batch[i].ID()
	}
	return ids
}
