// Package ragdex is a hybrid retrieval engine over Redis: documents are
// split, embedded and indexed; queries run semantic and keyword stages whose
// ranked lists are fused and diversified into a small high-relevance set.
package ragdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arcline-ai/ragdex/internal/db"
	dbRedis "github.com/arcline-ai/ragdex/internal/db/redis"
	"github.com/arcline-ai/ragdex/internal/domain"
	domingest "github.com/arcline-ai/ragdex/internal/domain/ingest"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
	"github.com/arcline-ai/ragdex/internal/metrics"
	"github.com/arcline-ai/ragdex/internal/repository/embcache"
	indexrepo "github.com/arcline-ai/ragdex/internal/repository/index"
	"github.com/arcline-ai/ragdex/internal/retry"
	openaiEmb "github.com/arcline-ai/ragdex/internal/transport/openai"
	embeddinguc "github.com/arcline-ai/ragdex/internal/usecase/embedding"
	ingestuc "github.com/arcline-ai/ragdex/internal/usecase/ingest"
	retrievaluc "github.com/arcline-ai/ragdex/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the ragdex library entry point.
type Client struct {
	store        db.Store
	index        *indexrepo.Repo
	retrievalSvc *retrievaluc.Service
	ingestSvc    *ingestuc.Service
	defaults     settings.Settings
}

// New creates a ragdex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ragdex: database address required (use WithRedis)")
	}
	if cfg.embedder == nil && cfg.openAIKey == "" {
		return nil, errors.New("ragdex: embedding provider required (use WithOpenAI or WithEmbedder)")
	}
	if cfg.dimensions <= 0 {
		return nil, errors.New("ragdex: vector dimensions must be positive")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("ragdex: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ragdex: database not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	set := settings.Default()
	if cfg.settings != nil {
		set = settings.Settings(*cfg.settings)
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("ragdex: invalid settings: %w", err)
		}
	}

	precision := db.VectorFloat32
	if cfg.float16 {
		precision = db.VectorFloat16
	}
	index := indexrepo.New(store, indexrepo.Schema{
		VectorDim:  cfg.dimensions,
		VectorType: precision,
		Algorithm:  db.VectorHNSW,
		HNSW: indexrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		},
	})

	retrievalSvc := retrievaluc.New(index, buildChain(cfg, cfg.queryInstruction, store, logger), retry.DefaultConfig(), logger)
	ingestSvc := ingestuc.New(index, buildChain(cfg, cfg.documentInstruction, store, logger),
		cfg.chunkSize, cfg.chunkOverlap, retry.DefaultConfig(), logger)

	return &Client{
		store:        store,
		index:        index,
		retrievalSvc: retrievalSvc,
		ingestSvc:    ingestSvc,
		defaults:     set,
	}, nil
}

// buildChain assembles the embedding decorator chain:
// provider -> Cached -> Retrying -> Instrumented -> Instruction.
func buildChain(cfg *clientConfig, instruction string, store db.Store, logger *zap.Logger) ingestuc.Embedder {
	var base ingestuc.Embedder
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	} else {
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIBaseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
	}

	cached := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger, cfg.cacheTTL)
	retrying := embeddinguc.NewRetryingEmbedder(cached, embeddinguc.DefaultRetryConfig())
	instrumented := embeddinguc.NewInstrumentedEmbedder(retrying, "openai", cfg.model, logger)

	if instruction != "" {
		return domain.NewInstructionEmbedder(instrumented, instruction)
	}
	return instrumented
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureCollection creates the chunk index if it does not exist (idempotent).
// Returns true if the index was created. Fails when the embedding provider's
// vector dimension does not match the configured schema.
func (c *Client) EnsureCollection(ctx context.Context) (bool, error) {
	return c.ingestSvc.EnsureCollection(ctx)
}

// Ingest splits, embeds and indexes documents. Re-ingesting unchanged
// content is idempotent: chunk IDs are derived from source and content.
func (c *Client) Ingest(ctx context.Context, docs []Document) (IngestReport, error) {
	domainDocs := make([]domingest.Document, len(docs))
	for i, d := range docs {
		doc, err := d.toDomain()
		if err != nil {
			return IngestReport{}, err
		}
		domainDocs[i] = doc
	}

	rep, err := c.ingestSvc.Ingest(ctx, domainDocs, c.defaults)
	if err != nil {
		return IngestReport{}, err
	}
	return ingestReportFromDomain(rep), nil
}

// Retrieve runs one hybrid retrieval pass for the query. The client's
// default settings apply unless a Settings override is given.
func (c *Client) Retrieve(ctx context.Context, query string, opts ...Settings) (SearchReport, error) {
	set := c.defaults
	if len(opts) > 0 {
		set = settings.Settings(opts[0])
	}

	rep, err := c.retrievalSvc.Retrieve(ctx, query, set)
	if err != nil {
		return SearchReport{}, err
	}
	return searchReportFromDomain(rep), nil
}

// Count returns the number of indexed chunks.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.index.Count(ctx)
}

// DeleteBySource removes every chunk ingested from the given source.
// Returns the number of chunks removed.
func (c *Client) DeleteBySource(ctx context.Context, source string) (int, error) {
	return c.index.DeleteBySource(ctx, source)
}

// DeleteAll removes every chunk and drops the index.
// Returns the number of chunks removed.
func (c *Client) DeleteAll(ctx context.Context) (int, error) {
	return c.index.DeleteAll(ctx)
}
