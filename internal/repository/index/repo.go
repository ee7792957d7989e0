// Package index is the vector index client: it owns the chunk collection
// schema in Redis and exposes upsert, KNN and BM25 search over it.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arcline-ai/ragdex/internal/db"
	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
)

const (
	listPageSize = 256
	delBatchSize = 512
)

// store is the consumer interface for the chunk index (ISP).
//
//nolint:interfacebloat // the index repo needs hash, index and search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

var knnReturnFields = []string{
	fieldContent, fieldVector, fieldSource, fieldTrust, fieldContentType, fieldQuality,
	"__vector_score",
}

var textReturnFields = []string{
	fieldContent, fieldSource, fieldTrust, fieldContentType, fieldQuality,
}

// Repo implements usecase retrieval/ingest Repository interfaces.
type Repo struct {
	store  store
	schema Schema
}

// New creates the chunk index repository. Zero-valued schema parts fall back
// to HNSW over float32 with M=32, EF_CONSTRUCTION=400.
func New(s store, schema Schema) *Repo {
	if schema.VectorType == "" {
		schema.VectorType = db.VectorFloat32
	}
	if schema.Algorithm == "" {
		schema.Algorithm = db.VectorHNSW
	}
	if schema.HNSW.M <= 0 {
		schema.HNSW.M = 32
	}
	if schema.HNSW.EFConstruct <= 0 {
		schema.HNSW.EFConstruct = 400
	}
	return &Repo{store: s, schema: schema}
}

// Dimension returns the configured vector dimensionality of the index.
func (r *Repo) Dimension() int { return r.schema.VectorDim }

// EnsureCollection idempotently brings the chunk index to the configured
// schema. If stored metadata disagrees on dimension, precision or algorithm,
// the index AND all chunk data are destroyed and recreated; the returned bool
// reports whether that wipe happened.
func (r *Repo) EnsureCollection(ctx context.Context) (bool, error) {
	meta, err := r.store.HGetAll(ctx, metaKey)
	if err != nil {
		return false, fmt.Errorf("hgetall index meta: %w", err)
	}
	idxExists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}

	if len(meta) > 0 && metaMatches(meta, r.schema) {
		if idxExists {
			return false, nil
		}
		// Index definition lost but stored chunks still fit the schema.
		// FT.CREATE re-indexes existing hashes under the prefix.
		if err := r.store.CreateIndex(ctx, buildIndex(r.schema)); err != nil {
			return false, fmt.Errorf("create index: %w", err)
		}
		return false, nil
	}

	wiped := idxExists || len(meta) > 0
	if wiped {
		if err := r.destroy(ctx, idxExists); err != nil {
			return false, err
		}
	}
	if err := r.create(ctx); err != nil {
		return false, err
	}
	return wiped, nil
}

// create writes metadata then the FT index. On FT.CREATE failure the
// metadata write is rolled back via DEL.
func (r *Repo) create(ctx context.Context) error {
	if err := r.store.HSet(ctx, metaKey, schemaToMeta(r.schema, time.Now().UnixMilli())); err != nil {
		return fmt.Errorf("hset index meta: %w", err)
	}

	if err := r.store.CreateIndex(ctx, buildIndex(r.schema)); err != nil {
		cleanupErr := r.store.Del(ctx, metaKey)
		return errors.Join(err, cleanupErr)
	}
	return nil
}

func (r *Repo) destroy(ctx context.Context, idxExists bool) error {
	if idxExists {
		if err := r.store.DropIndex(ctx, IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index: %w", err)
		}
	}
	if _, err := r.DeleteAll(ctx); err != nil {
		return err
	}
	if err := r.store.Del(ctx, metaKey); err != nil {
		return fmt.Errorf("del index meta: %w", err)
	}
	return nil
}

// UpsertBatch writes all chunks of one batch in a single pipelined round trip.
// Re-upserting an existing chunk ID overwrites its hash in place.
func (r *Repo) UpsertBatch(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{
			Key:    chunkKey(c.ID()),
			Fields: chunkToHash(c, r.schema.VectorType),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks: %w", err)
	}
	return nil
}

// SearchSemantic performs KNN vector search and post-filters hits below the
// similarity threshold. Returned chunks carry their stored vectors.
func (r *Repo) SearchSemantic(
	ctx context.Context, vector []float32, limit int, threshold float64,
) ([]candidate.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    IndexName,
		Vector:       vector,
		VectorType:   r.schema.VectorType,
		K:            limit,
		ReturnFields: knnReturnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	hits := make([]candidate.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if entry.Score < threshold {
			continue
		}
		hits = append(hits, candidate.NewHit(chunkFromEntry(entry, r.schema.VectorType), entry.Score))
	}
	return hits, nil
}

// SearchText performs BM25 keyword search over chunk content. Returned
// chunks are vectorless.
func (r *Repo) SearchText(ctx context.Context, query string, limit int) ([]candidate.Hit, error) {
	q := &db.TextQuery{
		IndexName:    IndexName,
		Query:        query,
		TopK:         limit,
		ReturnFields: textReturnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	hits := make([]candidate.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, candidate.NewHit(chunkFromEntry(entry, r.schema.VectorType), entry.Score))
	}
	return hits, nil
}

// Get returns a stored chunk by ID.
func (r *Repo) Get(ctx context.Context, id string) (chunk.Chunk, error) {
	m, err := r.store.HGetAll(ctx, chunkKey(id))
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("hgetall chunk %s: %w", id, err)
	}
	if len(m) == 0 {
		return chunk.Chunk{}, domain.ErrNotFound
	}
	return chunkFromHash(id, m, r.schema.VectorType)
}

// Fetch returns stored chunks for the given IDs in one pipelined round trip.
// Missing IDs are skipped.
func (r *Repo) Fetch(ctx context.Context, ids []string) ([]chunk.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = chunkKey(id)
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall chunks: %w", err)
	}

	chunks := make([]chunk.Chunk, 0, len(ids))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		c, err := chunkFromHash(ids[i], m, r.schema.VectorType)
		if err != nil {
			return nil, fmt.Errorf("parse chunk %s: %w", ids[i], err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Count returns the number of indexed chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// DeleteBySource removes every chunk tagged with the given source and returns
// how many were deleted. Keys are collected before any deletion so paging is
// not disturbed by the removals.
func (r *Repo) DeleteBySource(ctx context.Context, source string) (int, error) {
	query := fmt.Sprintf("@%s:{%s}", fieldSource, db.EscapeTag(source))

	var keys []string
	offset := 0
	for {
		sr, err := r.store.SearchList(ctx, IndexName, query, offset, listPageSize, []string{fieldSource})
		if err != nil {
			return 0, fmt.Errorf("search by source: %w", err)
		}
		if sr == nil || len(sr.Entries) == 0 {
			break
		}
		for _, entry := range sr.Entries {
			keys = append(keys, entry.Key)
		}
		if len(sr.Entries) < listPageSize {
			break
		}
		offset += listPageSize
	}

	if err := r.deleteKeys(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// DeleteAll removes every chunk hash and returns how many were deleted.
// The index definition and metadata are left in place.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan chunks: %w", err)
	}
	if err := r.deleteKeys(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r *Repo) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += delBatchSize {
		end := min(start+delBatchSize, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("del chunks: %w", err)
		}
	}
	return nil
}
