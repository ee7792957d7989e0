package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arcline-ai/ragdex/internal/db"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
)

// chunkToHash converts a domain Chunk to a map for HSET. The vector is
// serialized at the precision the index was created with.
func chunkToHash(c chunk.Chunk, typ db.VectorType) map[string]string {
	m := map[string]string{
		fieldContent:     c.Content(),
		fieldSource:      c.Source(),
		fieldTrust:       string(c.Trust()),
		fieldContentType: c.ContentType(),
		fieldQuality:     strconv.FormatFloat(c.Quality(), 'f', -1, 64),
	}
	if c.HasVector() {
		m[fieldVector] = db.EncodeVector(c.Vector(), typ)
	}
	return m
}

// chunkFromHash hydrates a domain Chunk from an HGETALL result map.
func chunkFromHash(id string, m map[string]string, typ db.VectorType) (chunk.Chunk, error) {
	quality := 0.0
	if qStr, ok := m[fieldQuality]; ok && qStr != "" {
		parsed, err := strconv.ParseFloat(qStr, 64)
		if err != nil {
			return chunk.Chunk{}, fmt.Errorf("invalid quality %q: %w", qStr, err)
		}
		quality = parsed
	}

	var vector []float32
	if raw, ok := m[fieldVector]; ok && raw != "" {
		decoded, err := db.DecodeVector([]byte(raw), typ)
		if err != nil {
			return chunk.Chunk{}, fmt.Errorf("decode vector for %s: %w", id, err)
		}
		vector = decoded
	}

	return chunk.Reconstruct(
		id,
		m[fieldContent],
		m[fieldSource],
		chunk.Trust(m[fieldTrust]),
		m[fieldContentType],
		quality,
		vector,
	), nil
}

// chunkFromEntry hydrates a Chunk from an FT.SEARCH entry. Entries with an
// unparsable vector degrade to vectorless rather than failing the whole page.
func chunkFromEntry(entry db.SearchEntry, typ db.VectorType) chunk.Chunk {
	id := idFromKey(entry.Key)

	quality := 0.0
	if qStr := entry.Fields[fieldQuality]; qStr != "" {
		if parsed, err := strconv.ParseFloat(qStr, 64); err == nil {
			quality = parsed
		}
	}

	var vector []float32
	if raw := entry.Fields[fieldVector]; raw != "" {
		if decoded, err := db.DecodeVector([]byte(raw), typ); err == nil {
			vector = decoded
		}
	}

	return chunk.Reconstruct(
		id,
		entry.Fields[fieldContent],
		entry.Fields[fieldSource],
		chunk.Trust(entry.Fields[fieldTrust]),
		entry.Fields[fieldContentType],
		quality,
		vector,
	)
}

func idFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}

// schemaToMeta converts the index schema to a map for the metadata hash.
func schemaToMeta(s Schema, createdAt int64) map[string]string {
	return map[string]string{
		"vector_dim":           strconv.Itoa(s.VectorDim),
		"vector_type":          string(s.VectorType),
		"algorithm":            string(s.Algorithm),
		"hnsw_m":               strconv.Itoa(s.HNSW.M),
		"hnsw_ef_construction": strconv.Itoa(s.HNSW.EFConstruct),
		"created_at":           strconv.FormatInt(createdAt, 10),
	}
}

// metaMatches reports whether stored metadata agrees with the schema on the
// storage-incompatible parts: dimension, precision and algorithm. HNSW build
// parameters may drift without destroying data.
func metaMatches(m map[string]string, s Schema) bool {
	dim, err := strconv.Atoi(m["vector_dim"])
	if err != nil || dim != s.VectorDim {
		return false
	}
	return m["vector_type"] == string(s.VectorType) && m["algorithm"] == string(s.Algorithm)
}
