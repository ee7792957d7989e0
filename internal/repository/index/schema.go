package index

import (
	"github.com/arcline-ai/ragdex/internal/db"
)

// Redis key patterns: ragdex:chunk:{id}, ragdex:chunk:idx, ragdex:meta:index

const (
	// KeyPrefix is the namespace shared by all chunk hashes.
	KeyPrefix = "ragdex:chunk:"
	// IndexName is the FT index over chunk hashes.
	IndexName = "ragdex:chunk:idx"
	// metaKey stores the schema the index was created with.
	metaKey = "ragdex:meta:index"
)

// Hash field names of a stored chunk.
const (
	fieldContent     = "content"
	fieldVector      = "vector"
	fieldSource      = "source"
	fieldTrust       = "trust"
	fieldContentType = "content_type"
	fieldQuality     = "quality"
)

// sourceSeparator keeps comma-bearing filenames from splitting into multiple tags.
const sourceSeparator = "|"

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Schema describes the vector side of the chunk index.
type Schema struct {
	VectorDim  int
	VectorType db.VectorType
	Algorithm  db.VectorAlgorithm
	HNSW       HNSWConfig
}

// buildIndex creates the IndexDefinition for the chunk collection:
// content TEXT for BM25, vector for KNN, plus filterable metadata fields.
func buildIndex(s Schema) *db.IndexDefinition {
	def := &db.IndexDefinition{
		Name:        IndexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{KeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldContent, Type: db.IndexFieldText},
			{Name: fieldSource, Type: db.IndexFieldTag, TagSeparator: sourceSeparator, TagCaseSensitive: true},
			{Name: fieldTrust, Type: db.IndexFieldTag},
			{Name: fieldContentType, Type: db.IndexFieldTag},
			{Name: fieldQuality, Type: db.IndexFieldNumeric},
		},
	}

	vec := db.IndexField{
		Name:           fieldVector,
		Type:           db.IndexFieldVector,
		VectorAlgo:     s.Algorithm,
		VectorDim:      s.VectorDim,
		VectorType:     s.VectorType,
		VectorDistance: db.DistanceCosine,
	}
	if s.Algorithm == db.VectorHNSW {
		vec.VectorM = s.HNSW.M
		vec.VectorEFConstruct = s.HNSW.EFConstruct
	}
	def.Fields = append(def.Fields, vec)

	return def
}

func chunkKey(id string) string {
	return KeyPrefix + id
}
