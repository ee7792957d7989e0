package candidate

import "github.com/arcline-ai/ragdex/internal/domain/chunk"

// Hit is a single stage result before fusion: a chunk with its stage-native
// score, ordered best-first by the backend.
type Hit struct {
	chunk chunk.Chunk
	score float64
}

// NewHit creates a stage hit.
func NewHit(c chunk.Chunk, score float64) Hit {
	return Hit{chunk: c, score: score}
}

// Chunk returns the matched chunk.
func (h Hit) Chunk() chunk.Chunk { return h.chunk }

// ID returns the matched chunk's identifier.
func (h Hit) ID() string { return h.chunk.ID() }

// Score returns the stage-native score (cosine similarity or keyword relevance).
func (h Hit) Score() float64 { return h.score }
