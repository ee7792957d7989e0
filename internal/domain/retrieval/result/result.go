package result

import (
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
)

// Result is a single retrieved chunk with its pipeline scores.
type Result struct {
	chunk    chunk.Chunk
	fused    float64
	semantic candidate.Rank
	text     candidate.Rank
}

// New creates a retrieval result.
func New(c chunk.Chunk, fused float64, semantic, text candidate.Rank) Result {
	return Result{chunk: c, fused: fused, semantic: semantic, text: text}
}

// FromCandidate converts a fused candidate into a result.
func FromCandidate(c candidate.Candidate) Result {
	return Result{chunk: c.Chunk(), fused: c.Fused(), semantic: c.Semantic(), text: c.Text()}
}

// Chunk returns the retrieved chunk.
func (r Result) Chunk() chunk.Chunk { return r.chunk }

// ID returns the chunk identifier.
func (r Result) ID() string { return r.chunk.ID() }

// Content returns the chunk content.
func (r Result) Content() string { return r.chunk.Content() }

// Source returns the chunk source.
func (r Result) Source() string { return r.chunk.Source() }

// Trust returns the chunk provenance class.
func (r Result) Trust() chunk.Trust { return r.chunk.Trust() }

// Fused returns the combined fusion score.
func (r Result) Fused() float64 { return r.fused }

// Semantic returns the semantic stage rank.
func (r Result) Semantic() candidate.Rank { return r.semantic }

// Text returns the text stage rank.
func (r Result) Text() candidate.Rank { return r.text }
