// Package candidate models chunks moving through the retrieval pipeline.
package candidate

import "github.com/arcline-ai/ragdex/internal/domain/chunk"

// Rank records whether a chunk appeared in a stage result list and where.
// The zero value means absent from that stage.
type Rank struct {
	present  bool
	position int
	score    float64
}

// Absent returns the rank of a chunk missing from a stage list.
func Absent() Rank { return Rank{} }

// At returns the rank of a chunk found at a 1-based position with its stage score.
func At(position int, score float64) Rank {
	if position < 1 {
		position = 1
	}
	return Rank{present: true, position: position, score: score}
}

// Present reports whether the chunk appeared in the stage list.
func (r Rank) Present() bool { return r.present }

// Position returns the 1-based rank position (0 when absent).
func (r Rank) Position() int {
	if !r.present {
		return 0
	}
	return r.position
}

// Score returns the stage-native score (similarity or keyword relevance).
func (r Rank) Score() float64 { return r.score }

// Contribution returns the weighted reciprocal rank term weight/(k+position).
// An absent rank contributes exactly zero.
func (r Rank) Contribution(weight float64, k int) float64 {
	if !r.present {
		return 0
	}
	return weight / (float64(k) + float64(r.position))
}

// Candidate is a chunk scored by the retrieval pipeline.
type Candidate struct {
	chunk    chunk.Chunk
	semantic Rank
	text     Rank
	fused    float64
}

// New creates a candidate from a chunk and its per-stage ranks.
func New(c chunk.Chunk, semantic, text Rank) Candidate {
	return Candidate{chunk: c, semantic: semantic, text: text}
}

// Chunk returns the underlying chunk.
func (c Candidate) Chunk() chunk.Chunk { return c.chunk }

// ID returns the underlying chunk identifier.
func (c Candidate) ID() string { return c.chunk.ID() }

// Semantic returns the semantic stage rank.
func (c Candidate) Semantic() Rank { return c.semantic }

// Text returns the text stage rank.
func (c Candidate) Text() Rank { return c.text }

// Fused returns the combined reciprocal rank fusion score.
func (c Candidate) Fused() float64 { return c.fused }

// InBoth reports whether the chunk appeared in both stage lists.
func (c Candidate) InBoth() bool { return c.semantic.present && c.text.present }

// HasVector reports whether the underlying chunk carries an embedding.
func (c Candidate) HasVector() bool { return c.chunk.HasVector() }

// WithFused returns a copy with the fused score set.
func (c Candidate) WithFused(score float64) Candidate {
	return Candidate{chunk: c.chunk, semantic: c.semantic, text: c.text, fused: score}
}
