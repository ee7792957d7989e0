package retrieval

import (
	"sort"

	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
)

// fuse merges the two stage lists via weighted Reciprocal Rank Fusion:
// fused(c) = semWeight/(k+semRank) + textWeight/(k+textRank), where a chunk
// absent from a list contributes exactly zero for that term. Returns the full
// merged pool sorted by fused score descending; ties go to chunks present in
// both lists, then to the lower chunk ID, so identical inputs always produce
// an identical order.
func fuse(semantic, text []candidate.Hit, s settings.Settings) []candidate.Candidate {
	type entry struct {
		hit      candidate.Hit
		semantic candidate.Rank
		text     candidate.Rank
	}

	merged := make(map[string]*entry, len(semantic)+len(text))

	for i, h := range semantic {
		merged[h.ID()] = &entry{hit: h, semantic: candidate.At(i+1, h.Score())}
	}
	for i, h := range text {
		if e, ok := merged[h.ID()]; ok {
			// The semantic hit stays as the chunk source: it carries the vector.
			e.text = candidate.At(i+1, h.Score())
			continue
		}
		merged[h.ID()] = &entry{hit: h, text: candidate.At(i+1, h.Score())}
	}

	pool := make([]candidate.Candidate, 0, len(merged))
	for _, e := range merged {
		c := candidate.New(e.hit.Chunk(), e.semantic, e.text)
		fused := e.semantic.Contribution(s.SemanticWeight, s.FusionK) +
			e.text.Contribution(s.TextWeight, s.FusionK)
		pool = append(pool, c.WithFused(fused))
	}

	// The comparator is a total order (IDs are unique), so the map's random
	// iteration order above cannot leak into the result.
	sort.Slice(pool, func(i, j int) bool {
		a, b := &pool[i], &pool[j]
		if a.Fused() != b.Fused() {
			return a.Fused() > b.Fused()
		}
		if a.InBoth() != b.InBoth() {
			return a.InBoth()
		}
		return a.ID() < b.ID()
	})

	return pool
}

// topK truncates a fused pool without reordering.
func topK(pool []candidate.Candidate, k int) []candidate.Candidate {
	if len(pool) > k {
		return pool[:k]
	}
	return pool
}
