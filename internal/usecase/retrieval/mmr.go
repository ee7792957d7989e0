package retrieval

import (
	"math"

	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
)

// diversify selects up to k candidates from the fused pool by Maximal
// Marginal Relevance:
//
//	mmr(c) = lambda*relevance(c) - (1-lambda)*max over s in selected of sim(c, s)
//
// relevance is the fused score min-max normalized over the vectored pool and
// sim is cosine similarity. The pool must arrive sorted by fused score
// descending. Candidates without a vector cannot participate in the
// similarity term; they are appended after the diversified set, in fused
// order, while k is still unfilled.
func diversify(pool []candidate.Candidate, k int, lambda float64) []candidate.Candidate {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	vectored := make([]candidate.Candidate, 0, len(pool))
	var vectorless []candidate.Candidate
	for _, c := range pool {
		if c.HasVector() {
			vectored = append(vectored, c)
		} else {
			vectorless = append(vectorless, c)
		}
	}

	selected := mmrSelect(vectored, k, lambda)
	for _, c := range vectorless {
		if len(selected) >= k {
			break
		}
		selected = append(selected, c)
	}
	return selected
}

// mmrSelect runs the greedy MMR loop over vector-bearing candidates.
// Strict greater-than comparison keeps the first maximum, so equal mmr
// scores resolve to the earlier pool position and the output order is
// reproducible. With lambda=1 the similarity term vanishes and the output
// equals the top-k fused order.
func mmrSelect(pool []candidate.Candidate, k int, lambda float64) []candidate.Candidate {
	if len(pool) == 0 {
		return nil
	}

	relevance := normalizeFused(pool)

	selected := make([]candidate.Candidate, 0, min(k, len(pool)))
	remaining := make([]candidate.Candidate, len(pool))
	copy(remaining, pool)

	// Seed with the head of the pool: the highest fused score.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)

		for i := range remaining {
			c := &remaining[i]

			maxSim := math.Inf(-1)
			for j := range selected {
				if sim := cosine(c.Chunk().Vector(), selected[j].Chunk().Vector()); sim > maxSim {
					maxSim = sim
				}
			}

			score := lambda*relevance[c.ID()] - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// normalizeFused min-max scales fused scores into [0,1], keyed by chunk ID.
// A pool where every score is equal maps all members to 1.0.
func normalizeFused(pool []candidate.Candidate) map[string]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range pool {
		f := pool[i].Fused()
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}

	rel := make(map[string]float64, len(pool))
	spread := hi - lo
	for i := range pool {
		if spread == 0 {
			rel[pool[i].ID()] = 1.0
			continue
		}
		rel[pool[i].ID()] = (pool[i].Fused() - lo) / spread
	}
	return rel
}

// cosine returns the cosine similarity of two vectors. Mismatched dimensions
// or a zero-magnitude vector yield 0 rather than NaN.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
