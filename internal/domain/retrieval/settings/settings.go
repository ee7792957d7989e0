// Package settings holds the tunable parameters of a retrieval pass.
package settings

import "fmt"

// Parameter bounds.
const (
	MaxCandidates  = 500
	MaxFinalK      = 100
	MaxBatchSize   = 1024
	MaxParallelism = 64
)

// Settings control candidate generation, fusion, diversification and indexing.
// Start from Default and override fields, then Validate before use.
type Settings struct {
	// SemanticCandidates is the KNN candidate count requested from the vector stage.
	SemanticCandidates int
	// SemanticThreshold drops semantic hits below this similarity (0 disables).
	SemanticThreshold float64
	// TextCandidates is the candidate count requested from the keyword stage.
	TextCandidates int
	// SemanticWeight scales the semantic reciprocal rank term.
	SemanticWeight float64
	// TextWeight scales the text reciprocal rank term.
	TextWeight float64
	// FusionK is the reciprocal rank fusion smoothing constant.
	FusionK int
	// UseDiversification toggles the diversification pass over fused candidates.
	UseDiversification bool
	// MMRLambda trades relevance (1) against diversity (0).
	MMRLambda float64
	// FinalK is the number of chunks returned to the caller.
	FinalK int
	// IndexBatchSize is the number of chunks embedded and stored per ingest batch.
	IndexBatchSize int
	// IndexParallelism bounds the number of ingest batches processed concurrently.
	IndexParallelism int
}

// Default returns the tuned defaults for hybrid retrieval.
func Default() Settings {
	return Settings{
		SemanticCandidates: 20,
		SemanticThreshold:  0.2,
		TextCandidates:     20,
		SemanticWeight:     0.7,
		TextWeight:         0.3,
		FusionK:            60,
		UseDiversification: true,
		MMRLambda:          0.6,
		FinalK:             5,
		IndexBatchSize:     64,
		IndexParallelism:   4,
	}
}

// Validate checks every parameter against its bounds.
func (s Settings) Validate() error {
	if s.SemanticCandidates < 1 || s.SemanticCandidates > MaxCandidates {
		return fmt.Errorf("semantic candidates must be between 1 and %d", MaxCandidates)
	}
	if s.SemanticThreshold < 0 || s.SemanticThreshold > 1 {
		return fmt.Errorf("semantic threshold must be between 0 and 1")
	}
	if s.TextCandidates < 1 || s.TextCandidates > MaxCandidates {
		return fmt.Errorf("text candidates must be between 1 and %d", MaxCandidates)
	}
	if s.SemanticWeight < 0 {
		return fmt.Errorf("semantic weight must not be negative")
	}
	if s.TextWeight < 0 {
		return fmt.Errorf("text weight must not be negative")
	}
	if s.SemanticWeight == 0 && s.TextWeight == 0 {
		return fmt.Errorf("at least one fusion weight must be positive")
	}
	if s.FusionK < 1 {
		return fmt.Errorf("fusion k must be at least 1")
	}
	if s.MMRLambda < 0 || s.MMRLambda > 1 {
		return fmt.Errorf("mmr lambda must be between 0 and 1")
	}
	if s.FinalK < 1 || s.FinalK > MaxFinalK {
		return fmt.Errorf("final k must be between 1 and %d", MaxFinalK)
	}
	if s.IndexBatchSize < 1 || s.IndexBatchSize > MaxBatchSize {
		return fmt.Errorf("index batch size must be between 1 and %d", MaxBatchSize)
	}
	if s.IndexParallelism < 1 || s.IndexParallelism > MaxParallelism {
		return fmt.Errorf("index parallelism must be between 1 and %d", MaxParallelism)
	}
	return nil
}
