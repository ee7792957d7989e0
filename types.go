package ragdex

import (
	"context"
	"fmt"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	domingest "github.com/arcline-ai/ragdex/internal/domain/ingest"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/result"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
)

// Trust values for documents and results.
const (
	Trusted   = "trusted"
	Untrusted = "untrusted"
)

// Settings control candidate generation, fusion, diversification and
// ingest batching. Start from DefaultSettings and override fields.
type Settings settings.Settings

// DefaultSettings returns the tuned defaults for hybrid retrieval.
func DefaultSettings() Settings {
	return Settings(settings.Default())
}

// Document is raw source material to be split, embedded and indexed.
type Document struct {
	// Source identifies the document origin (file path, URL, collection name).
	Source string
	// Content is the raw document text.
	Content string
	// Trust is the provenance class: Trusted or Untrusted (the default).
	Trust string
	// ContentType tags the content kind; defaults to "text".
	ContentType string
	// Quality is a relevance prior in [0,1].
	Quality float64
}

func (d Document) toDomain() (domingest.Document, error) {
	doc, err := domingest.NewDocument(d.Source, d.Content, chunk.Trust(d.Trust), d.ContentType, d.Quality)
	if err != nil {
		return domingest.Document{}, fmt.Errorf("document %q: %w", d.Source, err)
	}
	return doc, nil
}

// Result is a single retrieved chunk.
type Result struct {
	ID          string
	Content     string
	Source      string
	Trust       string
	ContentType string
	// Score is the fused relevance score. Higher is better; comparable only
	// within one retrieval pass.
	Score float64
}

// SearchReport is the outcome of one retrieval pass.
type SearchReport struct {
	Results []Result
	// SemanticHits and TextHits count the candidates each stage produced.
	SemanticHits int
	TextHits     int
	// Degraded is true when one retrieval stage failed and the pass ran on
	// the other; Warnings describes the failures.
	Degraded bool
	Warnings []string
	// Context renders the results as provenance-labelled text blocks ready
	// for prompt assembly.
	Context string
}

func searchReportFromDomain(rep result.Report) SearchReport {
	results := make([]Result, len(rep.Results()))
	for i, res := range rep.Results() {
		c := res.Chunk()
		results[i] = Result{
			ID:          c.ID(),
			Content:     c.Content(),
			Source:      c.Source(),
			Trust:       string(c.Trust()),
			ContentType: c.ContentType(),
			Score:       res.Fused(),
		}
	}
	return SearchReport{
		Results:      results,
		SemanticHits: rep.SemanticHits(),
		TextHits:     rep.TextHits(),
		Degraded:     rep.Degraded(),
		Warnings:     rep.Warnings(),
		Context:      rep.ContextBlocks(),
	}
}

// BatchFailure describes one ingest batch that was not indexed.
type BatchFailure struct {
	Batch    int
	ChunkIDs []string
	Err      error
}

// IngestReport is the outcome of one ingest pass.
type IngestReport struct {
	TotalChunks  int
	Indexed      int
	Failures     []BatchFailure
	PromptTokens int
	TotalTokens  int
}

func ingestReportFromDomain(rep domingest.Report) IngestReport {
	var failures []BatchFailure
	for _, b := range rep.Failures() {
		failures = append(failures, BatchFailure{
			Batch:    b.Batch(),
			ChunkIDs: b.ChunkIDs(),
			Err:      b.Err(),
		})
	}
	return IngestReport{
		TotalChunks:  rep.TotalChunks(),
		Indexed:      rep.Indexed(),
		Failures:     failures,
		PromptTokens: rep.PromptTokens(),
		TotalTokens:  rep.TotalTokens(),
	}
}

// Embedding is the result of vectorizing one text.
type Embedding struct {
	Vector       []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder is a custom text vectorization provider.
type Embedder interface {
	Embed(ctx context.Context, text string) (Embedding, error)
}

// embedderAdapter wraps a public Embedder to satisfy the internal contracts.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Vector,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, a, texts)
}
