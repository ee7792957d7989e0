package result

import (
	"fmt"
	"strings"
)

// Report is the outcome of one retrieval pass.
type Report struct {
	results      []Result
	semanticHits int
	textHits     int
	degraded     bool
	warnings     []string
}

// NewReport creates a retrieval report.
func NewReport(results []Result, semanticHits, textHits int, warnings []string) Report {
	return Report{
		results:      results,
		semanticHits: semanticHits,
		textHits:     textHits,
		degraded:     len(warnings) > 0,
		warnings:     warnings,
	}
}

// Results returns the final ranked chunks.
func (r *Report) Results() []Result { return r.results }

// SemanticHits returns the candidate count produced by the semantic stage.
func (r *Report) SemanticHits() int { return r.semanticHits }

// TextHits returns the candidate count produced by the text stage.
func (r *Report) TextHits() int { return r.textHits }

// Degraded reports whether one retrieval stage failed and the pass ran on the other.
func (r *Report) Degraded() bool { return r.degraded }

// Warnings returns human-readable notes about degraded stages.
func (r *Report) Warnings() []string { return r.warnings }

// ContextBlocks renders the results as provenance-labelled text blocks
// ready for prompt assembly, separated by blank lines.
func (r *Report) ContextBlocks() string {
	if len(r.results) == 0 {
		return ""
	}
	blocks := make([]string, len(r.results))
	for i := range r.results {
		res := &r.results[i]
		blocks[i] = fmt.Sprintf("[source:%s][trust:%s] %s", res.Source(), res.Trust(), res.Content())
	}
	return strings.Join(blocks, "\n\n")
}
