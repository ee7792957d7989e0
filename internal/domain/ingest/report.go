package ingest

// BatchResult is the outcome of indexing one batch of chunks.
type BatchResult struct {
	batch    int
	chunkIDs []string
	err      error
}

// NewBatchOK creates a successful batch result.
func NewBatchOK(batch int, chunkIDs []string) BatchResult {
	return BatchResult{batch: batch, chunkIDs: chunkIDs}
}

// NewBatchError creates a failed batch result.
func NewBatchError(batch int, chunkIDs []string, err error) BatchResult {
	return BatchResult{batch: batch, chunkIDs: chunkIDs, err: err}
}

// Batch returns the zero-based batch index.
func (r BatchResult) Batch() int { return r.batch }

// ChunkIDs returns the identifiers of the chunks in the batch.
func (r BatchResult) ChunkIDs() []string { return r.chunkIDs }

// Err returns the batch error, if any.
func (r BatchResult) Err() error { return r.err }

// Failed reports whether the batch was not indexed.
func (r BatchResult) Failed() bool { return r.err != nil }

// Report is the outcome of one ingest pass.
type Report struct {
	batches      []BatchResult
	promptTokens int
	totalTokens  int
}

// NewReport creates an ingest report from per-batch outcomes and token usage.
func NewReport(batches []BatchResult, promptTokens, totalTokens int) Report {
	return Report{batches: batches, promptTokens: promptTokens, totalTokens: totalTokens}
}

// Batches returns every batch outcome in batch order.
func (r *Report) Batches() []BatchResult { return r.batches }

// TotalChunks returns the number of chunks submitted across all batches.
func (r *Report) TotalChunks() int {
	n := 0
	for _, b := range r.batches {
		n += len(b.chunkIDs)
	}
	return n
}

// Indexed returns the number of chunks stored successfully.
func (r *Report) Indexed() int {
	n := 0
	for _, b := range r.batches {
		if !b.Failed() {
			n += len(b.chunkIDs)
		}
	}
	return n
}

// Failures returns the batches that were not indexed.
func (r *Report) Failures() []BatchResult {
	var failed []BatchResult
	for _, b := range r.batches {
		if b.Failed() {
			failed = append(failed, b)
		}
	}
	return failed
}

// PromptTokens returns the aggregate prompt token usage of the embedding calls.
func (r *Report) PromptTokens() int { return r.promptTokens }

// TotalTokens returns the aggregate token usage of the embedding calls.
func (r *Report) TotalTokens() int { return r.totalTokens }
