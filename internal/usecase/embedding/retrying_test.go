package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/retry"
)

// flakyEmbedder fails the first failures calls, then serves result.
type flakyEmbedder struct {
	failures int
	err      error
	result   domain.EmbeddingResult
	calls    int

	batchFailures int
	batchErr      error
	batchResult   domain.BatchEmbeddingResult
	batchCalls    int
}

func (m *flakyEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.calls <= m.failures {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func (m *flakyEmbedder) BatchEmbed(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.batchCalls <= m.batchFailures {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	return m.batchResult, nil
}

func fastRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2,
		RetryIf:    Transient,
	}
}

func TestRetryingEmbedder_RetriesTransientFailure(t *testing.T) {
	inner := &flakyEmbedder{
		failures: 2,
		err:      domain.ErrRateLimited,
		result:   domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}},
	}
	r := NewRetryingEmbedder(inner, fastRetryConfig())

	result, err := r.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(result.Embedding))
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls (1 attempt + 2 retries), got %d", inner.calls)
	}
}

func TestRetryingEmbedder_ExhaustsRetries(t *testing.T) {
	inner := &flakyEmbedder{
		failures: 10,
		err:      fmt.Errorf("provider down"),
	}
	r := NewRetryingEmbedder(inner, fastRetryConfig())

	_, err := r.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls (1 attempt + 2 retries), got %d", inner.calls)
	}
}

func TestRetryingEmbedder_InvalidInputNotRetried(t *testing.T) {
	inner := &flakyEmbedder{
		failures: 10,
		err:      fmt.Errorf("text too long: %w", domain.ErrInvalidInput),
	}
	r := NewRetryingEmbedder(inner, fastRetryConfig())

	_, err := r.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected domain.ErrInvalidInput, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call for a permanent failure, got %d", inner.calls)
	}
}

func TestRetryingEmbedder_ContextCanceled(t *testing.T) {
	inner := &flakyEmbedder{
		failures: 10,
		err:      domain.ErrRateLimited,
	}
	r := NewRetryingEmbedder(inner, fastRetryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Embed(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call before cancellation surfaced, got %d", inner.calls)
	}
}

func TestRetryingEmbedder_BatchEmbed_Retries(t *testing.T) {
	inner := &flakyEmbedder{
		batchFailures: 1,
		batchErr:      domain.ErrEmbeddingProviderError,
		batchResult: domain.BatchEmbeddingResult{
			Embeddings:  [][]float32{{0.1}, {0.2}},
			TotalTokens: 20,
		},
	}
	r := NewRetryingEmbedder(inner, fastRetryConfig())

	res, err := r.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if inner.batchCalls != 2 {
		t.Errorf("expected 2 batch calls, got %d", inner.batchCalls)
	}
}

func TestRetryingEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	inner := &plainMockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1},
		TotalTokens: 5,
	}}
	r := NewRetryingEmbedder(inner, fastRetryConfig())

	res, err := r.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 fallback Embed calls, got %d", inner.calls)
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", fmt.Errorf("boom"), true},
		{"rate limited", domain.ErrRateLimited, true},
		{"provider error", domain.ErrEmbeddingProviderError, true},
		{"invalid input", domain.ErrInvalidInput, false},
		{"wrapped invalid input", fmt.Errorf("bad request: %w", domain.ErrInvalidInput), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 2 {
		t.Errorf("expected 2 max retries, got %d", cfg.MaxRetries)
	}
	if cfg.BaseDelay != 200*time.Millisecond {
		t.Errorf("expected 200ms base delay, got %v", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 2*time.Second {
		t.Errorf("expected 2s max delay, got %v", cfg.MaxDelay)
	}
	if cfg.RetryIf == nil {
		t.Fatal("expected RetryIf predicate")
	}
	if cfg.RetryIf(domain.ErrInvalidInput) {
		t.Error("expected invalid input to be non-retryable")
	}
}
