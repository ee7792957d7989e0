package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/retry"
)

// Transient reports whether an embedding failure is worth retrying.
// Malformed requests stay malformed no matter how often they are resent.
func Transient(err error) bool {
	return !errors.Is(err, domain.ErrInvalidInput)
}

// DefaultRetryConfig is the backoff schedule for provider calls:
// two retries after the first attempt, 200ms base delay, doubling up to 2s.
func DefaultRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2,
		RetryIf:    Transient,
	}
}

// RetryingEmbedder wraps an embedder with bounded exponential backoff on
// transient provider failures. It owns all embedding retries; callers
// further up the chain must not retry again.
type RetryingEmbedder struct {
	inner domain.Embedder
	cfg   retry.Config
}

// NewRetryingEmbedder wraps an embedder with the given retry schedule.
func NewRetryingEmbedder(inner domain.Embedder, cfg retry.Config) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, cfg: cfg}
}

// Embed retries the inner embedder on transient failures.
func (r *RetryingEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	result, err := retry.Do(ctx, r.cfg, func() (domain.EmbeddingResult, error) {
		return r.inner.Embed(ctx, text)
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed with retry: %w", err)
	}
	return result, nil
}

// BatchEmbed retries the inner batch endpoint on transient failures,
// falling back to sequential single embeds when the inner embedder has
// no batch support.
func (r *RetryingEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	result, err := retry.Do(ctx, r.cfg, func() (domain.BatchEmbeddingResult, error) {
		return batchOrFallback(ctx, r.inner, texts)
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed with retry: %w", err)
	}
	return result, nil
}
