// Package retrieval implements the hybrid retrieval pipeline: concurrent
// semantic and text search stages, reciprocal rank fusion, and MMR
// diversification of the fused pool.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/candidate"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/result"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
	"github.com/arcline-ai/ragdex/internal/metrics"
	"github.com/arcline-ai/ragdex/internal/retry"
)

// Service runs one hybrid retrieval per call.
type Service struct {
	repo     Repository
	embed    Embedder
	retryCfg retry.Config
	logger   *zap.Logger
}

// New creates a retrieval service. Backend searches are retried per retryCfg;
// embedding retries belong to the embedder chain, not this service.
func New(repo Repository, embed Embedder, retryCfg retry.Config, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, retryCfg: retryCfg, logger: logger}
}

// Retrieve answers a query with at most settings.FinalK chunks: both stages
// run concurrently, their lists are fused, and the fused pool is diversified.
// One stage failing degrades the pass to the surviving list and records a
// warning on the report; both failing is a hard error. An empty pool is an
// empty report, not an error.
func (s *Service) Retrieve(ctx context.Context, query string, set settings.Settings) (result.Report, error) {
	if strings.TrimSpace(query) == "" {
		return result.Report{}, domain.ErrEmptyQuery
	}
	if err := set.Validate(); err != nil {
		return result.Report{}, fmt.Errorf("validate settings: %w", err)
	}

	start := time.Now()

	semantic, text, warnings, err := s.gather(ctx, query, set)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return result.Report{}, err
	}

	pool := fuse(semantic, text, set)

	var final []candidate.Candidate
	if set.UseDiversification {
		final = diversify(pool, set.FinalK, set.MMRLambda)
	} else {
		final = topK(pool, set.FinalK)
	}

	results := make([]result.Result, len(final))
	for i := range final {
		results[i] = result.FromCandidate(final[i])
	}

	metrics.RetrievalPoolSize.Observe(float64(len(pool)))
	metrics.RetrievalRequestsTotal.WithLabelValues("ok").Inc()

	s.logger.Debug("Retrieval completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("semantic_hits", len(semantic)),
		zap.Int("text_hits", len(text)),
		zap.Int("pool_size", len(pool)),
		zap.Int("results", len(results)),
		zap.Bool("degraded", len(warnings) > 0),
	)

	return result.NewReport(results, len(semantic), len(text), warnings), nil
}

// gather runs the semantic and text stages concurrently and applies the
// degraded-mode policy: one stage may fail as long as the other survives.
func (s *Service) gather(
	ctx context.Context, query string, set settings.Settings,
) (semantic, text []candidate.Hit, warnings []string, err error) {
	var semErr, textErr error

	// Stage errors are captured, not returned: returning one would cancel
	// the sibling stage, and a degraded pass needs the survivor's results.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		semantic, semErr = s.semanticStage(gctx, query, set)
		return nil
	})
	g.Go(func() error {
		text, textErr = s.textStage(gctx, query, set)
		return nil
	})
	_ = g.Wait()

	// Cancellation is all-or-nothing for a retrieval pass: partial results
	// from one stage never flow into fusion.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, nil, ctxErr
	}

	if semErr != nil && textErr != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Join(semErr, textErr))
	}

	if semErr != nil {
		warnings = append(warnings, "semantic stage failed, serving text-only results: "+semErr.Error())
		metrics.RetrievalDegradedTotal.WithLabelValues("semantic").Inc()
		s.logger.Warn("Semantic stage failed, continuing text-only", zap.Error(semErr))
	}
	if textErr != nil {
		warnings = append(warnings, "text stage failed, serving semantic-only results: "+textErr.Error())
		metrics.RetrievalDegradedTotal.WithLabelValues("text").Inc()
		s.logger.Warn("Text stage failed, continuing semantic-only", zap.Error(textErr))
	}

	return semantic, text, warnings, nil
}

// semanticStage embeds the query and runs vector search. An embedding failure
// fails the stage: no silent fallback to an empty list.
func (s *Service) semanticStage(
	ctx context.Context, query string, set settings.Settings,
) ([]candidate.Hit, error) {
	defer observeStage("semantic", time.Now())

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := retry.Do(ctx, s.retryCfg, func() ([]candidate.Hit, error) {
		return s.repo.SearchSemantic(ctx, emb.Embedding, set.SemanticCandidates, set.SemanticThreshold)
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return hits, nil
}

// textStage runs keyword search; it never touches the embedding provider.
func (s *Service) textStage(
	ctx context.Context, query string, set settings.Settings,
) ([]candidate.Hit, error) {
	defer observeStage("text", time.Now())

	hits, err := retry.Do(ctx, s.retryCfg, func() ([]candidate.Hit, error) {
		return s.repo.SearchText(ctx, query, set.TextCandidates)
	})
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return hits, nil
}

func observeStage(stage string, start time.Time) {
	metrics.RetrievalStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
