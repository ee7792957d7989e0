// Package httpapi exposes the retrieval engine over HTTP: search, document
// ingestion and health, JSON in and out.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arcline-ai/ragdex/internal/domain"
	"github.com/arcline-ai/ragdex/internal/domain/chunk"
	domingest "github.com/arcline-ai/ragdex/internal/domain/ingest"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/result"
	"github.com/arcline-ai/ragdex/internal/domain/retrieval/settings"
	logpkg "github.com/arcline-ai/ragdex/internal/logger"
	healthuc "github.com/arcline-ai/ragdex/internal/usecase/health"
)

const maxRequestBody = 8 << 20 // 8MB

// Retriever runs one hybrid retrieval pass.
type Retriever interface {
	Retrieve(ctx context.Context, query string, set settings.Settings) (result.Report, error)
}

// Ingester indexes raw documents.
type Ingester interface {
	Ingest(ctx context.Context, docs []domingest.Document, set settings.Settings) (domingest.Report, error)
}

// HealthChecker aggregates component probes.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers and the per-deployment default settings.
type Server struct {
	retriever Retriever
	ingester  Ingester
	health    HealthChecker
	defaults  settings.Settings
	logger    *zap.Logger
}

// NewServer creates the HTTP API server. defaults are the deployment's
// retrieval settings; search requests may override individual knobs.
func NewServer(r Retriever, i Ingester, h HealthChecker, defaults settings.Settings, logger *zap.Logger) *Server {
	return &Server{retriever: r, ingester: i, health: h, defaults: defaults, logger: logger}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.handleSearch)
	r.Post("/documents", s.handleIngest)
	r.Get("/health", s.handleHealth)
}

// searchRequest carries the query and optional per-request setting overrides.
type searchRequest struct {
	Query              string   `json:"query"`
	FinalK             *int     `json:"final_k,omitempty"`
	SemanticCandidates *int     `json:"semantic_candidates,omitempty"`
	SemanticThreshold  *float64 `json:"semantic_threshold,omitempty"`
	TextCandidates     *int     `json:"text_candidates,omitempty"`
	SemanticWeight     *float64 `json:"semantic_weight,omitempty"`
	TextWeight         *float64 `json:"text_weight,omitempty"`
	FusionK            *int     `json:"fusion_k,omitempty"`
	UseDiversification *bool    `json:"use_diversification,omitempty"`
	MMRLambda          *float64 `json:"mmr_lambda,omitempty"`
}

type searchResult struct {
	Content     string  `json:"content"`
	Source      string  `json:"source"`
	Trust       string  `json:"trust"`
	ContentType string  `json:"content_type"`
	Score       float64 `json:"score"`
}

type searchResponse struct {
	Results  []searchResult `json:"results"`
	Degraded bool           `json:"degraded"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	set := req.apply(s.defaults)
	if err := set.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_settings", err.Error())
		return
	}

	report, err := s.retriever.Retrieve(r.Context(), req.Query, set)
	if err != nil {
		s.writeRetrieveError(r.Context(), w, err)
		return
	}

	resp := searchResponse{
		Results:  make([]searchResult, len(report.Results())),
		Degraded: report.Degraded(),
		Warnings: report.Warnings(),
	}
	for i, res := range report.Results() {
		c := res.Chunk()
		resp.Results[i] = searchResult{
			Content:     c.Content(),
			Source:      c.Source(),
			Trust:       string(c.Trust()),
			ContentType: c.ContentType(),
			Score:       res.Fused(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// apply overlays the request's overrides on the deployment defaults.
func (req *searchRequest) apply(set settings.Settings) settings.Settings {
	if req.FinalK != nil {
		set.FinalK = *req.FinalK
	}
	if req.SemanticCandidates != nil {
		set.SemanticCandidates = *req.SemanticCandidates
	}
	if req.SemanticThreshold != nil {
		set.SemanticThreshold = *req.SemanticThreshold
	}
	if req.TextCandidates != nil {
		set.TextCandidates = *req.TextCandidates
	}
	if req.SemanticWeight != nil {
		set.SemanticWeight = *req.SemanticWeight
	}
	if req.TextWeight != nil {
		set.TextWeight = *req.TextWeight
	}
	if req.FusionK != nil {
		set.FusionK = *req.FusionK
	}
	if req.UseDiversification != nil {
		set.UseDiversification = *req.UseDiversification
	}
	if req.MMRLambda != nil {
		set.MMRLambda = *req.MMRLambda
	}
	return set
}

type ingestDocument struct {
	Source      string  `json:"source"`
	Content     string  `json:"content"`
	Trust       string  `json:"trust,omitempty"`
	ContentType string  `json:"content_type,omitempty"`
	Quality     float64 `json:"quality,omitempty"`
}

type ingestRequest struct {
	Documents []ingestDocument `json:"documents"`
}

type batchFailure struct {
	Batch    int      `json:"batch"`
	ChunkIDs []string `json:"chunk_ids"`
	Error    string   `json:"error"`
}

type ingestResponse struct {
	Chunks      int            `json:"chunks"`
	Indexed     int            `json:"indexed"`
	Failures    []batchFailure `json:"failures,omitempty"`
	TotalTokens int            `json:"total_tokens"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "documents is required")
		return
	}

	docs := make([]domingest.Document, len(req.Documents))
	for i, d := range req.Documents {
		doc, err := domingest.NewDocument(d.Source, d.Content, chunk.Trust(d.Trust), d.ContentType, d.Quality)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		docs[i] = doc
	}

	report, err := s.ingester.Ingest(r.Context(), docs, s.defaults)
	if err != nil {
		s.writeIngestError(r.Context(), w, err)
		return
	}

	resp := ingestResponse{
		Chunks:      report.TotalChunks(),
		Indexed:     report.Indexed(),
		TotalTokens: report.TotalTokens(),
	}
	for _, f := range report.Failures() {
		resp.Failures = append(resp.Failures, batchFailure{
			Batch:    f.Batch(),
			ChunkIDs: f.ChunkIDs(),
			Error:    f.Err().Error(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// decode reads a JSON body with a size cap. Returns false after writing
// the error response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeRetrieveError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "empty_query", "query is required")
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, "provider_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", "retrieval timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, statusClientClosedRequest, "canceled", "request canceled")
	default:
		s.requestLogger(ctx).Error("Search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (s *Server) writeIngestError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidChunk):
		writeError(w, http.StatusBadRequest, "invalid_document", err.Error())
	case errors.Is(err, domain.ErrSchemaMismatch):
		writeError(w, http.StatusConflict, "schema_mismatch", err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, statusClientClosedRequest, "canceled", "request canceled")
	default:
		s.requestLogger(ctx).Error("Ingestion failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// requestLogger prefers the request-scoped logger (which carries request_id)
// over the server-wide one.
func (s *Server) requestLogger(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}

// statusClientClosedRequest is the nginx convention for a canceled request.
const statusClientClosedRequest = 499

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
