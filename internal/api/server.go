// Package api exposes the HTTP interface for the analysis service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evergreenlabs/leadscope/internal/analyzer"
	"github.com/evergreenlabs/leadscope/internal/config"
	"github.com/evergreenlabs/leadscope/internal/delivery"
	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/metrics"
	"github.com/evergreenlabs/leadscope/internal/questionnaire"
)

// Server wires HTTP handlers to the analyzer and deliverer.
type Server struct {
	router    chi.Router
	analyzer  *analyzer.Analyzer
	deliverer *delivery.Deliverer
	logger    *zap.Logger
	cfg       config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(a *analyzer.Analyzer, d *delivery.Deliverer, logger *zap.Logger, cfg config.Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer:  a,
		deliverer: d,
		logger:    logger,
		cfg:       cfg,
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(timeout))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Post("/analyze/manual", s.analyzeManual)
		r.Get("/reports/latest", s.latestReport)
		r.Get("/questionnaire", s.getQuestionnaire)
		r.Post("/questionnaire/score", s.scoreQuestionnaire)
		r.Post("/leads", s.submitLead)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// analyze runs the automatic pipeline for a storefront URL. Hard
// validation failures come back as 422 with the validation detail so
// clients can fall back to manual entry.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type manualAnalyzeRequest struct {
	URL      string            `json:"url"`
	Metadata game.GameMetadata `json:"metadata"`
}

// analyzeManual builds a report from user-entered metadata, the
// fallback path when automatic extraction cannot produce a valid record.
func (s *Server) analyzeManual(w http.ResponseWriter, r *http.Request) {
	var req manualAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rep, err := s.analyzer.ManualAnalyze(r.Context(), req.Metadata, req.URL)
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, err error) {
	var ve *game.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "metadata failed validation",
			"validation": ve.Result,
		})
		return
	}
	var fe *game.FetchError
	if errors.As(err, &fe) {
		writeError(w, http.StatusBadGateway, "automatic analysis failed: "+fe.Error())
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusRequestTimeout, "analysis timed out")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) latestReport(w http.ResponseWriter, r *http.Request) {
	rep, ok, err := s.analyzer.LatestReport(r.Context())
	if err != nil {
		s.logger.Error("failed to load latest report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load latest report")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no report available")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) getQuestionnaire(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": questionnaire.Categories(),
	})
}

type scoreRequest struct {
	Answers []questionnaire.Answer `json:"answers"`
}

type scoreResponse struct {
	questionnaire.Result
	Interpretation  string                                  `json:"interpretation"`
	Summary         string                                  `json:"summary"`
	Recommendations map[string]questionnaire.Recommendation `json:"recommendations"`
}

// scoreQuestionnaire scores a set of answers and attaches the
// recommendations for the two weakest categories.
func (s *Server) scoreQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := questionnaire.ValidateAnswers(req.Answers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := questionnaire.Score(req.Answers, time.Now())
	recs := make(map[string]questionnaire.Recommendation, len(result.LowestCategories))
	for _, cs := range result.LowestCategories {
		recs[cs.CategoryID] = questionnaire.RecommendationFor(cs.CategoryID)
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Result:          result,
		Interpretation:  questionnaire.FormatScore(result.OverallScore),
		Summary:         questionnaire.TextSummary(result),
		Recommendations: recs,
	})
}

type leadRequest struct {
	Lead     delivery.Lead   `json:"lead"`
	Analysis json.RawMessage `json:"analysis"`
}

type leadResponse struct {
	Delivered bool `json:"delivered"`
	Queued    bool `json:"queued"`
}

// submitLead forwards a captured lead with its analysis payload to the
// configured webhook. A 202 with queued=true means the webhook was
// unreachable and the payload sits in the retry queue.
func (s *Server) submitLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateLead(req.Lead); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.deliverer == nil || !s.deliverer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "lead delivery is not configured")
		return
	}

	delivered, queued, err := s.deliverer.Deliver(r.Context(), req.Lead, req.Analysis)
	if err != nil {
		s.logger.Error("lead delivery failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lead could not be delivered or queued")
		return
	}
	writeJSON(w, http.StatusAccepted, leadResponse{Delivered: delivered, Queued: queued})
}

func validateLead(lead delivery.Lead) error {
	if strings.TrimSpace(lead.Name) == "" {
		return fmt.Errorf("lead name is required")
	}
	if _, err := mail.ParseAddress(lead.Email); err != nil {
		return fmt.Errorf("lead email is invalid")
	}
	return nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
