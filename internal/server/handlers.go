package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/logging"
)

type analyzeRequest struct {
	Ticker string `json:"ticker"`
}

// handleIndex lists the available endpoints.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Equity Valuator API",
		"version": s.version,
		"endpoints": map[string]string{
			"health":      "/api/health",
			"analyze":     "POST /api/analyze",
			"quick_quote": "GET /api/quick-quote?ticker=",
			"metrics":     "/metrics",
		},
	})
}

// handleHealth runs the registered health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.Check(r.Context())

	status := http.StatusOK
	if health.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

// handleAnalyze runs the full valuation pipeline for one ticker.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), req.Ticker)
	if err != nil {
		s.writeFailure(w, r, "analysis failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// handleQuickQuote returns the latest price for ?ticker=.
func (s *Server) handleQuickQuote(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	quote, err := s.analyzer.Quote(r.Context(), ticker)
	if err != nil {
		s.writeFailure(w, r, "quote failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInputValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrTickerNotFound), errors.Is(err, apperrors.ErrDataNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	status := statusFor(err)
	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg(prefix)
	} else {
		logger.Warn().Err(err).Int("status", status).Msg(prefix)
	}
	s.writeError(w, status, apperrors.Wrap(err, prefix).Error())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
