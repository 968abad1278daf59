package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

const (
	errCodeNotFound      = "NOT_FOUND"
	errCodeUnknownArtist = "UNKNOWN_ARTIST"
	errCodeDataError     = "DATA_ERROR"
	errCodeInternal      = "INTERNAL"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ctxKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorWithCode(w, status, msg, "")
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code, RequestID: w.Header().Get("X-Request-ID")})
}

// writeServiceError maps pipeline errors onto HTTP statuses. Data
// preparation failures are server errors: the page cannot be built.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	case errors.Is(err, domain.ErrUnknownArtist):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeUnknownArtist)
	case errors.Is(err, domain.ErrMissingColumn),
		errors.Is(err, domain.ErrUnexpectedValue),
		errors.Is(err, domain.ErrMalformedInput),
		errors.Is(err, domain.ErrChecksumMismatch):
		h.log.Error("page data error", zap.String("id", RequestID(r.Context())), zap.String("path", r.URL.Path), zap.Error(err))
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeDataError)
	default:
		if errors.Is(err, context.Canceled) {
			return
		}
		h.log.Error("request failed", zap.String("id", RequestID(r.Context())), zap.String("path", r.URL.Path), zap.Error(err))
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestID tags the request with an id (reusing a well-formed incoming
// X-Request-ID) and logs the outcome.
func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		h.log.Info("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
