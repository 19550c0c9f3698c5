package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/progress"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// respondDomainError maps trainer errors to HTTP statuses. Unexpected
// errors are logged and reported without detail.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrRosterNotReady):
		s.respondError(w, r, http.StatusServiceUnavailable, "roster is still loading")
	case errors.Is(err, progress.ErrUnknownCategory):
		s.respondError(w, r, http.StatusNotFound, "unknown category")
	case errors.Is(err, memory.ErrUnknownFlag):
		s.respondError(w, r, http.StatusNotFound, "unknown flag")
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}
