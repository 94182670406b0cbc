package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/problem-browser/internal/session"
)

// sessionContext resolves the {id} URL parameter to a live session
func (s *Server) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			respondError(w, http.StatusBadRequest, "validation_error", "session id is required")
			return
		}

		sess, err := s.sessions.Get(id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				respondError(w, http.StatusNotFound, "not_found", "session not found")
				return
			}
			slog.Error("failed to get session", "error", err, "session_id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to get session")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}
