package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/problem-browser/internal/browse"
	"github.com/terra-clan/problem-browser/internal/division"
	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/render"
	"github.com/terra-clan/problem-browser/internal/session"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	respondJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SessionFromContext(r.Context()).View())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := s.sessions.Delete(r.Context(), sess.ID()); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to delete session", "error", err, "session_id", sess.ID())
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete session")
		return
	}
	s.hub.CloseSession(sess.ID())

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleToggleDivision(w http.ResponseWriter, r *http.Request) {
	d := models.Division(chi.URLParam(r, "division"))
	if !division.Known(d) {
		respondError(w, http.StatusBadRequest, "validation_error", "unknown division")
		return
	}

	sess := SessionFromContext(r.Context())
	sess.ToggleDivision(d)
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleToggleIndex(w http.ResponseWriter, r *http.Request) {
	index := strings.ToUpper(chi.URLParam(r, "index"))
	if !validIndex(index) {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid problem index")
		return
	}

	sess := SessionFromContext(r.Context())
	sess.ToggleIndex(index)
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleSetSortOrder(w http.ResponseWriter, r *http.Request) {
	var req models.SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess := SessionFromContext(r.Context())
	if err := sess.SetSortOrder(req.Order); err != nil {
		if errors.Is(err, browse.ErrInvalidSortOrder) {
			respondError(w, http.StatusBadRequest, "validation_error", "order must be newest or oldest")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set sort order")
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleSetViewMode(w http.ResponseWriter, r *http.Request) {
	var req models.ViewModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess := SessionFromContext(r.Context())
	if err := sess.SetViewMode(req.Mode); err != nil {
		if errors.Is(err, session.ErrInvalidViewMode) {
			respondError(w, http.StatusBadRequest, "validation_error", "mode must be list or card")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set view mode")
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	list := s.presets.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": list,
		"total":   len(list),
	})
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	preset, err := s.presets.Get(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "preset not found")
		return
	}

	sess := SessionFromContext(r.Context())
	if err := sess.ApplyPreset(*preset); err != nil {
		slog.Error("failed to apply preset", "error", err, "preset", preset.Name, "session_id", sess.ID())
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to apply preset")
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleSessionProgress(w http.ResponseWriter, r *http.Request) {
	contestID, index, ok := problemRef(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid contest id or problem index")
		return
	}

	var req models.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Done == nil && req.Notes == nil {
		respondError(w, http.StatusBadRequest, "validation_error", "done or notes is required")
		return
	}

	sess := SessionFromContext(r.Context())
	p, err := sess.UpdateProgress(r.Context(), contestID, index, req)
	respondProgress(w, contestID, index, p, err)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	view := SessionFromContext(r.Context()).View()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="problems.csv"`)
	if err := render.CSV(w, view.Entries); err != nil {
		slog.Error("failed to export csv", "error", err, "session_id", view.SessionID)
	}
}
