package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/problem-browser/internal/browse"
	"github.com/terra-clan/problem-browser/internal/catalog"
	"github.com/terra-clan/problem-browser/internal/health"
	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/progress"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// problemRef parses the {contestId} and {index} URL parameters
func problemRef(r *http.Request) (int, string, bool) {
	contestID, err := strconv.Atoi(chi.URLParam(r, "contestId"))
	if err != nil || contestID <= 0 {
		return 0, "", false
	}
	index := strings.ToUpper(chi.URLParam(r, "index"))
	if !validIndex(index) {
		return 0, "", false
	}
	return contestID, index, true
}

// validIndex accepts codes like "A", "B1" or "F2"
func validIndex(index string) bool {
	if index == "" || len(index) > 3 {
		return false
	}
	for i, c := range index {
		isLetter := c >= 'A' && c <= 'Z'
		isDigit := c >= '0' && c <= '9'
		if (i == 0 && !isLetter) || (!isLetter && !isDigit) {
			return false
		}
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.CheckAll(r.Context())
	if failing := health.Failing(results); len(failing) > 0 {
		for _, name := range failing {
			slog.Warn("readiness check failed", "component", name, "error", results[name])
		}
		respondError(w, http.StatusServiceUnavailable, "not_ready", "not ready: "+strings.Join(failing, ", "))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Meta handlers

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.Meta{
		Divisions:      models.Divisions,
		Indices:        models.Indices,
		SortOrders:     []models.SortOrder{models.SortNewest, models.SortOldest},
		ViewModes:      []models.ViewMode{models.ViewList, models.ViewCard},
		DefaultFilters: browse.DefaultFilters(),
	})
}

// Catalog handlers

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.Snapshot())
}

// handleRefreshCatalog re-runs the fetch cycle. The cycle is shared by every
// session, so it is detached from the request and outlives a client that
// disconnects.
func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	err := s.catalog.Refresh(context.WithoutCancel(r.Context()))
	if errors.Is(err, catalog.ErrCycleCancelled) {
		respondError(w, http.StatusServiceUnavailable, "refresh_cancelled", "catalog refresh was cancelled")
		return
	}
	if err != nil && !errors.Is(err, catalog.ErrStaleCycle) {
		respondError(w, http.StatusBadGateway, "fetch_failed", "Failed to load problems from Codeforces API")
		return
	}
	respondJSON(w, http.StatusOK, s.catalog.Snapshot())
}

// Progress handlers

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	all := s.progress.All()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"progress": all,
		"total":    len(all),
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	contestID, index, ok := problemRef(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid contest id or problem index")
		return
	}

	// An untouched problem reports the default record, which is not stored.
	p := s.progress.Get(contestID, index)
	respondJSON(w, http.StatusOK, models.ProgressResponse{
		ContestID: contestID,
		Index:     index,
		Progress:  p,
		Persisted: p.UpdatedAt != 0,
	})
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
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

	p, err := s.progress.Update(r.Context(), contestID, index, req)
	respondProgress(w, contestID, index, p, err)
}

// respondProgress reports an update. A storage failure still returns the
// in-memory value, flagged as not persisted.
func respondProgress(w http.ResponseWriter, contestID int, index string, p models.Progress, err error) {
	if err != nil && !errors.Is(err, progress.ErrStorage) {
		slog.Error("failed to update progress", "error", err, "contest_id", contestID, "index", index)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update progress")
		return
	}

	respondJSON(w, http.StatusOK, models.ProgressResponse{
		ContestID: contestID,
		Index:     index,
		Progress:  p,
		Persisted: err == nil,
	})
}
