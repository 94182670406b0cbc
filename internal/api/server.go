package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/problem-browser/internal/catalog"
	"github.com/terra-clan/problem-browser/internal/config"
	"github.com/terra-clan/problem-browser/internal/health"
	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/presets"
	"github.com/terra-clan/problem-browser/internal/progress"
	"github.com/terra-clan/problem-browser/internal/session"
)

var errCatalogNotReady = errors.New("problem catalog not loaded")

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	catalog  *catalog.Catalog
	progress *progress.Store
	sessions *session.Manager
	presets  *presets.Loader
	health   *health.Registry
	hub      *Hub
}

// NewServer creates a new API server and wires change notifications from
// the catalog, the progress store and the sessions into the websocket hub
func NewServer(
	cfg config.ServerConfig,
	cat *catalog.Catalog,
	store *progress.Store,
	sessions *session.Manager,
	presetLoader *presets.Loader,
) *Server {
	s := &Server{
		config:   cfg,
		catalog:  cat,
		progress: store,
		sessions: sessions,
		presets:  presetLoader,
		health:   health.NewRegistry(),
		hub:      NewHub(),
	}

	s.health.Register("progress", health.CheckFunc(store.Ping))
	s.health.Register("catalog", health.CheckFunc(func(context.Context) error {
		if !cat.Ready() {
			return errCatalogNotReady
		}
		return nil
	}))

	cat.Subscribe(func(models.CatalogSnapshot) { s.pushAll() })
	store.Subscribe(func(string, models.Progress) { s.pushAll() })
	sessions.Subscribe(s.pushSession)

	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the websocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/meta", s.handleMeta)
		r.Get("/presets", s.handleListPresets)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", s.handleGetCatalog)
			r.Post("/refresh", s.handleRefreshCatalog)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", s.handleListProgress)
			r.Get("/{contestId}/{index}", s.handleGetProgress)
			r.Patch("/{contestId}/{index}", s.handleUpdateProgress)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.sessionContext)

				r.Get("/", s.handleGetView)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/divisions/{division}/toggle", s.handleToggleDivision)
				r.Post("/indices/{index}/toggle", s.handleToggleIndex)
				r.Put("/sort", s.handleSetSortOrder)
				r.Put("/view-mode", s.handleSetViewMode)
				r.Post("/presets/{name}", s.handleApplyPreset)
				r.Patch("/progress/{contestId}/{index}", s.handleSessionProgress)
				r.Get("/export.csv", s.handleExportCSV)
				r.Get("/ws", s.handleViewWS)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
