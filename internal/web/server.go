// Package web provides the HTTP API around the cleanup engine.
package web

import (
	"context"
	"net/http"

	"github.com/Marchen/ksjutil"
	"github.com/Marchen/ksjutil/internal/audit"
	"github.com/Marchen/ksjutil/internal/config"
	mw "github.com/Marchen/ksjutil/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the cleanup service.
type Server struct {
	engine   *ksjutil.Engine
	recorder *audit.Recorder // nil when no database is configured
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance. recorder may be nil.
func NewServer(store *ksjutil.Store, recorder *audit.Recorder, cfg *config.Config) *Server {
	s := &Server{
		engine:   ksjutil.NewEngine(store),
		recorder: recorder,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Post("/cleanup", s.handleCleanup)
		r.Post("/cleanup/geojson", s.handleCleanupGeoJSON)

		r.Get("/labels/{dataset}/{number}", s.handleLabel)
		r.Get("/codes/{dataset}/{number}", s.handleCodes)

		r.Get("/runs", s.handleRecentRuns)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
