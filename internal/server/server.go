// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the item store comes in from main, and New
// builds everything on top of it:
//
//	repository.Store → service.ItemService → handler.ItemHandler / handler.APIHandler
//
// Keeping the wiring here rather than in main lets tests build a complete
// server around an in-memory store without opening a port.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/tasklist/internal/config"
	"github.com/sakif/tasklist/internal/csrf"
	"github.com/sakif/tasklist/internal/handler"
	"github.com/sakif/tasklist/internal/metrics"
	"github.com/sakif/tasklist/internal/middleware"
	"github.com/sakif/tasklist/internal/repository"
	"github.com/sakif/tasklist/internal/service"
	"github.com/sakif/tasklist/web"
)

// maxBodyBytes caps form submissions. An item is at most 255 characters, so
// anything near this size is not a real form post.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: Start closes it after the HTTP server has
// drained, so pending SQLite writes are flushed and the file lock released.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *metrics.Metrics
}

// New wires the router around store.
func New(cfg config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	GET  /            → list page (HTML)
//	POST /create      → add item, 302 → /
//	POST /update      → edit item, 302 → /
//	POST /delete      → remove item, 302 → /
//	GET  /api/items   → items as JSON
//	GET  /healthz     → store ping
//	GET  /metrics     → Prometheus
//	GET  /static/*    → embedded CSS
//
// Middleware order matters: RequestID must run before Logger so the id is in
// the log line, and Recoverer sits inside Logger so a recovered panic is
// still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.RequestSize(maxBodyBytes))

	itemService := service.NewItemService(s.store, s.metrics, s.logger)

	itemHandler, err := handler.NewItemHandler(itemService, web.Templates(), s.logger)
	if err != nil {
		return fmt.Errorf("creating item handler: %w", err)
	}
	apiHandler := handler.NewAPIHandler(itemService, s.store, s.logger)

	// === Page and form routes ===
	var protect func(http.Handler) http.Handler
	if s.config.CSRF.Disabled {
		s.logger.Warn("CSRF protection is disabled")
	} else {
		tokens, err := csrf.NewTokenService(s.config.CSRF.Secret, csrf.DefaultTTL)
		if err != nil {
			return fmt.Errorf("creating csrf token service: %w", err)
		}
		if s.config.CSRF.Secret == "" {
			s.logger.Warn("CSRF_SECRET not set; using a random key, open pages stop working after a restart")
		}
		protect = csrf.Protect(tokens, s.logger, handler.FormErrorWriter(s.logger))
	}

	s.router.Group(func(r chi.Router) {
		if protect != nil {
			r.Use(protect)
		}
		r.Get("/", itemHandler.HandleList)
		r.Post("/create", itemHandler.HandleCreate)
		r.Post("/update", itemHandler.HandleUpdate)
		r.Post("/delete", itemHandler.HandleDelete)
	})

	// === Read-only endpoints ===
	s.router.Get("/api/items", apiHandler.HandleListItems)
	s.router.Get("/healthz", apiHandler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	// === Static files ===
	// GET /static/style.css → web/static/style.css (embedded)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	return nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the item store
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing item store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("storage", s.config.Storage.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
