// Package server wires the application together: router, middleware, routes
// and the store. It is the composition root; every dependency is
// constructed here and injected downward, so nothing in the tree reaches
// for process-wide state.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/sakif/exercise-tracker/internal/config"
	"github.com/sakif/exercise-tracker/internal/handler"
	"github.com/sakif/exercise-tracker/internal/middleware"
	"github.com/sakif/exercise-tracker/internal/observability"
	sqliteRepo "github.com/sakif/exercise-tracker/internal/repository/sqlite"
	"github.com/sakif/exercise-tracker/internal/service"
)

// Server owns the router, the configuration and the database handle. The
// database is opened in New and closed during Start's shutdown path.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain: sqlite store, user service, user
// handler, routes. The handler never touches the database directly and the
// service never touches HTTP.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// GET  /api/exercise/users     list users
// GET  /api/exercise/log       exercise log with filtering
// POST /api/exercise/new-user  create user
// POST /api/exercise/add       append exercise
// GET  /metrics                Prometheus metrics
// GET  /health                 liveness check
// GET  /, /static/*            index page and static assets
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(observability.Middleware(routePattern))

	// The original service sat behind cors() with no restrictions; same
	// posture here.
	s.router.Use(cors.AllowAll().Handler)

	userService := service.NewUserService(s.db, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	s.router.Route("/api/exercise", func(r chi.Router) {
		r.Get("/users", userHandler.HandleListUsers)
		r.Get("/log", userHandler.HandleGetLog)
		r.Post("/new-user", userHandler.HandleCreateUser)
		r.Post("/add", userHandler.HandleAddExercise)
	})

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, s.config.StaticDir+"/index.html")
	})

	// Everything else: plain-text 404, matching the published contract.
	s.router.NotFound(handler.NotFoundHandler)
}

// routePattern resolves the matched chi pattern for metrics labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
