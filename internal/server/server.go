// Package server wires handlers, middleware and routes, and runs the HTTP
// server until it is told to stop.
//
// New is the composition root:
//
//	repository.Store → services → handlers → chi routes
//
// Each layer only receives what it needs. Services get repository
// interfaces (never the concrete store) and handlers get services.
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

	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/handler"
	"github.com/sakif/habit-tracker/internal/middleware"
	"github.com/sakif/habit-tracker/internal/repository"
	"github.com/sakif/habit-tracker/internal/service"
)

// Config holds the settings the router and services need. The store is
// passed to New separately because the caller decides which backend to
// open.
type Config struct {
	Port int

	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	CookieSecure       bool
	AppURL             string

	// Location decides what "today" is. Nil means the server's zone.
	Location *time.Location

	// PasswordCost overrides the bcrypt cost; zero keeps the default.
	PasswordCost int
	// Now overrides the clock. Tests pin it; production leaves it nil.
	Now service.Clock
}

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store
}

// New builds every service and handler on top of store and registers the
// routes. It fails only on configuration errors such as a short JWT
// secret.
func New(cfg Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes:
//
//	GET    /healthz
//	GET    /auth/github/login
//	GET    /auth/github/callback
//	POST   /auth/register
//	POST   /auth/login
//	POST   /auth/logout
//
//	/api (session required)
//	GET    /me
//	GET    /habits              POST /habits      DELETE /habits/{id}
//	GET    /month-habits        POST /month-habits DELETE /month-habits
//	GET    /completions         POST /completions
//	GET    /stats
//	GET    /journal             GET /journal/{id}  POST /journal
//	GET    /goals               POST /goals
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	if s.config.PasswordCost > 0 {
		passwords = auth.NewPasswordServiceWithCost(s.config.PasswordCost)
	}
	github := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	now := s.config.Now
	if now == nil {
		loc := s.config.Location
		if loc == nil {
			loc = time.Local
		}
		now = service.SystemClock(loc)
	}

	habitService := service.NewHabitService(s.store, s.store, now, s.logger)
	completionService := service.NewCompletionService(s.store, s.store, now, s.logger)
	statsService := service.NewStatsService(habitService, s.store, s.store, now, s.logger)
	journalService := service.NewJournalService(s.store, s.logger)
	goalService := service.NewGoalService(s.store, s.logger)
	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)

	authHandler := handler.NewAuthHandler(github, authService, handler.AuthOptions{
		SecureCookies: s.config.CookieSecure,
		SessionTTL:    tokens.TTL(),
		AppURL:        s.config.AppURL,
	}, s.logger)
	habitHandler := handler.NewHabitHandler(habitService, s.logger)
	completionHandler := handler.NewCompletionHandler(completionService, s.logger)
	statsHandler := handler.NewStatsHandler(statsService, s.logger)
	journalHandler := handler.NewJournalHandler(journalService, s.logger)
	goalHandler := handler.NewGoalHandler(goalService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	// Order matters: the request id must exist before Logger reads it, and
	// Recoverer sits inside Logger so a panic is still logged as a 500.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Get("/habits", habitHandler.HandleList)
		r.Post("/habits", habitHandler.HandleCreate)
		r.Delete("/habits/{id}", habitHandler.HandleDelete)

		r.Get("/month-habits", habitHandler.HandleMonthList)
		r.Post("/month-habits", habitHandler.HandleMonthAdd)
		r.Delete("/month-habits", habitHandler.HandleMonthRemove)

		r.Get("/completions", completionHandler.HandleList)
		r.Post("/completions", completionHandler.HandleUpdate)

		r.Get("/stats", statsHandler.HandleMonth)

		r.Get("/journal", journalHandler.HandleGet)
		r.Get("/journal/{id}", journalHandler.HandleGetByID)
		r.Post("/journal", journalHandler.HandleSave)

		r.Get("/goals", goalHandler.HandleGet)
		r.Post("/goals", goalHandler.HandleSave)
	})

	if !github.Enabled() {
		s.logger.Warn("GitHub OAuth not configured, only email sign-in is available")
	}
	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
