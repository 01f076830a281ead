// Command server runs the habit tracker HTTP API.
//
// Configuration comes from the environment (and an optional .env file);
// see internal/config for the variables. A typical local run:
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/habit-tracker/internal/config"
	"github.com/sakif/habit-tracker/internal/logging"
	"github.com/sakif/habit-tracker/internal/repository"
	"github.com/sakif/habit-tracker/internal/repository/mongodb"
	"github.com/sakif/habit-tracker/internal/repository/sqlite"
	"github.com/sakif/habit-tracker/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closer.Close()

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", slog.String("store", cfg.Store), slog.String("error", err.Error()))
		return err
	}
	logger.Info("store opened", slog.String("store", cfg.Store))

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		JWTSecret:          cfg.JWTSecret,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		GitHubCallbackURL:  cfg.GitHubCallbackURL,
		CookieSecure:       cfg.CookieSecure,
		AppURL:             cfg.AppURL,
		Location:           cfg.Location,
	}, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}
