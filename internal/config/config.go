// Package config reads the server settings from the environment.
//
// A .env file in the working directory is loaded first if present; real
// environment variables always win over it. Every setting has a default
// that is good for local development, except JWT_SECRET.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config is everything cmd/server needs to build the server.
type Config struct {
	Port int

	Store    string // sqlite | mongo
	DBPath   string
	MongoURI string
	MongoDB  string

	JWTSecret          string
	CookieSecure       bool
	AppURL             string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Location decides what "today" is for the future-day guard and for
	// the current month. Defaults to the server's local zone.
	Location *time.Location

	LogLevel slog.Level
	LogFile  string
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	// A missing .env is the normal case in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:               8080,
		Store:              StoreSQLite,
		DBPath:             "data/habits.db",
		MongoURI:           getenv("MONGODB_URI"),
		MongoDB:            "habits",
		JWTSecret:          getenv("JWT_SECRET"),
		AppURL:             "/",
		GitHubClientID:     getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: getenv("GITHUB_CLIENT_SECRET"),
		Location:           time.Local,
		LogLevel:           slog.LevelInfo,
		LogFile:            getenv("LOG_FILE"),
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("STORE"); v != "" {
		cfg.Store = strings.ToLower(v)
	}
	switch cfg.Store {
	case StoreSQLite:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("config: MONGODB_URI is required when STORE=mongo")
		}
	default:
		return nil, fmt.Errorf("config: STORE must be %q or %q, got %q", StoreSQLite, StoreMongo, cfg.Store)
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("MONGODB_DB"); v != "" {
		cfg.MongoDB = v
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required (try: openssl rand -hex 32)")
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid COOKIE_SECURE %q", v)
		}
		cfg.CookieSecure = b
	}
	if v := getenv("APP_URL"); v != "" {
		cfg.AppURL = v
	}
	cfg.GitHubCallbackURL = getenv("GITHUB_CALLBACK_URL")
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if v := getenv("TZ_NAME"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TZ_NAME %q: %w", v, err)
		}
		cfg.Location = loc
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	return cfg, nil
}

// GitHubEnabled reports whether both OAuth credentials are set.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}
