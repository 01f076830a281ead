// Package logging builds the process logger.
//
// Output is slog text on stdout. When a log file is configured the same
// lines are also written to it through lumberjack, which rotates the file
// by size and prunes old copies.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level slog.Level
	// File enables the rotating log file when non-empty.
	File string
}

// New returns the logger and a closer for the log file. The closer is a
// no-op when no file is configured.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	return newWithStdout(cfg, os.Stdout)
}

func newWithStdout(cfg Config, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	out := stdout
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(stdout, file)
		closer = file
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
