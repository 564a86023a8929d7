// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger returns a logger writing text to stderr. When logFile is set,
// records are also written as JSON to that file; the returned cleanup
// closes it.
func SetupLogger(stderr io.Writer, logFile string, level slog.Level) (*slog.Logger, func() error, error) {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if logFile == "" {
		return slog.New(stderrHandler), func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", logFile, err)
	}
	return NewFanoutLogger(stderr, file, level), file.Close, nil
}

// NewFanoutLogger writes text records to stderr and JSON records to file.
func NewFanoutLogger(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
