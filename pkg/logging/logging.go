// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for knapsack-solver
// deployments.
//
// The logger is a thin layer over the standard library slog package.
// Each deployment (router, solver, maintainer) creates one logger at
// startup and injects it into its components; components never log
// through a package-level default.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Service: "solver"})
//	logger.Info("claimed items", "knapsack_id", id, "count", n)
//
// # Levels
//
// Debug, Info, Warn and Error, matching slog conventions. The minimum
// level is configured once at construction.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level represents log severity. Levels are ordered Debug < Info <
// Warn < Error; messages below the configured minimum are discarded.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN" or "ERROR".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. The zero value writes Info and above to
// stderr in text format.
type Config struct {
	// Level is the minimum level to emit. Default: LevelInfo.
	Level Level

	// Service is attached to every record as the "service" attribute.
	// Recommended values: "router", "solver", "maintainer".
	Service string

	// JSON switches output to one JSON object per line. Text format is
	// the default because it is what a human tails in development.
	JSON bool

	// Writer overrides the output destination. Default: os.Stderr.
	// Tests use this to capture output.
	Writer io.Writer
}

// Logger is a structured logger safe for concurrent use.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger from config.
func New(config Config) *Logger {
	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}
	return &Logger{slog: slog.New(handler)}
}

// Default returns an Info-level text logger on stderr.
func Default() *Logger {
	return New(Config{})
}

// Debug logs at Debug level. args are key-value pairs.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level. args are key-value pairs.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level. args are key-value pairs.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level. args are key-value pairs.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying additional attributes. The parent
// is not modified.
//
//	jobLogger := logger.With("knapsack_id", id)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Slog exposes the underlying slog.Logger for callers that need features
// not wrapped here.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}
