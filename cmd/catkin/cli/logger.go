// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger verbs run with. On a
// terminal stderr gets human-readable text; piped or redirected stderr
// (CI, scripts) gets JSON lines instead.
//
// Verbs scope the logger with their own context via With():
//
//	logger = logger.With("verb", "build", "profile", profileName)
func NewCommandLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
