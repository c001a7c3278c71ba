// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging configures the daemon's structured logger. Verbosity
// is controlled by counting -v flags; output format follows whether
// stderr is a terminal.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LevelTrace sits one step below slog.LevelDebug, for -vvv and above.
const LevelTrace = slog.LevelDebug - 4

// LevelForVerbosity maps a -v count to a slog.Level: 0 is Warn, 1 is
// Info, 2 is Debug, 3+ is LevelTrace.
func LevelForVerbosity(count int) slog.Level {
	switch {
	case count <= 0:
		return slog.LevelWarn
	case count == 1:
		return slog.LevelInfo
	case count == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// New builds a logger writing to w. When w is a terminal, it uses
// slog.TextHandler for human-readable output; otherwise it uses
// slog.JSONHandler, matching what a backgrounded daemon writes to its
// log file.
func New(w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
