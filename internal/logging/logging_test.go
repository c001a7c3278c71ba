// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"log/slog"
	"testing"
)

func TestLevelForVerbosity(t *testing.T) {
	cases := []struct {
		count int
		want  slog.Level
	}{
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{3, LevelTrace},
		{5, LevelTrace},
	}
	for _, c := range cases {
		if got := LevelForVerbosity(c.count); got != c.want {
			t.Errorf("LevelForVerbosity(%d) = %v, want %v", c.count, got, c.want)
		}
	}
}

func TestNew_JSONHandlerForNonTerminal(t *testing.T) {
	var buf writerBuffer
	logger := New(&buf, slog.LevelInfo)
	logger.Info("hello", "key", "value")

	if buf.Len() == 0 {
		t.Fatal("expected log output")
	}
	if buf.String()[0] != '{' {
		t.Errorf("expected JSON output for a non-*os.File writer, got %q", buf.String())
	}
}

type writerBuffer struct {
	data []byte
}

func (w *writerBuffer) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *writerBuffer) Len() int { return len(w.data) }

func (w *writerBuffer) String() string { return string(w.data) }
