// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/pirafrank/vault-conductor/internal/version"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	original := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = original

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestRoot_VersionFlag(t *testing.T) {
	output, err := captureStdout(t, func() error {
		return Root().Execute([]string{"--version"})
	})
	if err != nil {
		t.Fatalf("Execute(--version) failed: %v", err)
	}
	if !strings.Contains(output, version.Info()) {
		t.Errorf("expected output to contain %q, got %q", version.Info(), output)
	}
}

func TestRoot_VersionSubcommand(t *testing.T) {
	output, err := captureStdout(t, func() error {
		return Root().Execute([]string{"version"})
	})
	if err != nil {
		t.Fatalf("Execute(version) failed: %v", err)
	}
	if !strings.Contains(output, version.Info()) {
		t.Errorf("expected output to contain %q, got %q", version.Info(), output)
	}
}

func TestRoot_NoSubcommandRequiresOne(t *testing.T) {
	if err := Root().Execute(nil); err == nil {
		t.Fatal("expected error when no subcommand or flag given")
	}
}
