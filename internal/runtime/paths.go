// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package runtime owns the daemon's well-known on-disk artifacts: the
// PID file and the Unix socket path, both deterministic per invoking
// user, plus atomic create/read/remove helpers for the PID file.
package runtime

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
)

// Paths resolves the deterministic per-user runtime file locations.
type Paths struct {
	username string
	tempDir  string
}

// NewPaths resolves Paths for the current user using os.TempDir.
func NewPaths() (*Paths, error) {
	current, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}
	return &Paths{username: current.Username, tempDir: os.TempDir()}, nil
}

// SocketPath returns <tmp>/vc-<username>-ssh-agent.sock.
func (p *Paths) SocketPath() string {
	return filepath.Join(p.tempDir, fmt.Sprintf("vc-%s-ssh-agent.sock", p.username))
}

// PIDPath returns <tmp>/vc-<username>-ssh-agent.pid.
func (p *Paths) PIDPath() string {
	return filepath.Join(p.tempDir, fmt.Sprintf("vc-%s-ssh-agent.pid", p.username))
}
