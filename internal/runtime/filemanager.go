// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

// Liveness is the result of probing whether a pid belongs to a running
// process.
type Liveness int

const (
	Alive Liveness = iota
	Dead
	PermissionDenied
)

// FileManager owns the PID file and socket file paths and performs
// atomic create/remove with correct permissions. It does not create the
// socket file itself — Listener does that on bind — but it knows where
// the socket lives so it can remove it during cleanup.
type FileManager struct {
	paths *Paths
}

// NewFileManager constructs a FileManager for the current user.
func NewFileManager() (*FileManager, error) {
	paths, err := NewPaths()
	if err != nil {
		return nil, err
	}
	return &FileManager{paths: paths}, nil
}

// SocketPath returns the deterministic per-user socket path.
func (f *FileManager) SocketPath() string { return f.paths.SocketPath() }

// PIDPath returns the deterministic per-user PID file path.
func (f *FileManager) PIDPath() string { return f.paths.PIDPath() }

// WritePID atomically creates the PID file with mode 0644, truncating
// any existing content. Atomicity follows the write-temp-then-rename
// pattern: a reader never observes a partially written PID file.
func (f *FileManager) WritePID(pid int) error {
	path := f.paths.PIDPath()
	data := []byte(strconv.Itoa(pid) + "\n")

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary pid file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary pid file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary pid file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary pid file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming pid file into place: %w", err)
	}

	return nil
}

// ReadPID reads and parses the PID file. Returns a *errs.Error of kind
// KindCorruptPID if the content is not a bare decimal integer.
func (f *FileManager) ReadPID() (int, error) {
	data, err := os.ReadFile(f.paths.PIDPath())
	if err != nil {
		return 0, err
	}

	pid, parseErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if parseErr != nil {
		return 0, errs.Wrap(errs.KindCorruptPID, "pid file does not contain a decimal process id", parseErr)
	}
	return pid, nil
}

// IsAlive probes whether pid refers to a running process using a
// signal-zero send (POSIX "does this pid exist" idiom: sending signal 0
// performs error checking without delivering a signal).
func IsAlive(pid int) Liveness {
	process, err := os.FindProcess(pid)
	if err != nil {
		return Dead
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return Alive
	}
	if err == syscall.ESRCH {
		return Dead
	}
	if err == syscall.EPERM {
		return PermissionDenied
	}
	return Dead
}

// RemoveRuntimeFiles idempotently removes the PID file and socket file.
// Missing files are not errors.
func (f *FileManager) RemoveRuntimeFiles() error {
	if err := removeIfExists(f.paths.PIDPath()); err != nil {
		return err
	}
	return removeIfExists(f.paths.SocketPath())
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
