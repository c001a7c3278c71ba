// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"os"
	"testing"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

func TestWriteReadPID_RoundTrip(t *testing.T) {
	f, err := NewFileManager()
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	t.Cleanup(func() { f.RemoveRuntimeFiles() })

	if err := f.WritePID(4242); err != nil {
		t.Fatalf("WritePID: %v", err)
	}

	got, err := f.ReadPID()
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if got != 4242 {
		t.Errorf("ReadPID = %d, want 4242", got)
	}

	info, err := os.Stat(f.PIDPath())
	if err != nil {
		t.Fatalf("stat pid file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0644 {
		t.Errorf("pid file mode = %04o, want 0644", perm)
	}
}

func TestWritePID_OverwritesExisting(t *testing.T) {
	f, err := NewFileManager()
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	t.Cleanup(func() { f.RemoveRuntimeFiles() })

	if err := f.WritePID(1); err != nil {
		t.Fatalf("WritePID first: %v", err)
	}
	if err := f.WritePID(99999); err != nil {
		t.Fatalf("WritePID second: %v", err)
	}

	got, err := f.ReadPID()
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if got != 99999 {
		t.Errorf("ReadPID = %d, want 99999 (second write should overwrite, not append)", got)
	}
}

func TestReadPID_CorruptContent(t *testing.T) {
	f, err := NewFileManager()
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	t.Cleanup(func() { f.RemoveRuntimeFiles() })

	if err := os.WriteFile(f.PIDPath(), []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatalf("writing corrupt pid file: %v", err)
	}

	_, err = f.ReadPID()
	if !errs.Is(err, errs.KindCorruptPID) {
		t.Errorf("expected KindCorruptPID, got %v", err)
	}
}

func TestIsAlive_CurrentProcess(t *testing.T) {
	if got := IsAlive(os.Getpid()); got != Alive {
		t.Errorf("IsAlive(self) = %v, want Alive", got)
	}
}

func TestIsAlive_DeadProcess(t *testing.T) {
	// PID 1 is reserved for init and vanishingly unlikely to be free, but
	// an arbitrarily large pid is very unlikely to be assigned to any
	// running process.
	if got := IsAlive(1 << 30); got != Dead {
		t.Errorf("IsAlive(unassigned pid) = %v, want Dead", got)
	}
}

func TestRemoveRuntimeFiles_Idempotent(t *testing.T) {
	f, err := NewFileManager()
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}

	if err := f.WritePID(1234); err != nil {
		t.Fatalf("WritePID: %v", err)
	}

	if err := f.RemoveRuntimeFiles(); err != nil {
		t.Fatalf("RemoveRuntimeFiles: %v", err)
	}
	if err := f.RemoveRuntimeFiles(); err != nil {
		t.Fatalf("RemoveRuntimeFiles (second call): %v", err)
	}

	if _, err := os.Stat(f.PIDPath()); !os.IsNotExist(err) {
		t.Errorf("expected pid file removed, stat err=%v", err)
	}
}
