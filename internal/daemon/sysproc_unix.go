// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package daemon

import "syscall"

// detachedSysProcAttr starts the background child in its own session so
// it survives the parent's exit and is not delivered the parent's
// terminal signals.
func detachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
