// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/pirafrank/vault-conductor/internal/errs"

// ExitCode maps err to the process exit code the CLI contract promises:
// 0 on success, 1 for config or runtime errors, 2 when start finds the
// agent already running, 3 when stop finds it not running.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errs.Is(err, errs.KindAlreadyRunning):
		return 2
	case errs.Is(err, errs.KindNotRunning):
		return 3
	default:
		return 1
	}
}
