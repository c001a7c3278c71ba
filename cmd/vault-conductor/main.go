// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// vault-conductor is an SSH agent that serves identities whose private
// key material lives in Bitwarden Secrets Manager rather than on disk.
//
// Usage:
//
//	vault-conductor start [--fg] [--config path] [-v...]
//	vault-conductor stop
//	vault-conductor logs
//	vault-conductor version
//	vault-conductor --version
package main

import (
	"fmt"
	"os"

	"github.com/pirafrank/vault-conductor/internal/cli"
)

func main() {
	root := cli.Root()

	err := root.Execute(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
