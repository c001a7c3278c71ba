// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads vault-conductor's two-key configuration document.
//
// Configuration is resolved from, in order: built-in zero defaults, then
// an optional YAML file (--config flag, else the OS-appropriate default
// path), then BWS_ACCESS_TOKEN/BW_SECRET_IDS environment variables, which
// take precedence over the file when set and non-empty.
//
// A missing file at the default path is not an error — an operator may
// configure everything through the environment. A missing file at an
// explicitly given --config path is.
package config
