// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault defines the SecretFetcher boundary and its implementations.
//
// SecretFetcher is the one capability the core depends on: given a vault
// secret UUID, return its display name and OpenSSH-armored value. The
// production implementation authenticates once at daemon startup and
// holds a shared, concurrency-safe client; tests substitute a fake.
package vault

import (
	"context"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

// SecretData is what a vault returns for one secret UUID.
type SecretData struct {
	// Name is a display string used as the SSH identity comment.
	Name string
	// Value is OpenSSH-armored private-key text, BEGIN/END framing
	// included.
	Value string
}

// SecretFetcher is the boundary capability KeyCache depends on. A single
// SecretFetcher is shared across all connections and cache slots;
// implementations must be safe for concurrent use, whether by internal
// locking or by being inherently stateless per call.
type SecretFetcher interface {
	// GetSecret fetches the secret identified by id. Returns a
	// *errs.Error with a kind of KindFetchFailed on transport/auth
	// problems specific to this call.
	GetSecret(ctx context.Context, id string) (SecretData, error)
}

// AuthenticatingFetcher is implemented by SecretFetcher implementations
// that require an explicit authentication step before first use.
type AuthenticatingFetcher interface {
	SecretFetcher
	// Authenticate establishes the session used by subsequent
	// GetSecret calls. Called once at daemon startup; failure aborts
	// startup with errs.KindAuthFailed.
	Authenticate(ctx context.Context) error
	// Close releases any held connections/tokens.
	Close() error
}

// wrapFetchError wraps cause as a KindFetchFailed error with the given id
// mentioned in the message. Never includes secret value bytes.
func wrapFetchError(id string, cause error) error {
	return errs.Wrap(errs.KindFetchFailed, "fetching secret "+id, cause)
}
