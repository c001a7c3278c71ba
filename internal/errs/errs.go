// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package errs defines the semantic error kinds shared across the agent
// daemon. Each kind carries enough structure for callers to branch on it
// with errors.As while still composing with fmt.Errorf's %w wrapping.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies one of the daemon's semantic error categories.
type Kind string

const (
	KindConfig           Kind = "config"
	KindAuthFailed       Kind = "auth_failed"
	KindAlreadyRunning   Kind = "already_running"
	KindNotRunning       Kind = "not_running"
	KindBindFailed       Kind = "bind_failed"
	KindFetchFailed      Kind = "fetch_failed"
	KindMalformedKey     Kind = "malformed_key"
	KindTransport        Kind = "transport"
	KindSignFailed       Kind = "sign_failed"
	KindOutOfRange       Kind = "out_of_range"
	KindCorruptPID       Kind = "corrupt_pid"
	KindPermissionDenied Kind = "permission_denied"
	KindRuntime          Kind = "runtime"
)

// Error is a structured error carrying a semantic Kind alongside the
// underlying cause. Use errors.As to recover it and branch on Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error wrapping cause with additional context.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
