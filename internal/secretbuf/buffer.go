// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package secretbuf provides a memory-safe buffer for the vault access
// token and the raw armored private-key text fetched from it.
//
// Buffer allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped.
//
// Because the memory is allocated outside the Go heap, the garbage
// collector never sees it and cannot copy or relocate it.
package secretbuf

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

// Buffer holds secret bytes locked against swapping, excluded from core
// dumps, and zeroed on close. A Buffer must not be copied after creation.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool

	// label identifies what the buffer holds ("access token", "private
	// key", ...) so a failure surfaces which secret was affected without
	// ever including the secret's bytes.
	label string
}

// New allocates a secret buffer of the given size. label names what the
// buffer will hold, for diagnostics; every error and panic this Buffer
// produces names it.
func New(size int, label string) (*Buffer, error) {
	if size <= 0 {
		return nil, errs.New(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: buffer size must be positive, got %d", label, size))
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errs.Wrap(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: mmap", label), err)
	}

	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, errs.Wrap(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: mlock", label), err)
	}

	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, errs.Wrap(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: madvise(MADV_DONTDUMP)", label), err)
	}

	return &Buffer{data: data, length: size, label: label}, nil
}

// FromBytes copies source into a new protected buffer and zeroes the
// caller's copy, so the plaintext exists in exactly one place afterward.
func FromBytes(source []byte, label string) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errs.New(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: cannot create buffer from empty source", label))
	}

	buffer, err := New(len(source), label)
	if err != nil {
		return nil, err
	}

	copy(buffer.data, source)
	Zero(source)

	return buffer, nil
}

// FromString is FromBytes for a string. Go strings are immutable, so the
// original string's backing bytes cannot be zeroed; callers that read a
// secret into a string (e.g. from a config file) should prefer reading
// into a []byte and using FromBytes instead, where feasible.
func FromString(source string, label string) (*Buffer, error) {
	return FromBytes([]byte(source), label)
}

// Zero overwrites b with zero bytes in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Bytes returns the secret data. The slice points directly into the mmap
// region; do not retain it beyond the Buffer's lifetime. Panics if closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secretbuf: " + b.label + ": read from closed buffer")
	}
	return b.data[:b.length]
}

// String copies the secret data into a heap string. Prefer Bytes when the
// caller can consume the data without an intermediate string. Panics if
// closed.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secretbuf: " + b.label + ": read from closed buffer")
	}
	return string(b.data[:b.length])
}

// Len returns the size of the secret data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// Close zeros, unlocks, and unmaps the buffer. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.data)

	var firstError error
	if err := unix.Munlock(b.data); err != nil && firstError == nil {
		firstError = errs.Wrap(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: munlock", b.label), err)
	}
	if err := unix.Munmap(b.data); err != nil && firstError == nil {
		firstError = errs.Wrap(errs.KindRuntime, fmt.Sprintf("secretbuf: %s: munmap", b.label), err)
	}

	b.data = nil
	return firstError
}
