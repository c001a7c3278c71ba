// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package keycache holds the per-slot lazily initialized private keys
// served by the agent. Each slot corresponds by index to a configured
// secret UUID; a slot starts empty and transitions to populated exactly
// once, the first time a fetch-and-parse for it succeeds, regardless of
// how many concurrent callers are waiting on that same slot. A failed
// fetch or parse leaves the slot empty for a later caller to retry.
package keycache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/pirafrank/vault-conductor/internal/errs"
	"github.com/pirafrank/vault-conductor/internal/secretbuf"
	"github.com/pirafrank/vault-conductor/internal/vault"
)

// Key is the parsed, signing-capable form of one configured identity.
type Key struct {
	Signer ssh.Signer
	Name   string
}

// slot holds one cache entry. populated is guarded by Cache.mu; once true
// it never reverts to false.
type slot struct {
	populated bool
	key       Key
}

// Cache is the shared, concurrency-safe store of parsed keys. The zero
// value is not usable; construct with New.
type Cache struct {
	fetcher   vault.SecretFetcher
	secretIDs []string

	mu      sync.Mutex
	slots   []slot
	loaders []*once
}

// New constructs an empty Cache sized to len(secretIDs). fetcher is
// shared across every slot and must be safe for concurrent use.
func New(fetcher vault.SecretFetcher, secretIDs []string) *Cache {
	return &Cache{
		fetcher:   fetcher,
		secretIDs: secretIDs,
		slots:     make([]slot, len(secretIDs)),
	}
}

// Len returns the number of configured slots.
func (c *Cache) Len() int {
	return len(c.secretIDs)
}

// GetKey returns the parsed key for slot i, fetching and parsing it on
// first access. Concurrent callers for the same i block behind a single
// fetch-and-parse; once it succeeds, none issues a second vault call. If
// it fails, the next waiting caller issues the fetch again.
//
// The lock is held only around the two in-memory slices, never across
// the vault fetch — a lock-per-cache would otherwise stall every other
// slot's readers while one slot's vault call is in flight.
func (c *Cache) GetKey(ctx context.Context, i int) (Key, error) {
	if i < 0 || i >= len(c.secretIDs) {
		return Key{}, errs.New(errs.KindOutOfRange, fmt.Sprintf("slot %d out of range (have %d)", i, len(c.secretIDs)))
	}

	c.mu.Lock()
	if c.slots[i].populated {
		key := c.slots[i].key
		c.mu.Unlock()
		return key, nil
	}
	c.mu.Unlock()

	// Not yet populated. loadSlot serializes concurrent first-callers
	// for this slot behind a per-slot one-shot initializer so only one
	// of them issues the vault fetch.
	return c.loadSlot(ctx, i)
}

// GetName returns the display name for slot i. Fetching the name implies
// fetching the key, since the vault produces both together.
func (c *Cache) GetName(ctx context.Context, i int) (string, error) {
	key, err := c.GetKey(ctx, i)
	if err != nil {
		return "", err
	}
	return key.Name, nil
}

// once guards the fetch-and-parse for one slot so that concurrent
// first-callers block on a single in-flight load instead of each
// issuing their own vault call.
type once struct {
	mu   sync.Mutex
	done bool
	key  Key
}

// loaders holds one once per slot, created lazily. Protected by
// Cache.mu alongside slots, since both describe per-slot state.
func (c *Cache) loadSlot(ctx context.Context, i int) (Key, error) {
	c.mu.Lock()
	if c.loaders == nil {
		c.loaders = make([]*once, len(c.secretIDs))
	}
	if c.loaders[i] == nil {
		c.loaders[i] = &once{}
	}
	loader := c.loaders[i]
	c.mu.Unlock()

	loader.mu.Lock()
	defer loader.mu.Unlock()

	if loader.done {
		return loader.key, nil
	}

	// Re-check populated: another loadSlot call may have committed
	// while we waited for loader.mu (it commits before setting done).
	c.mu.Lock()
	if c.slots[i].populated {
		key := c.slots[i].key
		c.mu.Unlock()
		loader.done = true
		loader.key = key
		return key, nil
	}
	c.mu.Unlock()

	data, err := c.fetcher.GetSecret(ctx, c.secretIDs[i])
	if err != nil {
		// Leave the slot empty so a future call may retry; do not mark
		// this loader done, so a subsequent caller retries the fetch
		// rather than replaying a stale failure forever.
		return Key{}, errs.Wrap(errs.KindFetchFailed, fmt.Sprintf("fetching secret for slot %d", i), err)
	}

	signer, parseErr := parsePrivateKey(data.Value)
	if parseErr != nil {
		return Key{}, errs.Wrap(errs.KindMalformedKey, fmt.Sprintf("parsing key for slot %d", i), parseErr)
	}

	key := Key{Signer: signer, Name: data.Name}

	c.mu.Lock()
	c.slots[i] = slot{populated: true, key: key}
	c.mu.Unlock()

	loader.done = true
	loader.key = key
	return key, nil
}

// parsePrivateKey parses OpenSSH-armored private-key text into a signer.
// The input is held in a secretbuf.Buffer only for the duration of
// parsing — golang.org/x/crypto/ssh takes the raw bytes and returns an
// opaque ssh.Signer that owns its own internal representation.
func parsePrivateKey(armored string) (ssh.Signer, error) {
	buffer, err := secretbuf.FromString(armored, "private key")
	if err != nil {
		return nil, err
	}
	defer buffer.Close()

	signer, err := ssh.ParsePrivateKey(buffer.Bytes())
	if err != nil {
		return nil, err
	}
	return signer, nil
}
