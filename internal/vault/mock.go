// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

func errNotRegistered(id string) error {
	return errs.New(errs.KindFetchFailed, "mock fetcher: no secret registered for "+id)
}

// MockFetcher is an in-memory SecretFetcher test double. Secrets and
// per-id errors are registered before use; CallCount reports how many
// times GetSecret was invoked per id, for asserting at-most-once fetch
// behavior under concurrency.
type MockFetcher struct {
	// Delay, when non-nil, is called inside GetSecret before returning,
	// to simulate a slow vault under contention tests.
	Delay func()

	mu      sync.Mutex
	secrets map[string]SecretData
	errors  map[string]error
	calls   map[string]*atomic.Int32
}

// NewMockFetcher returns an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		secrets: make(map[string]SecretData),
		errors:  make(map[string]error),
		calls:   make(map[string]*atomic.Int32),
	}
}

// SetSecret registers the value returned for id.
func (m *MockFetcher) SetSecret(id string, data SecretData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[id] = data
}

// SetError registers the error returned for id, overriding any secret.
func (m *MockFetcher) SetError(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[id] = err
}

// GetSecret implements SecretFetcher.
func (m *MockFetcher) GetSecret(ctx context.Context, id string) (SecretData, error) {
	m.mu.Lock()
	counter, ok := m.calls[id]
	if !ok {
		counter = &atomic.Int32{}
		m.calls[id] = counter
	}
	err, hasErr := m.errors[id]
	data, hasData := m.secrets[id]
	m.mu.Unlock()

	counter.Add(1)

	if m.Delay != nil {
		m.Delay()
	}

	if hasErr {
		return SecretData{}, err
	}
	if !hasData {
		return SecretData{}, errNotRegistered(id)
	}
	return data, nil
}

// CallCount returns how many times GetSecret was called for id.
func (m *MockFetcher) CallCount(id string) int32 {
	m.mu.Lock()
	counter, ok := m.calls[id]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return counter.Load()
}

var _ SecretFetcher = (*MockFetcher)(nil)
