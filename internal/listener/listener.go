// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package listener binds the agent's Unix domain socket, accepts
// connections, and spawns one agent.Session per connection.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pirafrank/vault-conductor/internal/agent"
	"github.com/pirafrank/vault-conductor/internal/errs"
	"github.com/pirafrank/vault-conductor/internal/keycache"
)

// shutdownGrace bounds how long an in-flight connection handler is given
// to finish its current message after a shutdown signal before Serve
// stops waiting for it and removes the socket file.
const shutdownGrace = 300 * time.Millisecond

// Listener serves the agent protocol on a Unix domain socket.
type Listener struct {
	socketPath string
	cache      *keycache.Cache
	logger     *slog.Logger

	activeConnections sync.WaitGroup
}

// New constructs a Listener bound to socketPath once Serve is called.
func New(socketPath string, cache *keycache.Cache, logger *slog.Logger) *Listener {
	return &Listener{socketPath: socketPath, cache: cache, logger: logger}
}

// Serve binds the socket with mode 0600, accepts connections until ctx
// is cancelled, and waits (bounded by shutdownGrace) for in-flight
// sessions to finish their current message before returning. The socket
// file is removed on return.
//
// Callers must perform the single-instance check before calling Serve;
// Serve itself only removes a stale socket file left at socketPath, it
// does not check whether another process still owns it.
func (l *Listener) Serve(ctx context.Context) error {
	if err := os.Remove(l.socketPath); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindBindFailed, fmt.Sprintf("removing stale socket %s", l.socketPath), err)
	}

	listener, err := net.Listen("unix", l.socketPath)
	if err != nil {
		return errs.Wrap(errs.KindBindFailed, fmt.Sprintf("binding socket %s", l.socketPath), err)
	}
	defer func() {
		listener.Close()
		os.Remove(l.socketPath)
	}()

	if err := os.Chmod(l.socketPath, 0600); err != nil {
		return errs.Wrap(errs.KindBindFailed, fmt.Sprintf("setting socket permissions on %s", l.socketPath), err)
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	l.logger.Info("agent listening", "socket", l.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			l.logger.Error("accept failed", "error", err)
			continue
		}

		l.activeConnections.Add(1)
		go func() {
			defer l.activeConnections.Done()
			session := agent.New(conn, l.cache, l.logger)
			session.Serve(ctx)
		}()
	}

	l.waitWithGrace()
	return nil
}

// waitWithGrace waits for active sessions to finish, up to
// shutdownGrace. Sessions still running past the grace period are
// abandoned: closing the listening socket does not close accepted
// connections, so each stays open until its own session returns.
func (l *Listener) waitWithGrace() {
	done := make(chan struct{})
	go func() {
		l.activeConnections.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		l.logger.Warn("shutdown grace period expired with sessions still active")
	}
}
