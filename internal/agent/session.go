// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements AgentSession: the per-connection SSH agent
// protocol handler. A session is stateless between messages — all
// mutable state lives in the shared keycache.Cache below it.
package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/pirafrank/vault-conductor/internal/errs"
	"github.com/pirafrank/vault-conductor/internal/keycache"
	"github.com/pirafrank/vault-conductor/internal/sshproto"
)

// Session serves the agent protocol over a single client connection.
type Session struct {
	conn   net.Conn
	cache  *keycache.Cache
	logger *slog.Logger
}

// New constructs a Session for one accepted connection.
func New(conn net.Conn, cache *keycache.Cache, logger *slog.Logger) *Session {
	return &Session{conn: conn, cache: cache, logger: logger}
}

// Serve reads and dispatches messages until the client disconnects, a
// transport error occurs, or ctx is cancelled. Per-request errors are
// handled internally and never propagated to the caller. Cancelling ctx
// ends the loop at the next read, so a request already being handled is
// still answered.
func (s *Session) Serve(ctx context.Context) {
	defer s.conn.Close()

	stopAfter := context.AfterFunc(ctx, func() { s.conn.SetReadDeadline(time.Now()) })
	defer stopAfter()

	for {
		msgType, body, err := sshproto.ReadMessage(s.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("agent session transport error", "error", err)
			}
			return
		}

		response, responseType := s.dispatch(ctx, msgType, body)

		if err := sshproto.WriteMessage(s.conn, responseType, response); err != nil {
			s.logger.Debug("agent session write failed", "error", err)
			return
		}
	}
}

// dispatch handles one request body and returns the response body and
// message type. It never returns an error: protocol-level failures are
// represented as a Failure response, exactly as the wire protocol
// requires.
func (s *Session) dispatch(ctx context.Context, msgType byte, body []byte) ([]byte, byte) {
	switch msgType {
	case sshproto.RequestIdentities:
		return s.handleRequestIdentities(ctx), sshproto.IdentitiesAnswer
	case sshproto.SignRequest:
		return s.handleSignRequest(ctx, body)
	default:
		s.logger.Debug("unsupported agent request", "type", msgType)
		return nil, sshproto.Failure
	}
}

// handleRequestIdentities walks every configured slot in order, omitting
// any whose fetch or parse fails. A single vault failure must not blind
// the agent to the rest of the identities, so failed slots are logged
// and silently dropped from the response rather than failing it outright.
func (s *Session) handleRequestIdentities(ctx context.Context) []byte {
	identities := make([]sshproto.Identity, 0, s.cache.Len())

	for i := 0; i < s.cache.Len(); i++ {
		key, err := s.cache.GetKey(ctx, i)
		if err != nil {
			s.logger.Warn("omitting identity: fetch or parse failed", "slot", i, "error", err)
			continue
		}

		identities = append(identities, sshproto.Identity{
			KeyBlob: key.Signer.PublicKey().Marshal(),
			Comment: key.Name,
		})
	}

	return sshproto.EncodeIdentitiesAnswer(identities)
}

// handleSignRequest finds the slot whose public key matches the
// requested key_blob byte-for-byte, signs data with the algorithm
// selected by the RSA flag bits, and returns SIGN_RESPONSE. Returns
// Failure if no slot matches or if signing itself fails.
func (s *Session) handleSignRequest(ctx context.Context, body []byte) ([]byte, byte) {
	keyBlob, data, flags, err := sshproto.DecodeSignRequest(body)
	if err != nil {
		s.logger.Debug("malformed sign request", "error", err)
		return nil, sshproto.Failure
	}

	for i := 0; i < s.cache.Len(); i++ {
		key, err := s.cache.GetKey(ctx, i)
		if err != nil {
			continue
		}
		if !bytes.Equal(key.Signer.PublicKey().Marshal(), keyBlob) {
			continue
		}

		signature, err := signWithFlags(key.Signer, data, flags)
		if err != nil {
			s.logger.Warn("signing failed", "slot", i, "error", errs.Wrap(errs.KindSignFailed, "signing request", err))
			return nil, sshproto.Failure
		}

		return sshproto.EncodeSignResponse(ssh.Marshal(signature)), sshproto.SignResponse
	}

	return nil, sshproto.Failure
}

// signWithFlags signs data with signer, selecting an RSA SHA-2 variant
// when the corresponding flag bit is set. Ed25519 and ECDSA signers
// ignore flags entirely, since the protocol only defines these bits for
// RSA. When neither RSA_SHA2 flag is set, RSA signing falls back to the
// legacy "ssh-rsa" algorithm for compatibility with older clients rather
// than rejecting the request.
func signWithFlags(signer ssh.Signer, data []byte, flags uint32) (*ssh.Signature, error) {
	algorithmSigner, ok := signer.(ssh.AlgorithmSigner)
	if !ok || signer.PublicKey().Type() != ssh.KeyAlgoRSA {
		return signer.Sign(nil, data)
	}

	switch {
	case flags&sshproto.FlagRSASHA2_512 != 0:
		return algorithmSigner.SignWithAlgorithm(nil, data, ssh.KeyAlgoRSASHA512)
	case flags&sshproto.FlagRSASHA2_256 != 0:
		return algorithmSigner.SignWithAlgorithm(nil, data, ssh.KeyAlgoRSASHA256)
	default:
		return algorithmSigner.SignWithAlgorithm(nil, data, "")
	}
}

