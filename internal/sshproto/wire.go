// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package sshproto implements the wire framing for the strict subset of
// the SSH agent protocol (draft-miller-ssh-agent) this daemon serves:
// REQUEST_IDENTITIES, SIGN_REQUEST, and their responses. Every message
// is a big-endian 32-bit length followed by a 1-byte type and a
// type-specific body; internal strings/blobs use the SSH "string"
// encoding (4-byte length prefix, then bytes).
package sshproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Message types this daemon understands. Numeric values match the
// protocol draft; any type not listed here is handled generically by
// AgentSession as "unsupported" and answered with Failure.
const (
	RequestIdentities  byte = 11
	IdentitiesAnswer   byte = 12
	SignRequest        byte = 13
	SignResponse       byte = 14
	Failure            byte = 5
)

// Signature-algorithm flag bits carried in a SIGN_REQUEST, defined for
// RSA keys only; Ed25519 and ECDSA ignore them.
const (
	FlagRSASHA2_256 uint32 = 1 << 1
	FlagRSASHA2_512 uint32 = 1 << 2
)

// maxMessageSize bounds a single incoming frame. 256 KiB is generous for
// any sign request this agent will see (SSH client auth payloads and
// git commit signature payloads are both small); it exists to keep a
// misbehaving or hostile client from making the daemon allocate without
// bound.
const maxMessageSize = 256 * 1024

// ReadMessage reads one length-prefixed frame and returns its type byte
// and body (excluding the type byte). Returns io.EOF when the peer
// closes the connection cleanly between messages.
func ReadMessage(r io.Reader) (byte, []byte, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint32(lengthBytes[:])
	if length == 0 {
		return 0, nil, fmt.Errorf("sshproto: empty message frame")
	}
	if length > maxMessageSize {
		return 0, nil, fmt.Errorf("sshproto: message frame too large (%d bytes)", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("sshproto: reading message body: %w", err)
	}

	return body[0], body[1:], nil
}

// WriteMessage writes one length-prefixed frame consisting of msgType
// followed by body.
func WriteMessage(w io.Writer, msgType byte, body []byte) error {
	frame := make([]byte, 4+1+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(1+len(body)))
	frame[4] = msgType
	copy(frame[5:], body)

	_, err := w.Write(frame)
	return err
}

// PutString appends an SSH-encoded string (4-byte big-endian length
// prefix then raw bytes) to dst and returns the result.
func PutString(dst []byte, s []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(s)))
	dst = append(dst, length[:]...)
	dst = append(dst, s...)
	return dst
}

// PutUint32 appends a big-endian uint32 to dst and returns the result.
func PutUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// GetString reads one SSH-encoded string from the front of src, returning
// the string bytes and the remaining unread tail.
func GetString(src []byte) (value []byte, rest []byte, err error) {
	if len(src) < 4 {
		return nil, nil, fmt.Errorf("sshproto: truncated string length")
	}
	length := binary.BigEndian.Uint32(src[:4])
	src = src[4:]
	if uint64(length) > uint64(len(src)) {
		return nil, nil, fmt.Errorf("sshproto: truncated string body")
	}
	return src[:length], src[length:], nil
}

// GetUint32 reads one big-endian uint32 from the front of src, returning
// the value and the remaining unread tail.
func GetUint32(src []byte) (value uint32, rest []byte, err error) {
	if len(src) < 4 {
		return 0, nil, fmt.Errorf("sshproto: truncated uint32")
	}
	return binary.BigEndian.Uint32(src[:4]), src[4:], nil
}

// EncodeIdentitiesAnswer builds an IDENTITIES_ANSWER body from an ordered
// list of (key blob, comment) pairs.
func EncodeIdentitiesAnswer(identities []Identity) []byte {
	body := PutUint32(nil, uint32(len(identities)))
	for _, id := range identities {
		body = PutString(body, id.KeyBlob)
		body = PutString(body, []byte(id.Comment))
	}
	return body
}

// Identity is one (public_key_blob, comment) pair as advertised by
// REQUEST_IDENTITIES.
type Identity struct {
	KeyBlob []byte
	Comment string
}

// EncodeSignResponse builds a SIGN_RESPONSE body carrying an
// already-formatted SSH signature blob.
func EncodeSignResponse(signatureBlob []byte) []byte {
	return PutString(nil, signatureBlob)
}

// DecodeSignRequest parses a SIGN_REQUEST body into its three fields.
func DecodeSignRequest(body []byte) (keyBlob, data []byte, flags uint32, err error) {
	keyBlob, rest, err := GetString(body)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("sshproto: decoding sign request key blob: %w", err)
	}
	data, rest, err = GetString(rest)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("sshproto: decoding sign request data: %w", err)
	}
	flags, _, err = GetUint32(rest)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("sshproto: decoding sign request flags: %w", err)
	}
	return keyBlob, data, flags, nil
}
