// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package sshproto

import (
	"bytes"
	"io"
	"testing"
)

func TestWriteReadMessage_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, SignRequest, []byte("body")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	msgType, body, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msgType != SignRequest {
		t.Errorf("expected type %d, got %d", SignRequest, msgType)
	}
	if string(body) != "body" {
		t.Errorf("expected body %q, got %q", "body", body)
	}
}

func TestReadMessage_EOFOnCleanClose(t *testing.T) {
	_, _, err := ReadMessage(bytes.NewReader(nil))
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReadMessage_RejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, _, err := ReadMessage(&buf); err == nil {
		t.Fatal("expected error for oversized frame")
	}
}

func TestStringRoundTrip(t *testing.T) {
	encoded := PutString(nil, []byte("hello"))
	value, rest, err := GetString(encoded)
	if err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
	if string(value) != "hello" {
		t.Errorf("expected %q, got %q", "hello", value)
	}
	if len(rest) != 0 {
		t.Errorf("expected no remainder, got %d bytes", len(rest))
	}
}

func TestSignRequestRoundTrip(t *testing.T) {
	keyBlob := []byte("key-blob")
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	flags := FlagRSASHA2_256

	body := PutUint32(PutString(PutString(nil, keyBlob), data), flags)

	gotKeyBlob, gotData, gotFlags, err := DecodeSignRequest(body)
	if err != nil {
		t.Fatalf("DecodeSignRequest failed: %v", err)
	}
	if !bytes.Equal(gotKeyBlob, keyBlob) {
		t.Errorf("key blob mismatch: %x != %x", gotKeyBlob, keyBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("data mismatch: %x != %x", gotData, data)
	}
	if gotFlags != flags {
		t.Errorf("flags mismatch: %d != %d", gotFlags, flags)
	}
}

func TestEncodeIdentitiesAnswer(t *testing.T) {
	identities := []Identity{
		{KeyBlob: []byte("blob-a"), Comment: "alice@host"},
		{KeyBlob: []byte("blob-b"), Comment: "bob@host"},
	}
	body := EncodeIdentitiesAnswer(identities)

	count, rest, err := GetUint32(body)
	if err != nil {
		t.Fatalf("GetUint32 failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 identities, got %d", count)
	}

	blobA, rest, err := GetString(rest)
	if err != nil || string(blobA) != "blob-a" {
		t.Fatalf("unexpected first blob: %q, err=%v", blobA, err)
	}
	commentA, rest, err := GetString(rest)
	if err != nil || string(commentA) != "alice@host" {
		t.Fatalf("unexpected first comment: %q, err=%v", commentA, err)
	}
	blobB, rest, err := GetString(rest)
	if err != nil || string(blobB) != "blob-b" {
		t.Fatalf("unexpected second blob: %q, err=%v", blobB, err)
	}
	commentB, _, err := GetString(rest)
	if err != nil || string(commentB) != "bob@host" {
		t.Fatalf("unexpected second comment: %q, err=%v", commentB, err)
	}
}
