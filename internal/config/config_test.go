// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
bws_access_token: test-token
bw_secret_ids:
  - 6ba7b810-9dad-11d1-80b4-00c04fd430c8
  - 6ba7b811-9dad-11d1-80b4-00c04fd430c8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AccessToken != "test-token" {
		t.Errorf("expected token %q, got %q", "test-token", cfg.AccessToken)
	}
	if len(cfg.SecretIDs) != 2 {
		t.Fatalf("expected 2 secret ids, got %d", len(cfg.SecretIDs))
	}
}

func TestLoad_MissingExplicitPathIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if !errs.Is(err, errs.KindConfig) {
		t.Errorf("expected KindConfig error, got %v", err)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
bws_access_token: from-file
bw_secret_ids: ["6ba7b810-9dad-11d1-80b4-00c04fd430c8"]
`)

	t.Setenv("BWS_ACCESS_TOKEN", "from-env")
	t.Setenv("BW_SECRET_IDS", "6ba7b812-9dad-11d1-80b4-00c04fd430c8,6ba7b813-9dad-11d1-80b4-00c04fd430c8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AccessToken != "from-env" {
		t.Errorf("expected env token to override file, got %q", cfg.AccessToken)
	}
	if len(cfg.SecretIDs) != 2 {
		t.Fatalf("expected env secret ids to override file, got %v", cfg.SecretIDs)
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := &Config{SecretIDs: []string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing access token")
	}
}

func TestValidate_EmptySecretList(t *testing.T) {
	cfg := &Config{AccessToken: "token"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty secret id list")
	}
}

func TestValidate_MalformedUUID(t *testing.T) {
	cfg := &Config{AccessToken: "token", SecretIDs: []string{"not-a-uuid"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed secret id")
	}
}

func TestValidate_TrimsWhitespaceOnlyToken(t *testing.T) {
	cfg := &Config{AccessToken: "   ", SecretIDs: []string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for whitespace-only access token")
	}
}
