// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pirafrank/vault-conductor/internal/errs"
)

// Config is vault-conductor's fully resolved configuration.
type Config struct {
	// AccessToken authenticates to the vault. Never logged.
	AccessToken string `yaml:"bws_access_token"`

	// SecretIDs is the ordered sequence of vault secret UUIDs whose
	// values are OpenSSH-armored private keys. Order determines the
	// identity order SSH clients see.
	SecretIDs []string `yaml:"bw_secret_ids"`
}

// Default returns the zero-value configuration used as a base before a
// file or environment overlay is applied.
func Default() *Config {
	return &Config{}
}

// DefaultPath returns the OS-appropriate default config file location:
// <user-config-dir>/vault-conductor/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(dir, "vault-conductor", "config.yaml"), nil
}

// Load resolves configuration using the standard precedence: defaults,
// then the file at explicitPath (or the default path when explicitPath
// is empty), then environment variable overrides. It fails fast with a
// *errs.Error of kind KindConfig on a missing token or empty secret list.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	path := explicitPath
	explicit := path != ""
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, errs.Wrap(errs.KindConfig, "resolving default config path", err)
		}
		path = defaultPath
	}

	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile reads and merges the YAML document at path into cfg. A missing
// file is tolerated unless explicit is true (the caller passed --config).
func (c *Config) loadFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errs.Wrap(errs.KindConfig, fmt.Sprintf("reading config file %s", path), err)
	}

	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	var raw yaml.Node
	if err := decoder.Decode(&raw); err != nil {
		return errs.Wrap(errs.KindConfig, fmt.Sprintf("parsing config file %s", path), err)
	}

	warnUnrecognizedKeys(&raw)

	if err := raw.Decode(c); err != nil {
		return errs.Wrap(errs.KindConfig, fmt.Sprintf("parsing config file %s", path), err)
	}

	return nil
}

// recognizedKeys are the only top-level keys this config document
// understands; anything else is ignored with a warning per the
// documented YAML precedence.
var recognizedKeys = map[string]bool{
	"bws_access_token": true,
	"bw_secret_ids":    true,
}

func warnUnrecognizedKeys(document *yaml.Node) {
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return
	}
	mapping := document.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if !recognizedKeys[key] {
			fmt.Fprintf(os.Stderr, "vault-conductor: warning: unrecognized config key %q ignored\n", key)
		}
	}
}

// applyEnvironment overlays BWS_ACCESS_TOKEN and BW_SECRET_IDS when set
// and non-empty, per the documented precedence.
func (c *Config) applyEnvironment() {
	if token := os.Getenv("BWS_ACCESS_TOKEN"); token != "" {
		c.AccessToken = token
	}
	if ids := os.Getenv("BW_SECRET_IDS"); ids != "" {
		var parsed []string
		for _, id := range strings.Split(ids, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				parsed = append(parsed, id)
			}
		}
		c.SecretIDs = parsed
	}
}

// Validate checks the resolved configuration for completeness and
// well-formedness, returning a *errs.Error of kind KindConfig describing
// the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return errs.New(errs.KindConfig, "missing access token: set bws_access_token in the config file or BWS_ACCESS_TOKEN in the environment")
	}
	if len(c.SecretIDs) == 0 {
		return errs.New(errs.KindConfig, "no secret ids configured: set bw_secret_ids in the config file or BW_SECRET_IDS in the environment")
	}
	for i, id := range c.SecretIDs {
		if _, err := uuid.Parse(id); err != nil {
			return errs.Wrap(errs.KindConfig, fmt.Sprintf("bw_secret_ids[%d] is not a valid UUID: %q", i, id), err)
		}
	}
	return nil
}

// LogFilePath returns the OS-appropriate log file path.
func LogFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "vault-conductor", "vault-conductor.log"), nil
	}
	return filepath.Join(home, ".local", "state", "vault-conductor", "logs", "vault-conductor.log"), nil
}
