// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestUserAgent_CleanBuild(t *testing.T) {
	original := GitDirty
	defer func() { GitDirty = original }()
	GitDirty = "false"

	ua := UserAgent()
	if !strings.HasPrefix(ua, "vault-conductor/"+Version) {
		t.Errorf("expected User-Agent to start with vault-conductor/%s, got %q", Version, ua)
	}
	if strings.Contains(ua, "-dirty") {
		t.Errorf("expected clean build User-Agent to omit -dirty, got %q", ua)
	}
}

func TestUserAgent_DirtyBuild(t *testing.T) {
	original := GitDirty
	defer func() { GitDirty = original }()
	GitDirty = "true"

	if ua := UserAgent(); !strings.Contains(ua, "-dirty") {
		t.Errorf("expected dirty build User-Agent to include -dirty, got %q", ua)
	}
}
