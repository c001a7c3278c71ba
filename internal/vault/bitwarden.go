// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pirafrank/vault-conductor/internal/errs"
	"github.com/pirafrank/vault-conductor/internal/secretbuf"
	"github.com/pirafrank/vault-conductor/internal/version"
)

// BitwardenFetcher implements SecretFetcher over the Bitwarden Secrets
// Manager HTTP API: an identity server issues a bearer token for the
// configured machine access token, and an API server serves individual
// secrets by UUID under that bearer token.
//
// The access token is held in a secretbuf.Buffer for the shortest time
// possible: NewBitwardenFetcher copies it in, and Authenticate exchanges
// it for a bearer token and closes the buffer before returning.
type BitwardenFetcher struct {
	identityURL string
	apiURL      string
	httpClient  *http.Client
	accessToken *secretbuf.Buffer

	mu          sync.Mutex
	bearerToken string
	authorized  bool
}

// BitwardenFetcherConfig configures a BitwardenFetcher. IdentityURL and
// APIURL default to Bitwarden's production endpoints when empty; tests
// point them at an httptest.Server.
type BitwardenFetcherConfig struct {
	// AccessToken is the vault machine access token
	// ("0.<client-id>.<client-secret>"). Copied into a secretbuf.Buffer
	// immediately; the caller's copy is left untouched (it typically
	// lives in the process's own config.Config and is the caller's to
	// manage).
	AccessToken string
	IdentityURL string
	APIURL      string
	HTTPClient  *http.Client
}

const (
	defaultIdentityURL = "https://identity.bitwarden.com"
	defaultAPIURL      = "https://api.bitwarden.com"
)

// NewBitwardenFetcher constructs a fetcher. Call Authenticate before the
// first GetSecret.
func NewBitwardenFetcher(cfg BitwardenFetcherConfig) (*BitwardenFetcher, error) {
	identityURL := cfg.IdentityURL
	if identityURL == "" {
		identityURL = defaultIdentityURL
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	tokenBuffer, err := secretbuf.FromString(cfg.AccessToken, "access token")
	if err != nil {
		return nil, errs.Wrap(errs.KindAuthFailed, "protecting access token", err)
	}

	return &BitwardenFetcher{
		identityURL: strings.TrimRight(identityURL, "/"),
		apiURL:      strings.TrimRight(apiURL, "/"),
		httpClient:  httpClient,
		accessToken: tokenBuffer,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Authenticate exchanges the configured access token for a bearer token
// using the client-credentials grant. The access token buffer is closed
// once the exchange completes, successfully or not — it is only ever
// needed for this one request.
func (f *BitwardenFetcher) Authenticate(ctx context.Context) error {
	defer f.accessToken.Close()

	form := "grant_type=client_credentials&scope=api.secrets" +
		"&client_id=" + splitClientID(f.accessToken.String()) +
		"&client_secret=" + splitClientSecret(f.accessToken.String())

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, f.identityURL+"/connect/token", strings.NewReader(form))
	if err != nil {
		return errs.Wrap(errs.KindAuthFailed, "building token request", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Device-Type", "21") // SDK
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := f.httpClient.Do(request)
	if err != nil {
		return errs.Wrap(errs.KindAuthFailed, "vault authentication request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return errs.Wrap(errs.KindAuthFailed, "reading vault authentication response", err)
	}

	if response.StatusCode != http.StatusOK {
		return errs.New(errs.KindAuthFailed, fmt.Sprintf("vault rejected access token (status %d)", response.StatusCode))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return errs.Wrap(errs.KindAuthFailed, "parsing vault authentication response", err)
	}
	if parsed.AccessToken == "" {
		return errs.New(errs.KindAuthFailed, "vault authentication response missing access_token")
	}

	f.mu.Lock()
	f.bearerToken = parsed.AccessToken
	f.authorized = true
	f.mu.Unlock()

	return nil
}

// splitClientID and splitClientSecret extract the two dot-separated
// segments Bitwarden's machine access token format encodes them in
// ("0.<client-id>.<client-secret>"). Malformed tokens simply fail the
// downstream identity-server call with a non-2xx status, which surfaces
// as KindAuthFailed above.
func splitClientID(token string) string {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func splitClientSecret(token string) string {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

type secretResponse struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetSecret fetches one secret by UUID. Safe for concurrent use: each
// call is an independent HTTP round trip against the shared http.Client.
func (f *BitwardenFetcher) GetSecret(ctx context.Context, id string) (SecretData, error) {
	f.mu.Lock()
	bearer := f.bearerToken
	authorized := f.authorized
	f.mu.Unlock()

	if !authorized {
		return SecretData{}, errs.New(errs.KindFetchFailed, "vault fetcher used before Authenticate")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"/secrets/"+id, nil)
	if err != nil {
		return SecretData{}, wrapFetchError(id, err)
	}
	request.Header.Set("Authorization", "Bearer "+bearer)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := f.httpClient.Do(request)
	if err != nil {
		return SecretData{}, wrapFetchError(id, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return SecretData{}, wrapFetchError(id, err)
	}

	if response.StatusCode == http.StatusNotFound {
		return SecretData{}, errs.New(errs.KindFetchFailed, "secret "+id+" not found in vault")
	}
	if response.StatusCode != http.StatusOK {
		return SecretData{}, errs.New(errs.KindFetchFailed, fmt.Sprintf("vault returned status %d for secret %s", response.StatusCode, id))
	}

	var parsed secretResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SecretData{}, wrapFetchError(id, err)
	}

	return SecretData{Name: parsed.Key, Value: parsed.Value}, nil
}

var _ AuthenticatingFetcher = (*BitwardenFetcher)(nil)

// Close clears the bearer token and releases the access token buffer
// (a no-op if Authenticate already closed it). The fetcher holds no
// other long-lived connections beyond the shared http.Client's pool.
func (f *BitwardenFetcher) Close() error {
	f.mu.Lock()
	f.bearerToken = ""
	f.authorized = false
	f.mu.Unlock()
	return f.accessToken.Close()
}
