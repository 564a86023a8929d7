// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auth exchanges account credentials for a bearer token using the
// identity provider's password grant.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/oshima-client/internal/httputil"
	"github.com/pdiddy/oshima-client/pkg/types"
)

// tokenPath is the password-grant endpoint relative to the identity URL.
const tokenPath = "/auth/v1/token?grant_type=password"

var (
	// ErrAuthentication is returned when the identity provider rejects the
	// credentials or answers without an access token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrIncompleteCredentials is returned when a credential value is empty.
	ErrIncompleteCredentials = errors.New("incomplete credentials")
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate issues one password-grant request and returns the access
// token. A non-200 answer wraps both ErrAuthentication and an
// *httputil.StatusError; transport failures are returned as-is.
func Authenticate(ctx context.Context, client *http.Client, creds types.Credentials, logger *slog.Logger) (string, error) {
	if !creds.Complete() {
		return "", ErrIncompleteCredentials
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	body, err := json.Marshal(tokenRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return "", fmt.Errorf("encoding token request: %w", err)
	}

	url := strings.TrimRight(creds.IdentityURL, "/") + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("apikey", creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("requesting token", "url", url, "email", creds.Email)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("auth", resp, http.StatusOK); err != nil {
		logger.Debug("token request rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	var tr tokenResponse
	if _, err := httputil.ReadJSON(resp, &tr); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrAuthentication)
	}
	return tr.AccessToken, nil
}
