// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the auth, upload, and
// extracts stages: client construction, status checking that keeps the
// raw response body, and JSON decoding.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/pdiddy/oshima-client/pkg/types"
)

// maxErrorBody caps how much of a failed response is kept for reporting.
const maxErrorBody = 64 << 10

// NewClient returns an http.Client bounded by cfg.Timeout. A zero timeout
// means no limit.
func NewClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// StatusError reports an unexpected HTTP status. Body holds the raw
// response text so callers can show what the server said.
type StatusError struct {
	// Op names the call that failed (e.g. "upload").
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, body)
}

// CheckStatus returns nil when resp has one of the accepted status codes.
// Otherwise it reads (a bounded prefix of) the body and returns a
// *StatusError. The body is not closed; the caller owns resp.
func CheckStatus(op string, resp *http.Response, accepted ...int) error {
	if slices.Contains(accepted, resp.StatusCode) {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
}

// ReadJSON reads the full body of resp, decodes it into v, and returns the
// raw bytes alongside so callers can keep the response verbatim.
func ReadJSON(resp *http.Response, v any) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return data, fmt.Errorf("parsing response: %w", err)
	}
	return data, nil
}

// SetBearer sets the Authorization header for a bearer token.
func SetBearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}
