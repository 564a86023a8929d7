// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extracts retrieves the claims and evidence extracted for
// uploaded papers, saves the raw response, and summarizes it per paper.
package extracts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/oshima-client/internal/httputil"
	"github.com/pdiddy/oshima-client/pkg/types"
)

// extractsPath is the extraction endpoint relative to the API base URL.
const extractsPath = "/api/v1/papers/extracts"

// DefaultOutputFile is where the raw response is saved.
const DefaultOutputFile = "paper_extracts.json"

var (
	// ErrNoPaperIDs is returned when Fetch is called with an empty query.
	ErrNoPaperIDs = errors.New("at least one paper ID is required")

	// ErrMalformedResponse is returned when a 200 response is not valid
	// JSON or does not decode into the extraction model.
	ErrMalformedResponse = errors.New("malformed extracts response")
)

// Fetcher posts paper IDs to the extracts endpoint.
type Fetcher struct {
	Client    *http.Client
	BaseURL   string
	Token     string
	UserAgent string
	Logger    *slog.Logger
}

// Endpoint returns the extracts URL.
func (f *Fetcher) Endpoint() string {
	return strings.TrimRight(f.BaseURL, "/") + extractsPath
}

// Fetch requests extracts for ids in a single call and returns the body
// exactly as received. Any status other than 200 yields an
// *httputil.StatusError; a body that is not valid JSON yields
// ErrMalformedResponse. The body is not checked against the extraction
// model, so callers can keep it before calling Decode.
func (f *Fetcher) Fetch(ctx context.Context, ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, ErrNoPaperIDs
	}

	body, err := json.Marshal(types.ExtractionQuery{PaperIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encoding extracts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating extracts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	httputil.SetBearer(req, f.Token)
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("fetching extracts", "url", f.Endpoint(), "papers", len(ids))

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extracts request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("extracts", resp, http.StatusOK); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading extracts response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}
	logger.Debug("extracts received", "bytes", len(raw))
	return raw, nil
}

// Decode parses a body returned by Fetch into the extraction model.
func Decode(raw []byte) (types.ExtractionResponse, error) {
	var out types.ExtractionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.ExtractionResponse{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return out, nil
}

// Save writes raw to path as indented JSON, replacing any existing file.
// Key order and values are kept exactly as received.
func Save(path string, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// GroupByPaper maps each paper ID to its elements, preserving response
// order. IDs are taken as given; elements for papers that were not
// requested are grouped under their own ID.
func GroupByPaper(elements []types.Element) map[string][]types.Element {
	groups := make(map[string][]types.Element)
	for _, e := range elements {
		groups[e.PaperID] = append(groups[e.PaperID], e)
	}
	return groups
}

// Unrequested returns, in first-seen order, the paper IDs that appear in
// elements but not in ids.
func Unrequested(ids []string, elements []types.Element) []string {
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	seen := make(map[string]bool)
	var extra []string
	for _, e := range elements {
		if requested[e.PaperID] || seen[e.PaperID] {
			continue
		}
		seen[e.PaperID] = true
		extra = append(extra, e.PaperID)
	}
	return extra
}

// InvalidIDs returns the ids that do not parse as UUIDs.
func InvalidIDs(ids []string) []string {
	var bad []string
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			bad = append(bad, id)
		}
	}
	return bad
}
