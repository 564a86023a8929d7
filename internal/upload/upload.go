// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload submits PDFs to the papers endpoint, one at a time or for
// every matching file in a directory.
//
// Upload is the strict mode: it returns a result or an error and is used
// for single-file uploads. Collect is the collecting mode used by batch
// uploads: it never returns an error and reports each file as an
// UploadOutcome instead.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/oshima-client/internal/console"
	"github.com/pdiddy/oshima-client/internal/httputil"
	"github.com/pdiddy/oshima-client/pkg/types"
)

// papersPath is the upload endpoint relative to the API base URL.
const papersPath = "/api/v1/papers/"

const pdfContentType = "application/pdf"

var (
	// ErrFileNotFound is returned before any network call when the file
	// to upload does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrMalformedResponse is returned when a 2xx response lacks the
	// paper_id or status fields.
	ErrMalformedResponse = errors.New("malformed upload response")
)

// Recorder receives the outcome of every upload attempt.
type Recorder interface {
	RecordUpload(ctx context.Context, path string, outcome types.UploadOutcome) error
}

// Uploader sends PDFs to the papers endpoint with a bearer token.
type Uploader struct {
	Client  *http.Client
	BaseURL string
	Token   string

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Logger receives debug records. Defaults to a discarding logger.
	Logger *slog.Logger

	// History, when set, records each attempt.
	History Recorder

	// Sleep pauses between batch uploads. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	out *console.Printer
}

// New returns an Uploader that prints progress to w.
func New(client *http.Client, baseURL, token string, w io.Writer) *Uploader {
	return &Uploader{
		Client:  client,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Logger:  slog.New(slog.DiscardHandler),
		Sleep:   sleepContext,
		out:     console.New(w),
	}
}

// Endpoint returns the upload URL.
func (u *Uploader) Endpoint() string {
	return u.BaseURL + papersPath
}

// Upload submits one file and returns the parsed result. A missing file
// yields ErrFileNotFound without contacting the server; any status other
// than 200 or 201 yields an *httputil.StatusError.
func (u *Uploader) Upload(ctx context.Context, req types.UploadRequest) (*types.UploadResult, error) {
	result, err := u.upload(ctx, req)
	u.record(ctx, req, result, err)
	return result, err
}

// Collect uploads one file and reports the outcome without returning an
// error. Failures are printed and recorded as OutcomeFailed.
func (u *Uploader) Collect(ctx context.Context, req types.UploadRequest) types.UploadOutcome {
	result, err := u.Upload(ctx, req)
	outcome := outcomeFor(req, result, err)
	if err != nil {
		u.printFailure(err)
		u.printer().Failure("   Failed")
		return outcome
	}

	u.printer().Success("   Success!")
	u.printer().Field(6, "Paper ID", result.PaperID)
	u.printer().Field(6, "Status", result.Status)
	return outcome
}

// CheckFile returns the file info for path, or ErrFileNotFound when it does
// not exist. Directories are rejected.
func CheckFile(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	return info, nil
}

func (u *Uploader) upload(ctx context.Context, req types.UploadRequest) (*types.UploadResult, error) {
	if _, err := CheckFile(req.Path); err != nil {
		return nil, err
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", req.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", req.Path, err)
	}

	mp, err := newForm(req)
	if err != nil {
		return nil, err
	}
	body := io.MultiReader(bytes.NewReader(mp.head), f, bytes.NewReader(mp.tail))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	httpReq.ContentLength = mp.size(info.Size())
	httpReq.Header.Set("Content-Type", mp.contentType)
	httputil.SetBearer(httpReq, u.Token)
	if u.UserAgent != "" {
		httpReq.Header.Set("User-Agent", u.UserAgent)
	}

	u.logger().Debug("uploading", "path", req.Path, "url", u.Endpoint(), "size", info.Size())
	resp, err := u.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("upload", resp, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return decodeResult(resp)
}

type uploadResponse struct {
	Data *types.UploadResult `json:"data"`
}

func decodeResult(resp *http.Response) (*types.UploadResult, error) {
	var env uploadResponse
	raw, err := httputil.ReadJSON(resp, &env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedResponse)
	}
	if env.Data.PaperID == "" {
		return nil, fmt.Errorf("%w: missing paper_id", ErrMalformedResponse)
	}
	if env.Data.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedResponse)
	}
	env.Data.Raw = raw
	return env.Data, nil
}

// form is a multipart body split around the file content, so the request
// length is known before the file is read.
type form struct {
	head        []byte
	tail        []byte
	contentType string
}

func (f form) size(fileSize int64) int64 {
	return int64(len(f.head)) + fileSize + int64(len(f.tail))
}

// newForm renders the metadata fields and the file part header as head, and
// the closing boundary as tail.
func newForm(req types.UploadRequest) (form, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"title", req.Title},
		{"doi", req.DOI},
		{"field", req.Field},
		{"topic", req.Topic},
	}
	for _, fld := range fields {
		if fld.value == "" {
			continue
		}
		if err := mw.WriteField(fld.name, fld.value); err != nil {
			return form{}, fmt.Errorf("writing field %s: %w", fld.name, err)
		}
	}
	if _, err := mw.CreatePart(fileHeader(filepath.Base(req.Path))); err != nil {
		return form{}, fmt.Errorf("creating file part: %w", err)
	}

	out := form{
		head:        bytes.Clone(buf.Bytes()),
		contentType: mw.FormDataContentType(),
	}
	buf.Reset()
	if err := mw.Close(); err != nil {
		return form{}, fmt.Errorf("closing form: %w", err)
	}
	out.tail = bytes.Clone(buf.Bytes())
	return out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileHeader(filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", pdfContentType)
	return h
}

func outcomeFor(req types.UploadRequest, result *types.UploadResult, err error) types.UploadOutcome {
	o := types.UploadOutcome{Filename: filepath.Base(req.Path)}
	if err != nil {
		o.Status = types.OutcomeFailed
		o.Error = err.Error()
		return o
	}
	o.Status = types.OutcomeSuccess
	o.PaperID = result.PaperID
	o.PaperStatus = result.Status
	return o
}

func (u *Uploader) record(ctx context.Context, req types.UploadRequest, result *types.UploadResult, err error) {
	if u.History == nil {
		return
	}
	if recErr := u.History.RecordUpload(ctx, req.Path, outcomeFor(req, result, err)); recErr != nil {
		u.logger().Warn("recording upload history", "path", req.Path, "error", recErr)
	}
}

func (u *Uploader) printFailure(err error) {
	var se *httputil.StatusError
	switch {
	case errors.As(err, &se):
		u.printer().Failure("   Upload failed: %d", se.StatusCode)
		u.printer().Line("   Response: %s", se.Body)
	case errors.Is(err, ErrFileNotFound):
		u.printer().Warning("   File not found: %s", strings.TrimPrefix(err.Error(), ErrFileNotFound.Error()+": "))
	default:
		u.printer().Failure("   Error: %v", err)
	}
}

func (u *Uploader) printer() *console.Printer {
	if u.out == nil {
		u.out = console.New(io.Discard)
	}
	return u.out
}

func (u *Uploader) logger() *slog.Logger {
	if u.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.Logger
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
