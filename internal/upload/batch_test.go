// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oshima-client/pkg/types"
)

// sleepRecorder replaces Uploader.Sleep and records requested pauses.
type sleepRecorder struct {
	delays []time.Duration
	calls  func() int
	// callsAtSleep records how many uploads had happened at each pause.
	callsAtSleep []int
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	if s.calls != nil {
		s.callsAtSleep = append(s.callsAtSleep, s.calls())
	}
	return nil
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notes.txt", "c.pdf.bak", "Z.pdf", "10.pdf", "2.pdf"} {
		writePDF(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))
	writePDF(t, filepath.Join(dir, "folder.pdf"), "nested.pdf")

	files, err := ListFiles(dir, "*.pdf")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		assert.Equal(t, dir, filepath.Dir(f))
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"10.pdf", "2.pdf", "Z.pdf", "a.pdf", "b.pdf"}, names)
}

func TestListFiles_DefaultAndCustomPattern(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "one.pdf")
	writePDF(t, dir, "draft-1.pdf")
	writePDF(t, dir, "draft-2.pdf")

	files, err := ListFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = ListFiles(dir, "draft-*.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "draft-1.pdf"), filepath.Join(dir, "draft-2.pdf")}, files)
}

func TestListFiles_InvalidPattern(t *testing.T) {
	_, err := ListFiles(t.TempDir(), "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestListFiles_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := writePDF(t, t.TempDir(), "real.pdf")
	if err := os.Symlink(target, filepath.Join(dir, "link.pdf")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere.pdf"), filepath.Join(dir, "dangling.pdf")))

	files, err := ListFiles(dir, "*.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "link.pdf")}, files)
}

func TestUploadDirectory_CountsFailures(t *testing.T) {
	m := newMockAPI(t)
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "bad-b.pdf", "c.pdf", "bad-d.pdf", "e.pdf"} {
		writePDF(t, dir, name)
	}
	writePDF(t, dir, "ignore.txt")

	var buf bytes.Buffer
	u := newTestUploader(m, &buf)
	sr := &sleepRecorder{calls: m.calls}
	u.Sleep = sr.sleep

	cfg := types.BatchConfig{Pattern: "*.pdf", Delay: 250 * time.Millisecond, Field: "CS", Topic: "AI"}
	summary, err := u.UploadDirectory(context.Background(), dir, cfg)
	require.NoError(t, err)

	const n, k = 5, 2
	assert.Equal(t, n, summary.Total)
	assert.Equal(t, n-k, summary.Success)
	assert.Equal(t, k, summary.Failed)
	assert.True(t, summary.HasFailures())
	require.Len(t, summary.Uploads, n)

	assert.Equal(t, n, m.calls(), "one upload call per file")
	require.Len(t, sr.delays, n-1, "no pause after the last file")
	for _, d := range sr.delays {
		assert.GreaterOrEqual(t, d, cfg.Delay)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, sr.callsAtSleep, "pauses fall between uploads")

	wantOrder := []string{"a.pdf", "bad-b.pdf", "bad-d.pdf", "c.pdf", "e.pdf"}
	for i, want := range wantOrder {
		assert.Equal(t, want, summary.Uploads[i].Filename)
		assert.Equal(t, want, m.request(i).Filename)
	}
	assert.Equal(t, types.OutcomeSuccess, summary.Uploads[0].Status)
	assert.Equal(t, types.OutcomeFailed, summary.Uploads[1].Status)
	assert.Empty(t, summary.Uploads[1].PaperID)

	first := m.request(0)
	assert.Equal(t, map[string]string{"title": "a", "field": "CS", "topic": "AI"}, first.Fields)

	out := buf.String()
	assert.Contains(t, out, "Found 5 file(s)")
	assert.Contains(t, out, "[1/5] Uploading: a.pdf")
	assert.Contains(t, out, "[5/5] Uploading: e.pdf")
	assert.Contains(t, out, "Waiting 250ms before next upload...")
}

func TestUploadDirectory_AllSucceed(t *testing.T) {
	m := newMockAPI(t)
	dir := t.TempDir()
	writePDF(t, dir, "only.pdf")

	u := newTestUploader(m, io.Discard)
	sr := &sleepRecorder{}
	u.Sleep = sr.sleep

	summary, err := u.UploadDirectory(context.Background(), dir, types.BatchConfig{Delay: time.Second})
	require.NoError(t, err)
	assert.Equal(t, types.BatchSummary{
		Total:   1,
		Success: 1,
		Uploads: []types.UploadOutcome{{Filename: "only.pdf", PaperID: "paper-1", Status: types.OutcomeSuccess, PaperStatus: "pending"}},
	}, summary)
	assert.False(t, summary.HasFailures())
	assert.Empty(t, sr.delays)
}

func TestUploadDirectory_TitleFromFilename(t *testing.T) {
	m := newMockAPI(t)
	dir := t.TempDir()
	writePDF(t, dir, ".pdf")
	writePDF(t, dir, "deep.learning.pdf")

	u := newTestUploader(m, io.Discard)
	u.Sleep = (&sleepRecorder{}).sleep

	summary, err := u.UploadDirectory(context.Background(), dir, types.BatchConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Success)
	require.Equal(t, 2, m.calls())
	assert.Equal(t, ".pdf", m.request(0).Fields["title"], "a bare extension keeps the full name")
	assert.Equal(t, "deep.learning", m.request(1).Fields["title"])
}

func TestTitleFor(t *testing.T) {
	tests := []struct{ name, want string }{
		{"paper.pdf", "paper"},
		{"paper", "paper"},
		{".pdf", ".pdf"},
		{"a.b.pdf", "a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFor(tt.name))
		})
	}
}

func TestUploadDirectory_RealSleepHonorsDelay(t *testing.T) {
	m := newMockAPI(t)
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, "b.pdf")
	writePDF(t, dir, "c.pdf")

	u := newTestUploader(m, io.Discard)
	delay := 30 * time.Millisecond

	start := time.Now()
	summary, err := u.UploadDirectory(context.Background(), dir, types.BatchConfig{Delay: delay})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Success)
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestUploadDirectory_Empty(t *testing.T) {
	m := newMockAPI(t)
	dir := t.TempDir()
	writePDF(t, dir, "readme.txt")

	var buf bytes.Buffer
	u := newTestUploader(m, &buf)
	summary, err := u.UploadDirectory(context.Background(), dir, types.BatchConfig{})
	require.NoError(t, err)
	assert.Equal(t, types.BatchSummary{}, summary)
	assert.Equal(t, 0, m.calls())
	assert.Contains(t, buf.String(), `No files matching "*.pdf"`)
}

func TestUploadDirectory_BadDirectory(t *testing.T) {
	m := newMockAPI(t)
	u := newTestUploader(m, io.Discard)

	_, err := u.UploadDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), types.BatchConfig{})
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	file := writePDF(t, t.TempDir(), "a.pdf")
	_, err = u.UploadDirectory(context.Background(), file, types.BatchConfig{})
	assert.ErrorIs(t, err, ErrNotDirectory)

	assert.Equal(t, 0, m.calls())
}

func TestUploadDirectory_CancelledDuringPause(t *testing.T) {
	m := newMockAPI(t)
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, "b.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	u := newTestUploader(m, io.Discard)
	u.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	summary, err := u.UploadDirectory(ctx, dir, types.BatchConfig{Delay: time.Hour})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, m.calls())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	u := New(nil, "http://api.test", testToken, &buf)

	u.PrintSummary(types.BatchSummary{Total: 3, Success: 2, Failed: 1})
	out := buf.String()
	assert.Contains(t, out, "UPLOAD SUMMARY")
	assert.Contains(t, out, "Total files: 3")
	assert.Contains(t, out, "Successful: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Some uploads failed")

	buf.Reset()
	u.PrintSummary(types.BatchSummary{Total: 1, Success: 1})
	assert.NotContains(t, buf.String(), "Some uploads failed")
}
