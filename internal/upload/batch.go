// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/oshima-client/pkg/types"
)

// Batch defaults.
const (
	DefaultPattern = "*.pdf"
	DefaultDelay   = 1 * time.Second
)

var (
	// ErrDirectoryNotFound is returned when the batch directory does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrNotDirectory is returned when the batch path is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// ListFiles returns the regular files directly inside dir whose names
// match pattern, sorted lexicographically by path. The listing is a
// snapshot; files created afterwards are not seen.
func ListFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if ok, _ := filepath.Match(pattern, entry.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		// Stat follows symlinks so linked PDFs are included.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// UploadDirectory uploads every file in dir matching cfg.Pattern, in
// order, pausing cfg.Delay between consecutive uploads. Individual
// failures are recorded in the summary and never stop the batch. An error
// is returned only when the directory cannot be used or ctx is cancelled
// during a pause.
func (u *Uploader) UploadDirectory(ctx context.Context, dir string, cfg types.BatchConfig) (types.BatchSummary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.BatchSummary{}, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return types.BatchSummary{}, fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return types.BatchSummary{}, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	files, err := ListFiles(dir, cfg.Pattern)
	if err != nil {
		return types.BatchSummary{}, err
	}

	p := u.printer()
	if len(files) == 0 {
		p.Warning("No files matching %q found in %s", patternOrDefault(cfg.Pattern), dir)
		return types.BatchSummary{}, nil
	}

	p.Blank()
	p.Line("Found %d file(s) in %s", len(files), dir)
	p.Rule()

	sleep := u.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	summary := types.BatchSummary{Total: len(files)}
	for i, path := range files {
		name := filepath.Base(path)
		p.Blank()
		p.Line("[%d/%d] Uploading: %s", i+1, len(files), name)

		outcome := u.Collect(ctx, types.UploadRequest{
			Path:  path,
			Title: titleFor(name),
			Field: cfg.Field,
			Topic: cfg.Topic,
		})
		summary.Add(outcome)
		u.logger().Info("batch item", "file", name, "status", outcome.Status, "paper_id", outcome.PaperID)

		if i < len(files)-1 {
			p.Hint("   Waiting %s before next upload...", cfg.Delay)
			if err := sleep(ctx, cfg.Delay); err != nil {
				return summary, fmt.Errorf("batch interrupted after %d of %d file(s): %w", i+1, len(files), err)
			}
		}
	}
	return summary, nil
}

// PrintSummary writes the batch totals.
func (u *Uploader) PrintSummary(s types.BatchSummary) {
	p := u.printer()
	p.Blank()
	p.Heading("UPLOAD SUMMARY")
	p.Line("Total files: %d", s.Total)
	p.Success("Successful: %d", s.Success)
	if s.HasFailures() {
		p.Failure("Failed: %d", s.Failed)
	} else {
		p.Line("Failed: %d", s.Failed)
	}
	p.Rule()
	if s.HasFailures() {
		p.Blank()
		p.Warning("Some uploads failed. Check the output above for details.")
	}
}

func patternOrDefault(pattern string) string {
	if pattern == "" {
		return DefaultPattern
	}
	return pattern
}

// titleFor derives a paper title from a file name by dropping the
// extension. Names that are only an extension keep the full name.
func titleFor(name string) string {
	if title := strings.TrimSuffix(name, filepath.Ext(name)); title != "" {
		return title
	}
	return name
}
