// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/oshima-client/internal/config"
	"github.com/pdiddy/oshima-client/internal/httputil"
	"github.com/pdiddy/oshima-client/internal/upload"
	"github.com/pdiddy/oshima-client/pkg/types"
)

// newUploader builds an Uploader for cfg, attaching the history store when
// enabled. The returned func releases the store.
func (a *app) newUploader(cfg config.Config, token string) (*upload.Uploader, func(), error) {
	u := upload.New(httputil.NewClient(cfg.UploadHTTP()), cfg.APIURL, token, a.stdout)
	u.UserAgent = cfg.UserAgent
	u.Logger = a.logger

	store, err := a.openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return u, func() {}, nil
	}
	u.History = store
	return u, func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("closing upload history", "error", err)
		}
	}, nil
}

// --- upload ---

func newUploadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <pdf>",
		Short: "Upload a single PDF paper",
		Long: `Upload signs in, sends one PDF to the papers endpoint, and prints the
paper ID and status assigned by the service, followed by the full response.`,
		Example: `  oshima upload paper.pdf --title "Efficient Attention" --field "Computer Science" --topic AI
  oshima upload paper.pdf --doi 10.1234/example`,
		Args: cobra.ExactArgs(1),
		RunE: a.runUpload,
	}

	f := cmd.Flags()
	f.String("title", "", "paper title")
	f.String("field", "", "research field")
	f.String("topic", "", "research topic")
	f.String("doi", "", "DOI (e.g. 10.1234/example)")
	return cmd
}

func (a *app) runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	req := types.UploadRequest{Path: args[0]}
	req.Title, _ = cmd.Flags().GetString("title")
	req.Field, _ = cmd.Flags().GetString("field")
	req.Topic, _ = cmd.Flags().GetString("topic")
	req.DOI, _ = cmd.Flags().GetString("doi")

	// A missing file fails before signing in or printing the request.
	if _, err := upload.CheckFile(req.Path); err != nil {
		return err
	}

	ctx := cmd.Context()
	token, err := a.authenticate(ctx, cfg)
	if err != nil {
		return err
	}

	u, closeHistory, err := a.newUploader(cfg, token)
	if err != nil {
		return err
	}
	defer closeHistory()

	u.PrintRequest(req)
	result, err := u.Upload(ctx, req)
	if err != nil {
		return err
	}
	u.PrintResult(result)
	return nil
}

// --- upload-dir ---

func newUploadDirCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload-dir <directory>",
		Short: "Upload every matching PDF in a directory",
		Long: `Upload-dir uploads the files in a directory that match --pattern, one
at a time in name order, pausing --delay seconds between uploads. A failed
upload is reported and the batch continues. The command exits non-zero if
any upload failed.

Only the directory itself is searched; subdirectories are ignored.`,
		Example: `  oshima upload-dir ./papers --field "Computer Science" --topic AI
  oshima upload-dir ./papers --pattern "draft-*.pdf" --delay 2.5 --summary summary.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: a.runUploadDir,
	}

	f := cmd.Flags()
	f.String("field", "", "research field applied to every paper")
	f.String("topic", "", "research topic applied to every paper")
	f.Float64("delay", upload.DefaultDelay.Seconds(), "seconds to wait between uploads")
	f.String("pattern", upload.DefaultPattern, "file name glob")
	f.String("summary", "", "write the batch summary as YAML to this file")
	return cmd
}

// maxDelaySeconds bounds the pause so it fits in a time.Duration.
const maxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

func (a *app) runUploadDir(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	seconds, _ := flags.GetFloat64("delay")
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("--delay must be a non-negative number of seconds, got %v", seconds)
	}
	if seconds >= maxDelaySeconds {
		return fmt.Errorf("--delay must be below %.0f seconds, got %v", maxDelaySeconds, seconds)
	}

	batch := types.BatchConfig{Delay: time.Duration(seconds * float64(time.Second))}
	batch.Pattern, _ = flags.GetString("pattern")
	batch.Field, _ = flags.GetString("field")
	batch.Topic, _ = flags.GetString("topic")
	summaryPath, _ := flags.GetString("summary")

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	token, err := a.authenticate(ctx, cfg)
	if err != nil {
		return err
	}

	u, closeHistory, err := a.newUploader(cfg, token)
	if err != nil {
		return err
	}
	defer closeHistory()

	summary, err := u.UploadDirectory(ctx, args[0], batch)
	if summary.Total > 0 {
		u.PrintSummary(summary)
	}
	if summaryPath != "" && summary.Total > 0 {
		if werr := writeSummary(summaryPath, summary); werr != nil {
			return werr
		}
		a.out.Hint("Summary written to %s", summaryPath)
	}
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return errUploadsFailed
	}
	return nil
}

func writeSummary(path string, summary types.BatchSummary) error {
	data, err := yaml.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
