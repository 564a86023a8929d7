// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oshima-client/internal/config"
	"github.com/pdiddy/oshima-client/internal/extracts"
	"github.com/pdiddy/oshima-client/internal/httputil"
)

func newExtractsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extracts <paper-id>...",
		Short: "Fetch claims and evidence extracted from uploaded papers",
		Long: `Extracts requests the claims and evidence for one or more papers in a
single call, saves the full response as indented JSON, and prints a
per-paper summary with sample claims and evidence.

Papers with no extracts yet may still be processing.`,
		Example: `  oshima extracts 16a9a57a-33f0-446d-a09d-93e84d994692 59900367-fe96-4bef-9034-4075af91e436
  oshima extracts --recent 5 --history-db ~/.local/share/oshima/history.db`,
		RunE: a.runExtracts,
	}

	f := cmd.Flags()
	f.StringP("output", "o", extracts.DefaultOutputFile, "file the full response is saved to")
	f.Int("recent", 0, "also fetch the N most recently uploaded papers from the history")
	return cmd
}

func (a *app) runExtracts(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	recent, _ := flags.GetInt("recent")

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	ids := append([]string(nil), args...)
	if recent > 0 {
		more, err := a.recentPaperIDs(cmd.Context(), cfg, recent)
		if err != nil {
			return err
		}
		ids = append(ids, more...)
	}
	if len(ids) == 0 {
		return errors.New("at least one paper ID is required (or use --recent with an upload history)")
	}

	for _, id := range extracts.InvalidIDs(ids) {
		a.out.Warning("%q does not look like a paper ID; sending it anyway", id)
	}

	a.out.Heading("OSHIMA PAPER EXTRACTS FETCHER")

	// Request failures are reported but do not change the exit status.
	if err := a.fetchExtracts(cmd.Context(), cfg, ids, output); err != nil {
		a.out.Blank()
		a.printError(err)
	}
	return nil
}

func (a *app) recentPaperIDs(ctx context.Context, cfg config.Config, n int) ([]string, error) {
	store, err := a.openHistory(cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("--recent needs an upload history: set --history-db or OSHIMA_HISTORY_DB")
	}
	defer store.Close()
	return store.RecentPaperIDs(ctx, n)
}

func (a *app) fetchExtracts(ctx context.Context, cfg config.Config, ids []string, output string) error {
	token, err := a.authenticate(ctx, cfg)
	if err != nil {
		return err
	}

	f := &extracts.Fetcher{
		Client:    httputil.NewClient(cfg.ExtractHTTP()),
		BaseURL:   cfg.APIURL,
		Token:     token,
		UserAgent: cfg.UserAgent,
		Logger:    a.logger,
	}

	p := a.out
	p.Blank()
	p.Line("Fetching extracts for %d paper(s)...", len(ids))
	p.Field(3, "API", f.Endpoint())
	for i, id := range ids {
		p.Line("   %d. %s", i+1, id)
	}

	raw, err := f.Fetch(ctx, ids)
	if err != nil {
		return err
	}

	if err := extracts.Save(output, raw); err != nil {
		return err
	}
	p.Blank()
	p.Success("Full response saved to: %s", output)

	resp, err := extracts.Decode(raw)
	if err != nil {
		return err
	}

	for _, id := range extracts.Unrequested(ids, resp.Data.Elements) {
		p.Warning("Response contains elements for unrequested paper %s", id)
	}

	extracts.Summarize(p, resp.Data)
	return nil
}
