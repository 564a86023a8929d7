// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oshima-client/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded uploads",
		Long: `History lists the uploads recorded in the local history database,
newest first. Recording is enabled by setting --history-db, history_db in
the config file, or OSHIMA_HISTORY_DB.`,
		Args: cobra.NoArgs,
		RunE: a.runHistory,
	}

	f := cmd.Flags()
	f.Int("limit", history.DefaultLimit, "maximum number of entries")
	f.Bool("json", false, "output as JSON")
	f.Bool("yaml", false, "output as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, _ []string) error {
	store, err := a.openHistory(a.local)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("upload history is disabled: set --history-db or OSHIMA_HISTORY_DB")
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return history.WriteJSON(a.stdout, entries)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return history.WriteYAML(a.stdout, entries)
	}

	p := a.out
	if len(entries) == 0 {
		p.Line("No uploads recorded.")
		return nil
	}

	p.Line("%-20s  %-7s  %-36s  %s", "Uploaded", "Status", "Paper ID", "File")
	p.Line("%s", strings.Repeat("-", 90))
	for _, e := range entries {
		paperID := e.PaperID
		if paperID == "" {
			paperID = "-"
		}
		p.Line("%-20s  %-7s  %-36s  %s",
			e.UploadedAt.Local().Format("2006-01-02 15:04:05"), e.Status, paperID, e.Filename)
	}
	return nil
}
