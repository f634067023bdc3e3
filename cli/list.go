package cli

// This file contains the list command for displaying previous suite runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/ctsrun/history"
)

func (a *App) list(ctx *cli.Context) error {
	filter := ctx.String("filter")
	limit := ctx.Int("limit")

	root, err := a.historyRoot(ctx)
	if err != nil {
		return err
	}

	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filter == "" || matchesFilter(entry, filter) {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	w := a.stdout
	if len(filteredEntries) == 0 {
		if filter != "" {
			fmt.Fprintf(w, "No history entries found matching: %s\n", filter)
		} else {
			fmt.Fprintln(w, "No history entries found")
		}
		return nil
	}

	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Fprintf(w, "\n=== History (%d total) ===\n\n", len(filteredEntries))

	for _, entry := range displayRuns {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Millisecond)

		status := "✓"
		switch {
		case h.ExitCode != 0:
			status = "✗"
		case !h.Complete:
			status = "?"
		}

		shortID := h.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Fprintf(w, "%s  %s  [%s]  exit=%d  id=%s\n", status, timestamp, duration, h.ExitCode, shortID)
		fmt.Fprintf(w, "   Suite: %s (%s)\n", h.Suite, h.Mode)
		if h.Binary != "" {
			fmt.Fprintf(w, "   Binary: %s\n", h.Binary)
		}
		if h.Manifest != "" {
			fmt.Fprintf(w, "   Manifest: %s\n", h.Manifest)
		}
		if h.Target != nil {
			fmt.Fprintf(w, "   Target: %s %s", h.Target.Transport, h.Target.ID)
			if h.Target.KubeContext != "" || h.Target.Namespace != "" {
				fmt.Fprintf(w, " (%s/%s)", h.Target.KubeContext, h.Target.Namespace)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "   Result: %s\n", h.Summary)
		fmt.Fprintf(w, "   %s\n", entry.FullPath)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "View results: %s view <ID>\n", AppName)

	return nil
}

func matchesFilter(entry history.Entry, filter string) bool {
	h := entry.History
	fields := []string{h.Suite, h.Binary, h.Manifest}
	if h.Target != nil {
		fields = append(fields, h.Target.ID)
	}
	for _, f := range fields {
		if strings.Contains(f, filter) {
			return true
		}
	}
	return false
}
