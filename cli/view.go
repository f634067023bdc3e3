package cli

// This file contains the view command for displaying suite results from history.

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/acarl005/stripansi"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/ctsrun/history"
	"github.com/perfgo/ctsrun/model"
	"github.com/perfgo/ctsrun/reporting"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, pprofArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are pprof args
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A negative index is "-" followed by only digits (e.g. "-1"), anything
	// else starting with "-" is a pprof flag (e.g. "-top").
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", in
		}
	}

	// First arg is the ID/index, rest are pprof args (with optional "--" removed)
	return in[0], removeFirstDashDash(in[1:])
}

func (a *App) view(ctx *cli.Context) error {
	arg, pprofArgs := parseViewArgs(ctx.Args().Slice())

	root, err := a.historyRoot(ctx)
	if err != nil {
		return err
	}

	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := history.Find(historyEntries, arg)
	if err != nil {
		return err
	}

	if len(pprofArgs) > 0 {
		return a.displayProfile(entry, pprofArgs)
	}
	return a.displayHistoryEntry(entry)
}

func (a *App) displayHistoryEntry(entry *history.Entry) error {
	h := entry.History
	w := a.stdout

	shortID := h.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	fmt.Fprintf(w, "=== Suite Run: %s ===\n", shortID)
	fmt.Fprintf(w, "Suite: %s (%s)\n", h.Suite, h.Mode)
	fmt.Fprintf(w, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", h.Duration)
	fmt.Fprintf(w, "Exit Code: %d\n", h.ExitCode)
	if h.Binary != "" {
		fmt.Fprintf(w, "Binary: %s\n", h.Binary)
	}
	if h.Manifest != "" {
		fmt.Fprintf(w, "Manifest: %s\n", h.Manifest)
	}
	if h.Target != nil {
		fmt.Fprintf(w, "Target: %s %s\n", h.Target.Transport, h.Target.ID)
	}
	fmt.Fprintln(w)

	rep := reportFromHistory(&h)
	if err := reporting.NewTableSink(w, h.Suite).Complete(rep); err != nil {
		return err
	}

	for _, c := range h.Cases {
		if c.Verdict.Status != model.StatusFail {
			continue
		}
		fmt.Fprintf(w, "\n--- %s: %s\n", c.Name, c.Verdict)
		if len(c.Argv) > 0 {
			fmt.Fprintf(w, "Command: %v\n", c.Argv)
		}
		for _, stream := range []struct {
			name, file string
		}{
			{"stdout", c.StdoutFile},
			{"stderr", c.StderrFile},
		} {
			if stream.file == "" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(entry.FullPath, stream.file))
			if err != nil {
				return fmt.Errorf("failed to read %s of %s: %w", stream.name, c.Name, err)
			}
			fmt.Fprintf(w, "%s (%s):\n%s\n", stream.name, filepath.Join(entry.FullPath, stream.file),
				reporting.Tail(stripansi.Strip(string(data)), reporting.DefaultTailLines))
		}
	}
	return nil
}

// reportFromHistory rebuilds the report of a recorded run.
func reportFromHistory(h *model.History) *model.Report {
	rep := &model.Report{}
	for _, c := range h.Cases {
		_ = rep.Append(model.Entry{
			Name:     c.Name,
			Verdict:  c.Verdict,
			ExitCode: c.ExitCode,
			Duration: c.Duration,
		})
	}
	if h.Complete {
		rep.Finalize()
	}
	return rep
}

func (a *App) displayProfile(entry *history.Entry, pprofArgs []string) error {
	artifact := findArtifact(&entry.History, model.ArtifactTypeTimingProfile)
	if artifact == nil {
		return fmt.Errorf("run %s has no timing profile", entry.History.ID)
	}

	profilePath := filepath.Join(entry.FullPath, artifact.File)
	fmt.Fprintf(a.stdout, "Profile: %s (%.1f KB)\n", profilePath, float64(artifact.Size)/1024)

	args := []string{"tool", "pprof"}
	args = append(args, pprofArgs...)
	args = append(args, profilePath)

	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = entry.FullPath

	return cmd.Run()
}
