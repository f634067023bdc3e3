package cli

// This file contains run recording functionality for saving run metadata and
// the captured case output to the history directory.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/ctsrun/history"
	"github.com/perfgo/ctsrun/model"
	"github.com/perfgo/ctsrun/testcase"
)

// casesDir holds the captured streams of every case of a run.
const casesDir = "cases"

// prepareRunDir creates the directory of a run below root so that reports
// can be written into it while the suite runs.
func prepareRunDir(root string, h *model.History) (string, error) {
	runDir := filepath.Join(root, history.RunDirName(h))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return runDir, nil
}

// recordHistory writes the output of every case and the run metadata.
func (a *App) recordHistory(runDir string, h *model.History, rep *model.Report, cases []*testcase.Case) error {
	argv := make(map[string][]string, len(cases))
	for _, c := range cases {
		argv[c.Name] = c.Request.Argv()
	}

	h.Cases = h.Cases[:0]
	for i, e := range rep.Entries {
		rec := model.CaseRecord{
			Name:     e.Name,
			Argv:     argv[e.Name],
			Verdict:  e.Verdict,
			ExitCode: e.ExitCode,
			Duration: e.Duration,
		}

		base := caseFileBase(i+1, e.Name)
		var err error
		if rec.StdoutFile, err = a.writeCaseStream(runDir, h, base+".stdout.txt", e.Outcome.Stdout, model.ArtifactTypeStdout); err != nil {
			return err
		}
		if rec.StderrFile, err = a.writeCaseStream(runDir, h, base+".stderr.txt", e.Outcome.Stderr, model.ArtifactTypeStderr); err != nil {
			return err
		}
		h.Cases = append(h.Cases, rec)
	}

	a.registerReports(runDir, h)

	if err := history.Write(runDir, h); err != nil {
		return err
	}

	a.logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded suite run")
	return nil
}

// writeCaseStream stores one captured stream and returns its path relative
// to the run directory. Empty streams are not stored.
func (a *App) writeCaseStream(runDir string, h *model.History, name, data string, typ model.ArtifactType) (string, error) {
	if data == "" {
		return "", nil
	}
	rel := filepath.Join(casesDir, name)
	if err := os.MkdirAll(filepath.Join(runDir, casesDir), 0755); err != nil {
		return "", fmt.Errorf("failed to create cases directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, rel), []byte(data), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", typ, err)
	}
	h.Artifacts = append(h.Artifacts, model.Artifact{
		Type: typ,
		Size: uint64(len(data)),
		File: rel,
	})
	return rel, nil
}
