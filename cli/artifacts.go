package cli

// This file contains artifact management functionality for registering the
// reports of a run and naming the files of its cases.

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/perfgo/ctsrun/model"
	"github.com/perfgo/ctsrun/reporting"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// caseFileBase returns the file name prefix for the n-th case. Names may be
// device paths, so everything but a small safe set is replaced.
func caseFileBase(n int, name string) string {
	safe := strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_.")
	if safe == "" {
		safe = "case"
	}
	return fmt.Sprintf("%03d-%s", n, safe)
}

// registerReports adds the reports written to runDir by the sinks to the
// artifacts of h.
func (a *App) registerReports(runDir string, h *model.History) {
	for _, r := range []struct {
		file string
		typ  model.ArtifactType
	}{
		{reporting.JUnitFilename, model.ArtifactTypeJUnit},
		{reporting.MetricsFilename, model.ArtifactTypeMetrics},
		{reporting.TimingFilename, model.ArtifactTypeTimingProfile},
	} {
		info, err := os.Stat(filepath.Join(runDir, r.file))
		if err != nil {
			a.logger.Debug().Err(err).Str("file", r.file).Msg("Report not written")
			continue
		}
		h.Artifacts = append(h.Artifacts, model.Artifact{
			Type: r.typ,
			Size: uint64(info.Size()),
			File: r.file,
		})
	}
}

// findArtifact returns the first artifact of type typ.
func findArtifact(h *model.History, typ model.ArtifactType) *model.Artifact {
	for i := range h.Artifacts {
		if h.Artifacts[i].Type == typ {
			return &h.Artifacts[i]
		}
	}
	return nil
}
