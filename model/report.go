package model

import (
	"fmt"
	"time"
)

// Entry is one executed case of a suite.
type Entry struct {
	Name     string        `json:"name"`
	Verdict  Verdict       `json:"verdict"`
	ExitCode int32         `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	// Outcome holds the captured output. It is not serialized with the
	// report; history stores the streams as separate artifacts.
	Outcome Outcome `json:"-"`
}

// Summary holds the verdict counts of a report.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

func (s Summary) String() string {
	return fmt.Sprintf("passed=%d failed=%d skipped=%d total=%d", s.Passed, s.Failed, s.Skipped, s.Total)
}

// Report is the ordered, append-only result of a suite run.
type Report struct {
	Entries []Entry `json:"entries"`
	Summary Summary `json:"summary"`
	// Finalized is set once every registered case has been executed. A
	// report that is not finalized is partial and its summary must not be
	// trusted.
	Finalized bool `json:"finalized"`

	seen map[string]bool
}

// Append records an entry and updates the summary. Names must be unique
// within a report.
func (r *Report) Append(e Entry) error {
	if r.Finalized {
		return fmt.Errorf("report is finalized, cannot append %q", e.Name)
	}
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if r.seen[e.Name] {
		return fmt.Errorf("duplicate entry %q", e.Name)
	}
	r.seen[e.Name] = true

	switch e.Verdict.Status {
	case StatusPass:
		r.Summary.Passed++
	case StatusSkip:
		r.Summary.Skipped++
	default:
		r.Summary.Failed++
	}
	r.Summary.Total++
	r.Entries = append(r.Entries, e)
	return nil
}

// Finalize marks the report complete.
func (r *Report) Finalize() {
	r.Finalized = true
}

// Failed reports whether any case failed.
func (r *Report) Failed() bool {
	return r.Summary.Failed > 0
}
