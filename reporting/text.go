// Package reporting renders suite reports: console text and tables, JUnit
// XML, a Prometheus textfile and a pprof timing profile.
package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/perfgo/ctsrun/model"
)

// DefaultTailLines is the number of output lines shown for a failing case.
const DefaultTailLines = 20

// TextSink writes one line per case as it completes and a summary line at
// the end.
type TextSink struct {
	w io.Writer
	// details adds the tail of stdout and stderr of failing cases
	details   bool
	tailLines int
}

// NewTextSink creates a TextSink writing to w.
func NewTextSink(w io.Writer, details bool) *TextSink {
	return &TextSink{w: w, details: details, tailLines: DefaultTailLines}
}

// Consume writes the line of one case.
func (s *TextSink) Consume(e model.Entry) error {
	if _, err := fmt.Fprintf(s.w, "%s: %s\n", e.Name, e.Verdict); err != nil {
		return err
	}
	if !s.details || e.Verdict.Status != model.StatusFail {
		return nil
	}
	for _, stream := range []struct {
		name, data string
	}{
		{"stdout", e.Outcome.Stdout},
		{"stderr", e.Outcome.Stderr},
	} {
		tail := Tail(stripansi.Strip(stream.data), s.tailLines)
		if tail == "" {
			continue
		}
		if _, err := fmt.Fprintf(s.w, "  --- %s ---\n%s\n", stream.name, indent(tail, "  ")); err != nil {
			return err
		}
	}
	return nil
}

// Complete writes the summary line.
func (s *TextSink) Complete(r *model.Report) error {
	summary := r.Summary.String()
	if !r.Finalized {
		summary += " (incomplete)"
	}
	_, err := fmt.Fprintln(s.w, summary)
	return err
}

// Tail returns the last n non-empty trailing lines of s.
func Tail(s string, n int) string {
	s = strings.TrimRight(s, "\r\n\t ")
	if s == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
