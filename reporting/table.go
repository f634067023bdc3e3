package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/perfgo/ctsrun/model"
)

// TableSink renders the whole report as a table once the suite completes.
type TableSink struct {
	w     io.Writer
	title string
}

// NewTableSink creates a TableSink writing to w.
func NewTableSink(w io.Writer, title string) *TableSink {
	return &TableSink{w: w, title: title}
}

// Consume implements the sink interface; the table is only built on
// completion.
func (s *TableSink) Consume(model.Entry) error {
	return nil
}

// Complete renders the table.
func (s *TableSink) Complete(r *model.Report) error {
	var total time.Duration
	for _, e := range r.Entries {
		total += e.Duration
	}

	t := table.NewWriter()
	t.SetOutputMirror(s.w)
	t.SetTitle(fmt.Sprintf("%s (%s)", s.title, formatDuration(total)))
	t.AppendHeader(table.Row{"#", "Case", "Duration", "Exit", "Status", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Case", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Reason", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, e := range r.Entries {
		t.AppendRow(table.Row{
			i + 1,
			e.Name,
			formatDuration(e.Duration),
			e.ExitCode,
			statusString(e.Verdict.Status),
			e.Verdict.Reason,
		})
	}

	status := "PASS"
	switch {
	case !r.Finalized:
		status = "INCOMPLETE"
	case r.Summary.Failed > 0:
		status = "FAIL"
	}
	t.AppendFooter(table.Row{"", "TOTAL", formatDuration(total), "", status, r.Summary.String()})

	switch {
	case status != "PASS":
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case r.Summary.Skipped > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.Render()
	return nil
}

func statusString(s model.Status) string {
	switch s {
	case model.StatusPass:
		return "PASS"
	case model.StatusSkip:
		return "SKIP"
	}
	return "FAIL"
}

// formatDuration formats d in seconds with one decimal place.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
