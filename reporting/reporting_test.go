package reporting

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/ctsrun/model"
)

func sampleReport(t *testing.T) *model.Report {
	t.Helper()
	r := &model.Report{}
	require.NoError(t, r.Append(model.Entry{
		Name:     "testA",
		Verdict:  model.Pass(),
		Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, r.Append(model.Entry{
		Name:     "testB",
		Verdict:  model.Fail("exited with non-zero status"),
		ExitCode: 1,
		Duration: 2 * time.Second,
		Outcome: model.Outcome{
			ExitCode: 1,
			Stdout:   "line1\n\x1b[31mline2\x1b[0m\n",
			Stderr:   "boom\n",
		},
	}))
	require.NoError(t, r.Append(model.Entry{
		Name:     "testC",
		Verdict:  model.Skip("API not available in the driver"),
		Duration: 100 * time.Millisecond,
	}))
	r.Finalize()
	return r
}

func feed(t *testing.T, r *model.Report, consume func(model.Entry) error) {
	t.Helper()
	for _, e := range r.Entries {
		require.NoError(t, consume(e))
	}
}

func TestTextSink(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	s := NewTextSink(&buf, false)
	feed(t, r, s.Consume)
	require.NoError(t, s.Complete(r))

	require.Equal(t, "testA: PASS\n"+
		"testB: FAIL (exited with non-zero status)\n"+
		"testC: SKIP (API not available in the driver)\n"+
		"passed=1 failed=1 skipped=1 total=3\n", buf.String())
}

func TestTextSink_Details(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	s := NewTextSink(&buf, true)
	feed(t, r, s.Consume)

	out := buf.String()
	require.Contains(t, out, "  --- stdout ---\n  line1\n  line2\n")
	require.Contains(t, out, "  --- stderr ---\n  boom\n")
	require.NotContains(t, out, "\x1b[")
}

func TestTextSink_Incomplete(t *testing.T) {
	var buf bytes.Buffer
	s := NewTextSink(&buf, false)
	require.NoError(t, s.Complete(&model.Report{}))
	require.Equal(t, "passed=0 failed=0 skipped=0 total=0 (incomplete)\n", buf.String())
}

func TestTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "empty", in: "", n: 3, want: ""},
		{name: "short", in: "a\nb\n", n: 3, want: "a\nb"},
		{name: "long", in: "a\nb\nc\nd\n\n", n: 2, want: "c\nd"},
		{name: "zero", in: "a", n: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Tail(tt.in, tt.n))
		})
	}
}

func TestTableSink(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	s := NewTableSink(&buf, "opencl")
	require.NoError(t, s.Complete(r))

	out := buf.String()
	for _, want := range []string{"testA", "testB", "testC", "TOTAL", "FAIL"} {
		require.Contains(t, out, want)
	}
}

func TestMarshalJUnit(t *testing.T) {
	data, err := MarshalJUnit("opencl", sampleReport(t))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), xml.Header))

	var got junitTestSuites
	require.NoError(t, xml.Unmarshal(data, &got))
	require.Len(t, got.Suites, 1)

	ts := got.Suites[0]
	require.Equal(t, "opencl", ts.Name)
	require.Equal(t, 3, ts.Tests)
	require.Equal(t, 1, ts.Failures)
	require.Equal(t, 1, ts.Skipped)
	require.Equal(t, "3.600", ts.Time)
	require.Len(t, ts.Cases, 3)

	require.Nil(t, ts.Cases[0].Failure)
	require.Nil(t, ts.Cases[0].Skipped)
	require.Equal(t, "1.500", ts.Cases[0].Time)

	require.NotNil(t, ts.Cases[1].Failure)
	require.Equal(t, "exited with non-zero status", ts.Cases[1].Failure.Message)
	require.Equal(t, "boom\n", ts.Cases[1].SystemErr)

	require.NotNil(t, ts.Cases[2].Skipped)
	require.Equal(t, "API not available in the driver", ts.Cases[2].Skipped.Message)
}

func TestJUnitSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), JUnitFilename)
	s := NewJUnitSink(path, "opencl")
	require.NoError(t, s.Complete(sampleReport(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `<testcase name="testB" classname="opencl"`)
}

func TestMetricsSink(t *testing.T) {
	r := sampleReport(t)
	path := filepath.Join(t.TempDir(), MetricsFilename)

	s := NewMetricsSink(path, "opencl", "emulator-5554")
	feed(t, r, s.Consume)
	require.NoError(t, s.Complete(r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, `ctsrun_cases_total{suite="opencl",target="emulator-5554",verdict="fail"} 1`)
	require.Contains(t, out, `ctsrun_cases_total{suite="opencl",target="emulator-5554",verdict="pass"} 1`)
	require.Contains(t, out, `ctsrun_cases_total{suite="opencl",target="emulator-5554",verdict="skip"} 1`)
	require.Contains(t, out, `ctsrun_suite_complete{suite="opencl",target="emulator-5554"} 1`)
	require.Contains(t, out, `ctsrun_suite_duration_seconds{suite="opencl",target="emulator-5554"} 3.6`)
}

func TestMetricsSink_ZeroVerdicts(t *testing.T) {
	path := filepath.Join(t.TempDir(), MetricsFilename)
	s := NewMetricsSink(path, "opencl", "host")

	families, err := s.Registry().Gather()
	require.NoError(t, err)

	var series int
	for _, mf := range families {
		if mf.GetName() == "ctsrun_cases_total" {
			series = len(mf.GetMetric())
		}
	}
	require.Equal(t, 3, series)
}

func TestTimingSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), TimingFilename)
	s := NewTimingSink(path, "opencl")
	require.NoError(t, s.Complete(sampleReport(t)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	prof, err := profile.Parse(f)
	require.NoError(t, err)
	require.Len(t, prof.Sample, 3)

	b := prof.Sample[1]
	require.Equal(t, []int64{1, (2 * time.Second).Nanoseconds()}, b.Value)
	require.Equal(t, []string{"fail"}, b.Label["verdict"])
	require.Equal(t, []int64{1}, b.NumLabel["exit_code"])
	require.Equal(t, "testB", b.Location[0].Line[0].Function.Name)
	require.Equal(t, "opencl", b.Location[1].Line[0].Function.Name)
}
