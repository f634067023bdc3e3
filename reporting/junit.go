package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/perfgo/ctsrun/model"
)

// JUnitFilename is the name of the JUnit report in a run directory.
const JUnitFilename = "results.xml"

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Skipped   *junitMessage `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
	SystemErr string        `xml:"system-err,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
}

// JUnitSink writes the report as JUnit XML to a file on completion.
type JUnitSink struct {
	path  string
	suite string
}

// NewJUnitSink creates a JUnitSink writing the suite named suite to path.
func NewJUnitSink(path, suite string) *JUnitSink {
	return &JUnitSink{path: path, suite: suite}
}

// Consume implements the sink interface; the file is written on completion.
func (s *JUnitSink) Consume(model.Entry) error {
	return nil
}

// Complete writes the XML file.
func (s *JUnitSink) Complete(r *model.Report) error {
	data, err := MarshalJUnit(s.suite, r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JUnit report: %w", err)
	}
	return nil
}

// MarshalJUnit encodes r as a JUnit XML document with one test suite.
func MarshalJUnit(suite string, r *model.Report) ([]byte, error) {
	ts := junitTestSuite{
		Name:     suite,
		Tests:    r.Summary.Total,
		Failures: r.Summary.Failed,
		Skipped:  r.Summary.Skipped,
	}

	var total time.Duration
	for _, e := range r.Entries {
		total += e.Duration
		tc := junitTestCase{
			Name:      e.Name,
			ClassName: suite,
			Time:      seconds(e.Duration),
		}
		switch e.Verdict.Status {
		case model.StatusPass:
		case model.StatusSkip:
			tc.Skipped = &junitMessage{Message: e.Verdict.Reason}
		default:
			tc.Failure = &junitMessage{Message: e.Verdict.Reason}
			tc.SystemOut = e.Outcome.Stdout
			tc.SystemErr = e.Outcome.Stderr
		}
		ts.Cases = append(ts.Cases, tc)
	}
	ts.Time = seconds(total)

	out, err := xml.MarshalIndent(junitTestSuites{Suites: []junitTestSuite{ts}}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
