// Package classify turns the raw outcome of a conformance binary into a
// verdict.
//
// Conformance binaries are third party and their exit codes are the least
// reliable signal they emit: some exit non-zero while reporting a missing
// implementation, others exit zero after failing. Classification therefore
// applies a fixed list of rules, in priority order, and the first rule that
// matches decides the verdict. The list is total: every outcome gets a
// verdict.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/perfgo/ctsrun/model"
)

const (
	// PassMarker is printed by binaries that report a single test.
	PassMarker = "PASSED test."

	ReasonMissingImplementation = "API not available in the driver"
	ReasonNonZeroExit           = "exited with non-zero status"
	ReasonStatusLineNotFound    = "status line not found"
	ReasonMalformedStatusLine   = "malformed status line"
	ReasonUndetermined          = "could not determine pass/fail signal"
)

var statusLineRE = regexp.MustCompile(`(?i)passed (\d+) of (\d+) tests\.`)

// Rules configures classification for one case.
type Rules struct {
	// Name of the sub-test, used to match its missing-implementation message
	Subtest string
	// StatusLine requires the aggregate "passed N of M tests." line for
	// binaries that run several tests per invocation. When set, an outcome
	// without a pass marker or a status line fails with
	// ReasonStatusLineNotFound instead of ReasonUndetermined.
	StatusLine bool
}

// Rule inspects an outcome and reports a verdict if it applies.
type Rule func(o model.Outcome) (model.Verdict, bool)

// Chain returns the rules in the order they are applied.
func (r Rules) Chain() []Rule {
	return []Rule{
		MissingImplementation(r.Subtest),
		NonZeroExit,
		PassMarkerFound,
		StatusLine(r.StatusLine),
	}
}

// Classify returns the verdict of the first matching rule, or a failure if
// none matches.
func (r Rules) Classify(o model.Outcome) model.Verdict {
	for _, rule := range r.Chain() {
		if v, ok := rule(o); ok {
			return v
		}
	}
	return model.Fail(ReasonUndetermined)
}

// MissingImplementationMessage is the line a binary prints when the driver
// does not implement the API a sub-test exercises.
func MissingImplementationMessage(subtest string) string {
	return fmt.Sprintf("ERROR: Test '%s' is missing implementation", subtest)
}

// MissingImplementation skips a sub-test whose API the driver lacks,
// regardless of exit code.
func MissingImplementation(subtest string) Rule {
	msg := MissingImplementationMessage(subtest)
	return func(o model.Outcome) (model.Verdict, bool) {
		if strings.Contains(o.Stdout, msg) || strings.Contains(o.Stderr, msg) {
			return model.Skip(ReasonMissingImplementation), true
		}
		return model.Verdict{}, false
	}
}

// NonZeroExit fails any run that exited non-zero.
func NonZeroExit(o model.Outcome) (model.Verdict, bool) {
	if o.ExitCode != 0 {
		return model.Fail(ReasonNonZeroExit), true
	}
	return model.Verdict{}, false
}

// PassMarkerFound passes a run whose stdout carries the pass marker.
func PassMarkerFound(o model.Outcome) (model.Verdict, bool) {
	if strings.Contains(o.Stdout, PassMarker) {
		return model.Pass(), true
	}
	return model.Verdict{}, false
}

// StatusLine decides from the last "passed N of M tests." line of stdout.
// Without a status line the rule only matches when required is set.
func StatusLine(required bool) Rule {
	return func(o model.Outcome) (model.Verdict, bool) {
		passed, total, found, err := ParseStatusLine(o.Stdout)
		switch {
		case err != nil:
			return model.Fail(fmt.Sprintf("%s: %v", ReasonMalformedStatusLine, err)), true
		case !found:
			if required {
				return model.Fail(ReasonStatusLineNotFound), true
			}
			return model.Verdict{}, false
		case passed == total:
			return model.Pass(), true
		}
		return model.Fail(fmt.Sprintf("%d subtests failed", total-passed)), true
	}
}

// ParseStatusLine scans stdout from the end and returns the counts of the
// last status line. Counts of that line that do not parse are an error; an
// earlier status line is never used in its place.
func ParseStatusLine(stdout string) (passed, total int, found bool, err error) {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		m := statusLineRE.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if passed, err = strconv.Atoi(m[1]); err != nil {
			return 0, 0, true, fmt.Errorf("invalid passed count: %w", err)
		}
		if total, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, true, fmt.Errorf("invalid total count: %w", err)
		}
		return passed, total, true, nil
	}
	return 0, 0, false, nil
}
