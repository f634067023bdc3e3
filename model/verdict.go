package model

import "fmt"

// Status is the classified state of one sub-test run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Verdict is the outcome of classifying one sub-test run. Reason is empty for
// passing runs.
type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Pass returns a passing verdict.
func Pass() Verdict {
	return Verdict{Status: StatusPass}
}

// Fail returns a failing verdict with the given reason.
func Fail(reason string) Verdict {
	return Verdict{Status: StatusFail, Reason: reason}
}

// Skip returns a skipped verdict with the given reason.
func Skip(reason string) Verdict {
	return Verdict{Status: StatusSkip, Reason: reason}
}

func (v Verdict) String() string {
	switch v.Status {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return fmt.Sprintf("FAIL (%s)", v.Reason)
	case StatusSkip:
		return fmt.Sprintf("SKIP (%s)", v.Reason)
	}
	return fmt.Sprintf("UNKNOWN (%s)", v.Reason)
}
