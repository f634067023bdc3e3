// Package testcase binds a discovered sub-test to the command that runs it and
// the rules that classify its outcome.
package testcase

import (
	"context"
	"errors"
	"time"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/classify"
	"github.com/perfgo/ctsrun/discovery"
	"github.com/perfgo/ctsrun/model"
)

// Case is one runnable sub-test. A Case holds no state that changes when it
// runs.
type Case struct {
	Name    string
	Request model.Request
	Rules   classify.Rules
}

// Option configures a Case.
type Option func(*Case)

// WithStatusLine requires the aggregate status line when no pass marker is
// printed.
func WithStatusLine() Option {
	return func(c *Case) {
		c.Rules.StatusLine = true
	}
}

// New builds the case for a discovered sub-test. extraArgs are appended after
// the binary and, when the sub-test is selected by name, after the name.
func New(sub discovery.Subtest, extraArgs []string, opts ...Option) *Case {
	req := model.Request{
		BinaryPath: sub.Binary,
		ExtraArgs:  append([]string(nil), extraArgs...),
	}
	if sub.Selector {
		req.Subtest = sub.Name
	}

	c := &Case{
		Name:    sub.Name,
		Request: req,
		Rules:   classify.Rules{Subtest: sub.Name},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the verdict of one execution of a Case.
type Result struct {
	Name     string
	Verdict  model.Verdict
	Outcome  model.Outcome
	Duration time.Duration
	// Err is the channel error, if the command could not be run.
	Err error
}

// Entry converts the result to a report entry.
func (r Result) Entry() model.Entry {
	return model.Entry{
		Name:     r.Name,
		Verdict:  r.Verdict,
		ExitCode: r.Outcome.ExitCode,
		Duration: r.Duration,
		Outcome:  r.Outcome,
	}
}

// Execute runs the case once through ch on target. A channel failure is
// reported as a failing verdict rather than an error.
func (c *Case) Execute(ctx context.Context, ch channel.Channel, target string) Result {
	start := time.Now()
	outcome, err := ch.Execute(ctx, target, c.Request.Argv())
	res := Result{
		Name:     c.Name,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Err = err
		detail := err
		var chErr *channel.Error
		if errors.As(err, &chErr) && chErr.Err != nil {
			detail = chErr.Err
		}
		res.Verdict = model.Fail("channel error: " + detail.Error())
		return res
	}
	res.Outcome = outcome
	res.Verdict = c.Rules.Classify(outcome)
	return res
}
