// Package channeltest provides a scripted channel for tests.
package channeltest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/model"
)

// Response is the scripted reply to one command line.
type Response struct {
	Outcome model.Outcome
	Err     error
}

// Call records one Execute invocation.
type Call struct {
	Target string
	Argv   []string
}

// Fake is a Channel that answers from a table keyed by the space-joined argv.
// Commands without a scripted response fail with a channel error.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On scripts the outcome returned for argv.
func (f *Fake) On(argv []string, exitCode int32, stdout, stderr string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key(argv)] = Response{Outcome: model.Outcome{ExitCode: exitCode, Stdout: stdout, Stderr: stderr}}
	return f
}

// OnError scripts a bridge failure for argv.
func (f *Fake) OnError(argv []string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key(argv)] = Response{Err: err}
	return f
}

// Execute implements channel.Channel.
func (f *Fake) Execute(ctx context.Context, target string, argv []string) (model.Outcome, error) {
	if err := channel.CheckTarget(target); err != nil {
		return model.Outcome{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Target: target, Argv: append([]string(nil), argv...)})

	resp, ok := f.responses[key(argv)]
	if !ok {
		return model.Outcome{}, &channel.Error{Target: target, Err: fmt.Errorf("no scripted response for %q", key(argv))}
	}
	if resp.Err != nil {
		return model.Outcome{}, &channel.Error{Target: target, Err: resp.Err}
	}
	return resp.Outcome, nil
}

// Calls returns the recorded invocations in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func key(argv []string) string {
	return strings.Join(argv, " ")
}
