// Package suite runs an ordered collection of cases against one target and
// aggregates their verdicts into a report.
package suite

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/model"
	"github.com/perfgo/ctsrun/reporting"
	"github.com/perfgo/ctsrun/testcase"
)

var (
	// ErrInvalidState is returned for operations the runner's current state
	// does not allow.
	ErrInvalidState = errors.New("invalid suite state")
	// ErrDuplicateCase is returned when a case name is already registered.
	ErrDuplicateCase = errors.New("duplicate case")
)

// State is the lifecycle state of a Runner.
type State int

const (
	Idle State = iota
	Running
	Finalized
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config holds everything a Runner needs.
type Config struct {
	Name    string
	Channel channel.Channel
	Target  string
	Logger  zerolog.Logger
	Sinks   []reporting.Sink
}

// Runner executes registered cases sequentially in registration order.
type Runner struct {
	cfg Config

	mu     sync.Mutex
	state  State
	cases  []*testcase.Case
	names  map[string]bool
	report model.Report
}

// New validates cfg and returns an idle Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Channel == nil {
		return nil, &channel.ConfigurationError{Msg: "no command channel configured"}
	}
	if err := channel.CheckTarget(cfg.Target); err != nil {
		return nil, err
	}
	return &Runner{
		cfg:   cfg,
		names: make(map[string]bool),
	}, nil
}

// Add registers a case. Cases added while the suite is running are executed
// after the ones already registered.
func (r *Runner) Add(c *testcase.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Finalized {
		return fmt.Errorf("%w: cannot add %q to a %s suite", ErrInvalidState, c.Name, r.state)
	}
	if r.names[c.Name] {
		return fmt.Errorf("%w: %q", ErrDuplicateCase, c.Name)
	}
	r.names[c.Name] = true
	r.cases = append(r.cases, c)
	return nil
}

// Len returns the number of registered cases.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cases)
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Report returns a copy of the current report.
func (r *Runner) Report() *model.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := r.report
	rep.Entries = append([]model.Entry(nil), r.report.Entries...)
	return &rep
}

// Run executes every registered case once and finalizes the suite. A failing
// case never stops the suite; only cancellation of ctx does, in which case
// the report is left incomplete and ctx's error is returned.
func (r *Runner) Run(ctx context.Context) (*model.Report, error) {
	r.mu.Lock()
	if r.state != Idle {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot run a %s suite", ErrInvalidState, state)
	}
	r.state = Running
	r.mu.Unlock()

	logger := r.cfg.Logger.With().Str("suite", r.cfg.Name).Str("target", r.cfg.Target).Logger()
	logger.Info().Int("cases", r.Len()).Msg("Running suite")

	var runErr error
	for i := 0; ; i++ {
		c := r.next(i)
		if c == nil {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			logger.Warn().Err(err).Int("remaining", r.Len()-i).Msg("Suite interrupted")
			break
		}

		logger.Debug().Str("case", c.Name).Strs("argv", c.Request.Argv()).Msg("Executing case")
		res := c.Execute(ctx, r.cfg.Channel, r.cfg.Target)
		r.record(logger, res)
	}

	r.mu.Lock()
	if runErr == nil {
		r.report.Finalize()
	}
	r.state = Finalized
	r.mu.Unlock()

	rep := r.Report()
	for _, sink := range r.cfg.Sinks {
		if err := sink.Complete(rep); err != nil {
			logger.Warn().Err(err).Msg("Failed to complete report")
		}
	}
	logger.Info().Str("summary", rep.Summary.String()).Bool("complete", rep.Finalized).Msg("Suite finished")
	return rep, runErr
}

func (r *Runner) next(i int) *testcase.Case {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.cases) {
		return nil
	}
	return r.cases[i]
}

func (r *Runner) record(logger zerolog.Logger, res testcase.Result) {
	entry := res.Entry()

	ev := logger.Info()
	if res.Err != nil {
		ev = logger.Warn().Err(res.Err)
	}
	ev.Str("case", entry.Name).
		Str("status", string(entry.Verdict.Status)).
		Str("reason", entry.Verdict.Reason).
		Int32("exit_code", entry.ExitCode).
		Dur("duration", entry.Duration).
		Msg("Case finished")

	r.mu.Lock()
	err := r.report.Append(entry)
	r.mu.Unlock()
	if err != nil {
		// Names are unique on registration, so this only trips on a bug.
		logger.Error().Err(err).Msg("Failed to record case")
		return
	}

	for _, sink := range r.cfg.Sinks {
		if err := sink.Consume(entry); err != nil {
			logger.Warn().Err(err).Str("case", entry.Name).Msg("Failed to report case")
		}
	}
}
