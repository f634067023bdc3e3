// Package channel defines the synchronous command execution bridge to a
// remote target and the errors it reports.
package channel

import (
	"context"
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/perfgo/ctsrun/model"
)

// Channel executes one command on a remote target and waits for it to
// finish. Implementations serve a single in-flight command and never retry.
type Channel interface {
	Execute(ctx context.Context, target string, argv []string) (model.Outcome, error)
}

// ConfigurationError reports a setup problem that must abort the run before
// any case executes.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// Error reports a failure of the bridge itself, as opposed to a command that
// ran and exited non-zero.
type Error struct {
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("channel error on %s: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CheckTarget returns a ConfigurationError if target is empty.
func CheckTarget(target string) error {
	if target == "" {
		return &ConfigurationError{Msg: "target is empty, device must be specified"}
	}
	return nil
}

// Join builds a shell command line in which every element of argv is a
// single word.
func Join(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}
