package channel

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/perfgo/ctsrun/model"
)

// RunCmd runs cmd to completion and captures its streams. A command that
// started and exited, with any status, yields an Outcome. Failing to start
// it, or cancellation of ctx, is reported as an *Error for target.
func RunCmd(ctx context.Context, cmd *exec.Cmd, target string) (model.Outcome, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.Outcome{}, &Error{Target: target, Err: ctxErr}
	}

	outcome := model.Outcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return model.Outcome{}, &Error{Target: target, Err: err}
		}
		outcome.ExitCode = int32(exitErr.ExitCode())
	}
	return outcome, nil
}
