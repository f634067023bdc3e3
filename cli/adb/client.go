// Package adb runs test binaries on an Android device through the Android
// Debug Bridge. The target of every command is a device serial.
package adb

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/model"
)

// DeviceState is the state "adb get-state" reports for a usable device.
const DeviceState = "device"

var versionRegex = regexp.MustCompile(`Android Debug Bridge version (\d+\.\d+\.\d+)`)

// Client drives the adb binary.
type Client struct {
	logger zerolog.Logger
	adb    string
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the adb executable. Defaults to "adb" from PATH.
func WithBinary(path string) Option {
	return func(c *Client) {
		c.adb = path
	}
}

// New creates an adb client.
func New(logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		logger: logger,
		adb:    "adb",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs argv through the device shell. adb 1.0.39 and later exit
// with the status of the remote command.
func (c *Client) Execute(ctx context.Context, target string, argv []string) (model.Outcome, error) {
	if err := channel.CheckTarget(target); err != nil {
		return model.Outcome{}, err
	}

	args := shellArgs(target, argv)
	c.logger.Debug().
		Str("serial", target).
		Strs("args", args).
		Msg("Running adb shell")

	return channel.RunCmd(ctx, exec.CommandContext(ctx, c.adb, args...), target)
}

// CheckDevice verifies that the device is attached and online.
func (c *Client) CheckDevice(ctx context.Context, target string) error {
	if err := channel.CheckTarget(target); err != nil {
		return err
	}
	outcome, err := channel.RunCmd(ctx, exec.CommandContext(ctx, c.adb, "-s", target, "get-state"), target)
	if err != nil {
		return err
	}
	state := strings.TrimSpace(outcome.Stdout)
	if outcome.ExitCode != 0 || state != DeviceState {
		return &channel.Error{Target: target, Err: fmt.Errorf("device is not available: %s", strings.TrimSpace(outcome.Stderr+" "+state))}
	}
	return nil
}

// Version returns the version of the adb binary, e.g. "1.0.41".
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.adb, "version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get adb version: %w", err)
	}
	return parseVersion(string(out))
}

func parseVersion(out string) (string, error) {
	m := versionRegex.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("unrecognized adb version output %q", strings.TrimSpace(out))
	}
	return m[1], nil
}

// Push copies a local file to the device and makes it executable.
func (c *Client) Push(ctx context.Context, target, localPath, remotePath string) error {
	if err := channel.CheckTarget(target); err != nil {
		return err
	}

	c.logger.Info().
		Str("local", localPath).
		Str("serial", target).
		Str("remote", remotePath).
		Msg("Pushing binary to device")

	if err := c.run(ctx, target, "mkdir", "-p", path.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	outcome, err := channel.RunCmd(ctx, exec.CommandContext(ctx, c.adb, "-s", target, "push", localPath, remotePath), target)
	if err != nil {
		return err
	}
	if outcome.ExitCode != 0 {
		return &channel.Error{Target: target, Err: fmt.Errorf("adb push exited with status %d: %s", outcome.ExitCode, strings.TrimSpace(outcome.Stderr))}
	}

	if err := c.run(ctx, target, "chmod", "+x", remotePath); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, target string, argv ...string) error {
	outcome, err := c.Execute(ctx, target, argv)
	if err != nil {
		return err
	}
	if outcome.ExitCode != 0 {
		return fmt.Errorf("%s exited with status %d (stderr: %s)", argv[0], outcome.ExitCode, outcome.Stderr)
	}
	return nil
}

// shellArgs builds the adb arguments running argv on serial. The device
// shell receives argv as one pre-quoted command line.
func shellArgs(serial string, argv []string) []string {
	return []string{"-s", serial, "shell", channel.Join(argv)}
}
