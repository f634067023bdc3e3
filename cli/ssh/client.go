// Package ssh runs test binaries on a remote host over a multiplexed ssh
// connection.
package ssh

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/model"
)

// ExitStatusConnectionError is the status ssh itself exits with when the
// connection fails.
const ExitStatusConnectionError = 255

// Client manages an SSH connection to a specific remote host.
type Client struct {
	logger         zerolog.Logger
	host           string
	controlPath    string
	identityFile   string
	knownHostsFile string
	proxyCommand   string
	extraOptions   []string
}

// SSHOption is a function that configures an SSH client.
type SSHOption func(*Client)

// WithIdentityFile sets the identity file (private key) to use for authentication.
func WithIdentityFile(path string) SSHOption {
	return func(c *Client) {
		c.identityFile = path
	}
}

// WithKnownHostsFile sets the known hosts file to use for host verification.
func WithKnownHostsFile(path string) SSHOption {
	return func(c *Client) {
		c.knownHostsFile = path
	}
}

// WithProxyCommand sets a proxy command for the SSH connection.
func WithProxyCommand(command string) SSHOption {
	return func(c *Client) {
		c.proxyCommand = command
	}
}

// WithExtraOptions adds extra SSH options to the connection.
func WithExtraOptions(options ...string) SSHOption {
	return func(c *Client) {
		c.extraOptions = append(c.extraOptions, options...)
	}
}

// New creates a new SSH client and establishes a multiplexed connection to the host.
func New(ctx context.Context, logger zerolog.Logger, host string, opts ...SSHOption) (*Client, error) {
	if err := channel.CheckTarget(host); err != nil {
		return nil, err
	}

	c := &Client{
		logger: logger,
		host:   host,
	}
	for _, opt := range opts {
		opt(c)
	}

	controlPath, err := c.setupMultiplexing(ctx)
	if err != nil {
		return nil, &channel.Error{Target: host, Err: fmt.Errorf("failed to setup SSH multiplexing: %w", err)}
	}
	c.controlPath = controlPath

	return c, nil
}

// Close closes the SSH connection and cleans up the control socket.
func (c *Client) Close() {
	if c.controlPath == "" {
		return
	}
	c.logger.Debug().Str("controlPath", c.controlPath).Msg("Cleaning up SSH multiplexing")

	args := []string{
		"-o", fmt.Sprintf("ControlPath=%s", c.controlPath),
		"-O", "exit",
		c.host,
	}
	cmd := exec.Command("ssh", args...)
	_ = cmd.Run() // Ignore errors on cleanup

	_ = os.Remove(c.controlPath)
}

// Execute runs argv on target, which must be the host the client is
// connected to. The remote exit status is reported in the outcome, except
// for status 255 which ssh uses for its own failures.
func (c *Client) Execute(ctx context.Context, target string, argv []string) (model.Outcome, error) {
	if err := c.checkTarget(target); err != nil {
		return model.Outcome{}, err
	}

	command := channel.Join(argv)
	args := c.buildSSHArgs()
	args = append(args, c.host, command)

	c.logger.Debug().
		Str("host", c.host).
		Str("command", command).
		Msg("Running remote command")

	outcome, err := channel.RunCmd(ctx, exec.CommandContext(ctx, "ssh", args...), target)
	if err != nil {
		return model.Outcome{}, err
	}
	if outcome.ExitCode == ExitStatusConnectionError {
		return model.Outcome{}, &channel.Error{
			Target: target,
			Err:    fmt.Errorf("ssh exited with status %d: %s", ExitStatusConnectionError, bytes.TrimSpace([]byte(outcome.Stderr))),
		}
	}
	return outcome, nil
}

// Push copies a local file to remotePath on target and makes it executable.
func (c *Client) Push(ctx context.Context, target, localPath, remotePath string) error {
	if err := c.checkTarget(target); err != nil {
		return err
	}

	c.logger.Info().
		Str("local", localPath).
		Str("remote", remotePath).
		Msg("Copying binary to remote host")

	if err := c.run(ctx, target, "mkdir", "-p", path.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	// scp shares the ssh multiplexing options
	args := c.buildSSHArgs()
	args = append(args, localPath, fmt.Sprintf("%s:%s", c.host, remotePath))
	cmd := exec.CommandContext(ctx, "scp", args...)

	c.logger.Debug().
		Str("command", cmd.String()).
		Msg("Executing scp")

	outcome, err := channel.RunCmd(ctx, cmd, target)
	if err != nil {
		return err
	}
	if outcome.ExitCode != 0 {
		return &channel.Error{Target: target, Err: fmt.Errorf("failed to copy binary: scp exited with status %d: %s", outcome.ExitCode, outcome.Stderr)}
	}

	if err := c.run(ctx, target, "chmod", "+x", remotePath); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}
	return nil
}

// run executes a setup command and turns a non-zero exit into an error.
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

func (c *Client) checkTarget(target string) error {
	if err := channel.CheckTarget(target); err != nil {
		return err
	}
	if target != c.host {
		return &channel.ConfigurationError{Msg: fmt.Sprintf("ssh client is connected to %s, not %s", c.host, target)}
	}
	return nil
}

// buildSSHArgs constructs the SSH arguments with all configured options.
func (c *Client) buildSSHArgs() []string {
	args := []string{}

	if c.controlPath != "" {
		args = append(args,
			"-o", fmt.Sprintf("ControlPath=%s", c.controlPath),
			"-o", "ControlMaster=no",
		)
	}
	return append(args, c.connectionArgs()...)
}

// connectionArgs returns the authentication and routing options shared by
// the master connection and every command.
func (c *Client) connectionArgs() []string {
	var args []string
	if c.identityFile != "" {
		args = append(args, "-i", c.identityFile)
	}
	if c.knownHostsFile != "" {
		args = append(args, "-o", fmt.Sprintf("UserKnownHostsFile=%s", c.knownHostsFile))
	}
	if c.proxyCommand != "" {
		args = append(args, "-o", fmt.Sprintf("ProxyCommand=%s", c.proxyCommand))
	}
	for _, opt := range c.extraOptions {
		args = append(args, "-o", opt)
	}
	return args
}

// Host returns the remote host this client is connected to.
func (c *Client) Host() string {
	return c.host
}

// ControlPath returns the SSH control socket path.
func (c *Client) ControlPath() string {
	return c.controlPath
}

// setupMultiplexing establishes an SSH master connection for multiplexing.
func (c *Client) setupMultiplexing(ctx context.Context) (string, error) {
	controlDir := getControlSocketDir()
	if err := os.MkdirAll(controlDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create control directory: %w", err)
	}

	// Unix domain socket paths are limited to 104-108 chars.
	controlPath := filepath.Join(controlDir, controlSocketName(c.host))

	c.logger.Debug().
		Str("host", c.host).
		Str("controlDir", controlDir).
		Str("controlPath", controlPath).
		Int("pathLength", len(controlPath)).
		Msg("Setting up SSH multiplexing")

	args := []string{
		"-o", "ControlMaster=auto",
		"-o", fmt.Sprintf("ControlPath=%s", controlPath),
		"-o", "ControlPersist=30s",
		"-o", "ConnectTimeout=10",
		"-o", "ServerAliveInterval=15",
		"-o", "ServerAliveCountMax=3",
	}
	args = append(args, c.connectionArgs()...)
	args = append(args,
		"-f", // Run in background
		"-N", // Don't execute a remote command
		c.host,
	)

	cmd := exec.CommandContext(ctx, "ssh", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to establish SSH master connection: %w (stderr: %s)", err, stderr.String())
	}

	c.logger.Debug().Str("host", c.host).Msg("SSH master connection established")
	return controlPath, nil
}

func controlSocketName(host string) string {
	hash := sha256.Sum256([]byte(host))
	return "ssh-" + hex.EncodeToString(hash[:])[:12]
}

// getControlSocketDir returns the directory to use for SSH control sockets.
func getControlSocketDir() string {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "ctsrun")
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home := os.Getenv("HOME"); home != "" {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		return filepath.Join(configHome, "ctsrun")
	}

	return filepath.Join(os.TempDir(), "ctsrun")
}
