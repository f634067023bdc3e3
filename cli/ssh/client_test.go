package ssh

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/ctsrun/channel"
)

func TestBuildSSHArgs(t *testing.T) {
	c := &Client{host: "dut"}
	for _, opt := range []SSHOption{
		WithIdentityFile("/keys/id"),
		WithKnownHostsFile("/keys/known_hosts"),
		WithProxyCommand("nc -x proxy %h %p"),
		WithExtraOptions("StrictHostKeyChecking=no", "LogLevel=ERROR"),
	} {
		opt(c)
	}
	c.controlPath = "/run/ctsrun/ssh-abc"

	require.Equal(t, []string{
		"-o", "ControlPath=/run/ctsrun/ssh-abc",
		"-o", "ControlMaster=no",
		"-i", "/keys/id",
		"-o", "UserKnownHostsFile=/keys/known_hosts",
		"-o", "ProxyCommand=nc -x proxy %h %p",
		"-o", "StrictHostKeyChecking=no",
		"-o", "LogLevel=ERROR",
	}, c.buildSSHArgs())
}

func TestBuildSSHArgs_NoOptions(t *testing.T) {
	c := &Client{host: "dut"}
	require.Empty(t, c.buildSSHArgs())
}

func TestControlSocketName(t *testing.T) {
	a := controlSocketName("user@very-long-hostname.example.com")
	require.Len(t, a, len("ssh-")+12)
	require.Equal(t, a, controlSocketName("user@very-long-hostname.example.com"))
	require.NotEqual(t, a, controlSocketName("other"))
}

func TestGetControlSocketDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	require.Equal(t, filepath.Join("/run/user/1000", "ctsrun"), getControlSocketDir())

	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	require.Equal(t, filepath.Join("/cfg", "ctsrun"), getControlSocketDir())
}

func TestExecute_TargetMismatch(t *testing.T) {
	c := &Client{logger: zerolog.Nop(), host: "dut"}

	tests := []struct {
		name   string
		target string
	}{
		{name: "empty", target: ""},
		{name: "other host", target: "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Execute(context.Background(), tt.target, []string{"true"})
			var cfgErr *channel.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNew_EmptyHost(t *testing.T) {
	_, err := New(context.Background(), zerolog.Nop(), "")
	var cfgErr *channel.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
