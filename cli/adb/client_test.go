package adb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/model"
)

func TestShellArgs(t *testing.T) {
	got := shellArgs("emulator-5554", []string{"/data/local/tmp/test_basic", "hostptr", "--seed", "a b"})
	require.Equal(t, []string{"-s", "emulator-5554", "shell", "/data/local/tmp/test_basic hostptr --seed 'a b'"}, got)
}

func TestParseVersion(t *testing.T) {
	out := `Android Debug Bridge version 1.0.41
Version 34.0.5-10900879
Installed as /usr/bin/adb
`
	v, err := parseVersion(out)
	require.NoError(t, err)
	require.Equal(t, "1.0.41", v)

	_, err = parseVersion("command not found")
	require.Error(t, err)
}

// fakeADB writes a shell script standing in for adb that echoes its
// arguments and exits with the status given in $FAKE_ADB_STATUS.
func fakeADB(t *testing.T) string {
	t.Helper()
	script := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\"\necho warn >&2\nexit ${FAKE_ADB_STATUS:-0}\n"), 0755))
	return script
}

func TestExecute(t *testing.T) {
	c := New(zerolog.Nop(), WithBinary(fakeADB(t)))

	t.Setenv("FAKE_ADB_STATUS", "4")
	out, err := c.Execute(context.Background(), "serial1", []string{"/bin/test", "x"})
	require.NoError(t, err)
	require.Equal(t, model.Outcome{
		ExitCode: 4,
		Stdout:   "-s serial1 shell /bin/test x\n",
		Stderr:   "warn\n",
	}, out)
}

func TestExecute_Errors(t *testing.T) {
	c := New(zerolog.Nop(), WithBinary(filepath.Join(t.TempDir(), "missing-adb")))

	_, err := c.Execute(context.Background(), "", []string{"true"})
	var cfgErr *channel.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = c.Execute(context.Background(), "serial1", []string{"true"})
	var chErr *channel.Error
	require.ErrorAs(t, err, &chErr)
}

func TestCheckDevice(t *testing.T) {
	script := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$FAKE_ADB_STATE\"\n"), 0755))
	c := New(zerolog.Nop(), WithBinary(script))

	t.Setenv("FAKE_ADB_STATE", "device")
	require.NoError(t, c.CheckDevice(context.Background(), "serial1"))

	t.Setenv("FAKE_ADB_STATE", "offline")
	var chErr *channel.Error
	require.ErrorAs(t, c.CheckDevice(context.Background(), "serial1"), &chErr)
}
