package cli

// This file selects and opens the command channel to the device under test.

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/cli/adb"
	"github.com/perfgo/ctsrun/cli/k8s"
	"github.com/perfgo/ctsrun/cli/ssh"
	"github.com/perfgo/ctsrun/model"
)

const (
	transportADB     = "adb"
	transportSSH     = "ssh"
	transportKubectl = "kubectl"
)

// Pusher copies a local file to a path on the target and makes it executable.
type Pusher interface {
	Push(ctx context.Context, target, localPath, remotePath string) error
}

// connection is an open command channel to one target.
type connection struct {
	channel channel.Channel
	pusher  Pusher
	target  model.Target
	close   func()
}

func (c *connection) Close() {
	if c.close != nil {
		c.close()
	}
}

// selectTarget reads the target flags. Exactly one transport must be chosen.
func selectTarget(c *cli.Context) (model.Target, error) {
	var targets []model.Target
	if serial := c.String("serial"); serial != "" {
		targets = append(targets, model.Target{Transport: transportADB, ID: serial})
	}
	if host := c.String("remote-host"); host != "" {
		targets = append(targets, model.Target{Transport: transportSSH, ID: host})
	}
	if pod := c.String("pod"); pod != "" {
		targets = append(targets, model.Target{
			Transport:   transportKubectl,
			ID:          pod,
			KubeContext: c.String("context"),
			Namespace:   c.String("namespace"),
		})
	}

	switch len(targets) {
	case 0:
		return model.Target{}, &channel.ConfigurationError{Msg: "device must be specified with --serial (or ANDROID_SERIAL), --remote-host or --pod"}
	case 1:
		return targets[0], nil
	}
	return model.Target{}, &channel.ConfigurationError{Msg: "only one of --serial, --remote-host and --pod may be given"}
}

func (a *App) openConnection(c *cli.Context) (*connection, error) {
	target, err := selectTarget(c)
	if err != nil {
		return nil, err
	}
	logger := a.logger.With().Str("transport", target.Transport).Str("target", target.ID).Logger()

	switch target.Transport {
	case transportADB:
		client := adb.New(logger, adb.WithBinary(c.String("adb")))
		if version, err := client.Version(c.Context); err == nil {
			logger.Debug().Str("version", version).Msg("Found adb")
		}
		if err := client.CheckDevice(c.Context, target.ID); err != nil {
			return nil, err
		}
		return &connection{channel: client, pusher: client, target: target}, nil

	case transportSSH:
		var opts []ssh.SSHOption
		if f := c.String("ssh-identity-file"); f != "" {
			opts = append(opts, ssh.WithIdentityFile(f))
		}
		if f := c.String("ssh-known-hosts-file"); f != "" {
			opts = append(opts, ssh.WithKnownHostsFile(f))
		}
		if cmd := c.String("ssh-proxy-command"); cmd != "" {
			opts = append(opts, ssh.WithProxyCommand(cmd))
		}
		if extra := c.StringSlice("ssh-option"); len(extra) > 0 {
			opts = append(opts, ssh.WithExtraOptions(extra...))
		}

		logger.Info().Msg("Connecting to remote host")
		client, err := ssh.New(c.Context, logger, target.ID, opts...)
		if err != nil {
			return nil, err
		}
		return &connection{channel: client, pusher: client, target: target, close: client.Close}, nil

	case transportKubectl:
		var opts []k8s.Option
		if name := c.String("container"); name != "" {
			opts = append(opts, k8s.WithContainer(name))
		}
		client := k8s.New(logger, target.KubeContext, target.Namespace, opts...)
		if err := client.CheckPod(c.Context, target.ID); err != nil {
			return nil, err
		}
		return &connection{channel: client, pusher: client, target: target}, nil
	}
	return nil, &channel.ConfigurationError{Msg: "unknown transport " + target.Transport}
}
