package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/ctsrun/discovery"
	"github.com/perfgo/ctsrun/history"
)

const AppName = "ctsrun"

// ErrTestsFailed is returned by the run commands when at least one case
// failed. Every other error is a configuration or runtime error.
var ErrTestsFailed = errors.New("test cases failed")

const (
	reportTable = "table"
	reportText  = "text"
)

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	stdout io.Writer

	// connect opens the command channel selected by the target flags.
	connect func(c *cli.Context) (*connection, error)
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		stdout: os.Stdout,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Run conformance test binaries on a remote device and report per sub-test verdicts",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "history-dir",
					Usage:   "Directory holding the records of previous runs (default: $XDG_DATA_HOME/ctsrun/history)",
					EnvVars: []string{"CTSRUN_HISTORY_DIR"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.connect = app.openConnection

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Discover the sub-tests of a binary from its --help output and run each of them",
		ArgsUsage: "<suite-name> <binary> [--] [extra args...]",
		Action:    app.run,
		Flags: append(append(targetFlags(), reportFlags()...),
			&cli.BoolFlag{
				Name:  "status-line",
				Usage: `Require a "passed N of M tests." line from cases that print no pass marker`,
			},
			&cli.StringFlag{
				Name:  "push",
				Usage: "Local binary to copy to <binary> on the target before running",
			},
		),
		Description: `Runs "<binary> --help" on the target and runs every name listed below
its "Test names" line as its own case. A binary without a sub-test list is
run once, as a single case named <suite-name>. Extra args are passed to every
case after the sub-test name.

Examples:
  ctsrun run --serial emulator-5554 opencl_basic /data/local/tmp/test_basic
  ctsrun run --remote-host dut opencl_api /usr/local/cts/test_api -- --seed 1`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "manifest",
		Usage:     "Run every binary registered by a test manifest as one case",
		ArgsUsage: "<manifest.xml|manifest.yaml> [--] [extra args...]",
		Action:    app.manifest,
		Flags: append(append(targetFlags(), reportFlags()...),
			directiveFlag(),
			&cli.StringFlag{
				Name:  "push-dir",
				Usage: "Local directory holding the manifest's binaries, copied to the target before running",
			},
		),
		Description: `Reads the options of an XML test configuration, or a YAML list of
options, and runs the value of every option named by --directive as a case.
Cases are classified from their "passed N of M tests." status line.`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "discover",
		Usage:     "List the sub-tests of a binary or manifest without running them",
		ArgsUsage: "<binary>",
		Action:    app.discover,
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Read the cases from this manifest instead of a binary's --help output",
			},
			directiveFlag(),
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous suite runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Only show runs whose suite, binary, manifest or target contains this string",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View the results of a previous suite run",
		ArgsUsage:       "[ID|INDEX] [-- pprof args]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View the results of a previous suite run.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  -2          View 3rd last run
  <hex-id>    View run matching the ID prefix

Arguments after the ID are passed to "go tool pprof", which is then run on the
case timing profile of the run.

Examples:
  ctsrun view              # View last run
  ctsrun view -1           # View 2nd last run
  ctsrun view abc123       # View run with ID starting with abc123
  ctsrun view 0 -- -top    # Slowest cases of the last run`,
	})
	return app
}

func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "serial",
			Aliases: []string{"s"},
			Usage:   "Serial of the Android device to run on through adb",
			EnvVars: []string{"ANDROID_SERIAL"},
		},
		&cli.StringFlag{
			Name:  "adb",
			Usage: "adb executable",
			Value: "adb",
		},
		&cli.StringFlag{
			Name:  "remote-host",
			Usage: "SSH host to run on",
		},
		&cli.StringFlag{
			Name:  "ssh-identity-file",
			Usage: "Private key for the SSH connection",
		},
		&cli.StringFlag{
			Name:  "ssh-known-hosts-file",
			Usage: "Known hosts file for the SSH connection",
		},
		&cli.StringFlag{
			Name:  "ssh-proxy-command",
			Usage: "Proxy command for the SSH connection",
		},
		&cli.StringSliceFlag{
			Name:  "ssh-option",
			Usage: "Extra ssh -o option, may be repeated",
		},
		&cli.StringFlag{
			Name:  "pod",
			Usage: "Kubernetes pod to run in through kubectl exec",
		},
		&cli.StringFlag{
			Name:  "container",
			Usage: "Container of the pod to run in",
		},
		&cli.StringFlag{
			Name:  "context",
			Usage: "Kubernetes context to use",
		},
		&cli.StringFlag{
			Name:  "namespace",
			Usage: "Kubernetes namespace of the pod",
		},
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "report",
			Usage: "Console report format: table or text",
			Value: reportTable,
		},
		&cli.BoolFlag{
			Name:  "details",
			Usage: "Print the end of the output of failing cases (text report)",
		},
		&cli.StringFlag{
			Name:  "junit",
			Usage: "Also write a JUnit XML report to this path",
		},
		&cli.StringFlag{
			Name:  "metrics-textfile",
			Usage: "Also write Prometheus metrics to this path, for the node_exporter textfile collector",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not record the run in the history directory",
		},
	}
}

func directiveFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "directive",
		Usage: "Name of the manifest options that register test binaries",
		Value: discovery.DefaultDirective,
	}
}

func (a *App) Run(ctx context.Context, args []string) error {
	return a.cli.RunContext(ctx, args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

// historyRoot returns the configured history directory.
func (a *App) historyRoot(c *cli.Context) (string, error) {
	if dir := c.String("history-dir"); dir != "" {
		return dir, nil
	}
	return history.DefaultRoot()
}
