package cli

// This file contains the run and manifest commands, which discover the cases
// of a suite, run them on the target and report the results.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/ctsrun/discovery"
	"github.com/perfgo/ctsrun/exitcodes"
	"github.com/perfgo/ctsrun/model"
	"github.com/perfgo/ctsrun/reporting"
	"github.com/perfgo/ctsrun/suite"
	"github.com/perfgo/ctsrun/testcase"
)

// suiteRun describes one invocation of the run or manifest command.
type suiteRun struct {
	mode      model.Mode
	name      string
	binary    string
	manifest  string
	extraArgs []string
	caseOpts  []testcase.Option
	// discover returns the sub-tests once the target is connected.
	discover func(conn *connection) ([]discovery.Subtest, error)
	// push copies local binaries to the target before discovery.
	push func(conn *connection) error
}

func (a *App) run(c *cli.Context) error {
	name, binary, extra, err := parseRunArgs(c.Args().Slice())
	if err != nil {
		return err
	}
	if err := checkReportFormat(c.String("report")); err != nil {
		return err
	}

	r := suiteRun{
		mode:      model.ModeHelpText,
		name:      name,
		binary:    binary,
		extraArgs: extra,
	}
	if c.Bool("status-line") {
		r.caseOpts = append(r.caseOpts, testcase.WithStatusLine())
	}
	if local := c.String("push"); local != "" {
		r.push = func(conn *connection) error {
			if conn.pusher == nil {
				return fmt.Errorf("transport %s cannot push files", conn.target.Transport)
			}
			return conn.pusher.Push(c.Context, conn.target.ID, local, binary)
		}
	}
	r.discover = func(conn *connection) ([]discovery.Subtest, error) {
		h := &discovery.HelpText{
			Logger:  a.logger,
			Channel: conn.channel,
			Target:  conn.target.ID,
			Binary:  binary,
		}
		subtests, err := h.Discover(c.Context)
		if err != nil {
			return nil, err
		}
		if len(subtests) == 0 {
			a.logger.Info().Str("binary", binary).Msg("Binary lists no sub-tests, running it as a single case")
			subtests = []discovery.Subtest{discovery.WholeBinary(name, binary)}
		}
		return subtests, nil
	}
	return a.runSuite(c, r)
}

func (a *App) manifest(c *cli.Context) error {
	path, extra, err := parseManifestArgs(c.Args().Slice())
	if err != nil {
		return err
	}
	if err := checkReportFormat(c.String("report")); err != nil {
		return err
	}

	m := &discovery.Manifest{
		Logger:    a.logger,
		Path:      path,
		Directive: c.String("directive"),
	}
	// Discover before connecting so that a broken manifest fails fast.
	subtests, err := m.Discover(c.Context)
	if err != nil {
		return err
	}

	r := suiteRun{
		mode:      model.ModeManifest,
		name:      manifestSuiteName(path),
		manifest:  path,
		extraArgs: extra,
		caseOpts:  []testcase.Option{testcase.WithStatusLine()},
		discover: func(*connection) ([]discovery.Subtest, error) {
			return subtests, nil
		},
	}
	if dir := c.String("push-dir"); dir != "" {
		r.push = func(conn *connection) error {
			if conn.pusher == nil {
				return fmt.Errorf("transport %s cannot push files", conn.target.Transport)
			}
			for _, sub := range subtests {
				source := sub.Source
				if source == "" {
					source = filepath.Base(sub.Binary)
				}
				if err := conn.pusher.Push(c.Context, conn.target.ID, filepath.Join(dir, source), sub.Binary); err != nil {
					return fmt.Errorf("failed to push %s: %w", source, err)
				}
			}
			return nil
		}
	}
	return a.runSuite(c, r)
}

func manifestSuiteName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func checkReportFormat(format string) error {
	switch format {
	case reportTable, reportText:
		return nil
	}
	return fmt.Errorf("unknown report format %q, expected %s or %s", format, reportTable, reportText)
}

func (a *App) runSuite(c *cli.Context, r suiteRun) error {
	startTime := time.Now()

	h := &model.History{
		ID:        uuid.New().String(),
		Mode:      r.mode,
		Timestamp: startTime,
		Args:      os.Args,
		Suite:     r.name,
		Binary:    r.binary,
		Manifest:  r.manifest,
	}

	conn, err := a.connect(c)
	if err != nil {
		return err
	}
	defer conn.Close()
	h.Target = &conn.target

	if r.push != nil {
		if err := r.push(conn); err != nil {
			return err
		}
	}

	subtests, err := r.discover(conn)
	if err != nil {
		return err
	}

	var runDir string
	if !c.Bool("no-history") {
		root, err := a.historyRoot(c)
		if err != nil {
			return err
		}
		runDir, err = prepareRunDir(root, h)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Failed to prepare history directory, run will not be recorded")
			runDir = ""
		}
	}

	sinks := a.sinks(c, r.name, conn.target.ID, runDir)

	runner, err := suite.New(suite.Config{
		Name:    r.name,
		Channel: conn.channel,
		Target:  conn.target.ID,
		Logger:  a.logger,
		Sinks:   sinks,
	})
	if err != nil {
		return err
	}

	cases := make([]*testcase.Case, 0, len(subtests))
	for _, sub := range subtests {
		tc := testcase.New(sub, r.extraArgs, r.caseOpts...)
		if err := runner.Add(tc); err != nil {
			return err
		}
		cases = append(cases, tc)
	}

	rep, runErr := runner.Run(c.Context)

	h.Duration = time.Since(startTime)
	h.Summary = rep.Summary
	h.Complete = rep.Finalized
	switch {
	case runErr != nil:
		h.ExitCode = exitcodes.RuntimeErr
	case rep.Failed():
		h.ExitCode = exitcodes.TestFailure
	}

	if runDir != "" {
		if err := a.recordHistory(runDir, h, rep, cases); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		} else {
			a.logger.Info().Str("id", h.ID[:8]).Str("dir", runDir).Msg("Recorded run")
		}
	}

	if runErr != nil {
		return fmt.Errorf("suite %s did not complete: %w", r.name, runErr)
	}
	if rep.Failed() {
		return fmt.Errorf("%w: %s", ErrTestsFailed, rep.Summary)
	}
	return nil
}

// sinks builds the reporting sinks of a run. Machine readable reports go to
// the run directory unless a path was given explicitly.
func (a *App) sinks(c *cli.Context, name, target, runDir string) []reporting.Sink {
	var sinks []reporting.Sink
	switch c.String("report") {
	case reportText:
		sinks = append(sinks, reporting.NewTextSink(a.stdout, c.Bool("details")))
	default:
		sinks = append(sinks, reporting.NewTableSink(a.stdout, name))
	}

	junitPath := c.String("junit")
	metricsPath := c.String("metrics-textfile")
	if runDir != "" {
		sinks = append(sinks, reporting.NewTimingSink(filepath.Join(runDir, reporting.TimingFilename), name))
		if junitPath == "" {
			junitPath = filepath.Join(runDir, reporting.JUnitFilename)
		}
		if metricsPath == "" {
			metricsPath = filepath.Join(runDir, reporting.MetricsFilename)
		}
	}
	if junitPath != "" {
		sinks = append(sinks, reporting.NewJUnitSink(junitPath, name))
	}
	if metricsPath != "" {
		sinks = append(sinks, reporting.NewMetricsSink(metricsPath, name, target))
	}
	return sinks
}
