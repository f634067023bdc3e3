package cli

// This file contains the discover command, which lists the cases of a suite
// without running them.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/ctsrun/discovery"
)

func (a *App) discover(c *cli.Context) error {
	var d discovery.Discoverer

	if path := c.String("manifest"); path != "" {
		if c.Args().Present() {
			return fmt.Errorf("expected either a binary or --manifest, not both")
		}
		d = &discovery.Manifest{
			Logger:    a.logger,
			Path:      path,
			Directive: c.String("directive"),
		}
	} else {
		if c.NArg() != 1 {
			return fmt.Errorf("expected arguments <binary> or --manifest <file>")
		}
		conn, err := a.connect(c)
		if err != nil {
			return err
		}
		defer conn.Close()
		d = &discovery.HelpText{
			Logger:  a.logger,
			Channel: conn.channel,
			Target:  conn.target.ID,
			Binary:  c.Args().First(),
		}
	}

	subtests, err := d.Discover(c.Context)
	if err != nil {
		return err
	}
	if len(subtests) == 0 {
		a.logger.Info().Msg("No sub-tests listed, the binary runs as a single case")
		return nil
	}
	for _, s := range subtests {
		fmt.Fprintln(a.stdout, s.Name)
	}
	return nil
}
