package discovery

// helptext.go discovers sub-tests by asking a binary for its usage text.

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/perfgo/ctsrun/channel"
	"github.com/rs/zerolog"
)

// TestNamesMarker introduces the indented list of sub-tests in usage text.
const TestNamesMarker = "Test names"

const maxHelpLine = 1024 * 1024

// HelpText discovers the sub-tests of Binary from the output of
// "Binary --help" run through Channel.
type HelpText struct {
	Logger  zerolog.Logger
	Channel channel.Channel
	Target  string
	Binary  string
}

// Discover implements Discoverer. A binary that prints no test name list
// yields an empty result and no error.
func (h *HelpText) Discover(ctx context.Context) ([]Subtest, error) {
	argv := []string{h.Binary, "--help"}
	h.Logger.Debug().
		Str("target", h.Target).
		Str("binary", h.Binary).
		Msg("Listing sub-tests")

	outcome, err := h.Channel.Execute(ctx, h.Target, argv)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-tests of %s: %w", h.Binary, err)
	}
	// Usage text is commonly printed with a non-zero status, so only the
	// output matters here.
	if outcome.ExitCode != 0 {
		h.Logger.Debug().Int32("exit_code", outcome.ExitCode).Msg("Help command exited non-zero")
	}

	names, err := ParseHelp(outcome.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse usage text of %s: %w", h.Binary, err)
	}
	subtests := make([]Subtest, 0, len(names))
	for _, name := range names {
		subtests = append(subtests, Subtest{Name: name, Binary: h.Binary, Selector: true})
	}
	subtests = dedupe(h.Logger, subtests)

	h.Logger.Debug().Int("count", len(subtests)).Str("binary", h.Binary).Msg("Discovered sub-tests")
	return subtests, nil
}

// ParseHelp returns the names listed after the "Test names" line of usage
// text: every following line indented with a space or tab, up to the first
// line that is not. A line longer than the scanner accepts is an error
// rather than the end of the list.
func ParseHelp(stdout string) ([]string, error) {
	idx := strings.Index(stdout, TestNamesMarker)
	if idx == -1 {
		return nil, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(stdout[idx:]))
	scanner.Buffer(make([]byte, 0, 64*1024), maxHelpLine)

	// The first line is the marker itself.
	scanner.Scan()

	var names []string
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			break
		}
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
