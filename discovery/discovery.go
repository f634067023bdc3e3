// Package discovery enumerates the sub-tests of conformance binaries without
// running them.
package discovery

import (
	"context"

	"github.com/rs/zerolog"
)

// Subtest is one independently runnable unit found by discovery.
type Subtest struct {
	// Name of the unit
	Name string
	// Executable on the target that runs the unit
	Binary string
	// Selector is set when Name must be passed to Binary as its first
	// argument to select the unit.
	Selector bool
	// Source is the local file name Binary is installed from, if known.
	Source string
}

// Discoverer produces the sub-tests of a suite in source order.
type Discoverer interface {
	Discover(ctx context.Context) ([]Subtest, error)
}

// WholeBinary returns the unit that runs binary as a single test named name.
// Callers use it when a binary lists no sub-tests.
func WholeBinary(name, binary string) Subtest {
	return Subtest{Name: name, Binary: binary}
}

// dedupe drops repeated names, keeping the first occurrence.
func dedupe(logger zerolog.Logger, subtests []Subtest) []Subtest {
	seen := make(map[string]bool, len(subtests))
	out := make([]Subtest, 0, len(subtests))
	for _, s := range subtests {
		if seen[s.Name] {
			logger.Warn().Str("subtest", s.Name).Msg("Ignoring duplicate sub-test")
			continue
		}
		seen[s.Name] = true
		out = append(out, s)
	}
	return out
}
