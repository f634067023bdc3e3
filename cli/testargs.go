package cli

// This file contains argument processing utilities for separating the
// positional arguments of the run commands from the extra test arguments.

import (
	"fmt"
)

// splitPositional returns the first n arguments and the rest with a leading
// "--" separator removed.
func splitPositional(args []string, n int, usage string) (positional, extra []string, err error) {
	if len(args) < n || containsDashDash(args[:n]) {
		return nil, nil, fmt.Errorf("expected arguments %s", usage)
	}
	positional = args[:n]
	extra = removeFirstDashDash(args[n:])
	for _, p := range positional {
		if p == "" {
			return nil, nil, fmt.Errorf("empty argument, expected %s", usage)
		}
	}
	return positional, append(make([]string, 0, len(extra)), extra...), nil
}

// parseRunArgs parses "<suite-name> <binary> [--] [extra args...]".
func parseRunArgs(args []string) (suiteName, binary string, extra []string, err error) {
	positional, extra, err := splitPositional(args, 2, "<suite-name> <binary> [--] [extra args...]")
	if err != nil {
		return "", "", nil, err
	}
	return positional[0], positional[1], extra, nil
}

// parseManifestArgs parses "<manifest> [--] [extra args...]".
func parseManifestArgs(args []string) (manifest string, extra []string, err error) {
	positional, extra, err := splitPositional(args, 1, "<manifest> [--] [extra args...]")
	if err != nil {
		return "", nil, err
	}
	return positional[0], extra, nil
}

func containsDashDash(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return true
		}
	}
	return false
}
