// Package exitcodes defines the process exit codes of ctsrun.
package exitcodes

const (
	Success     = 0 // All cases passed or were skipped
	TestFailure = 1 // At least one case failed
	RuntimeErr  = 2 // Configuration, discovery or transport errors
)
