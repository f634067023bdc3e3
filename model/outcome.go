package model

// Outcome is the raw result of one command executed through a channel.
type Outcome struct {
	ExitCode int32  `json:"exit_code"`
	Stdout   string `json:"-"`
	Stderr   string `json:"-"`
}

// Request describes one invocation of a test binary on the target.
type Request struct {
	// Path of the executable on the target
	BinaryPath string `json:"binary_path"`
	// Sub-test passed as the first positional argument, empty to run the
	// whole binary
	Subtest string `json:"subtest,omitempty"`
	// Caller supplied arguments appended after the sub-test
	ExtraArgs []string `json:"extra_args,omitempty"`
}

// Argv returns the command line of the request, one element per token.
func (r Request) Argv() []string {
	argv := make([]string, 0, len(r.ExtraArgs)+2)
	argv = append(argv, r.BinaryPath)
	if r.Subtest != "" {
		argv = append(argv, r.Subtest)
	}
	return append(argv, r.ExtraArgs...)
}
