package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgo/ctsrun/model"
)

func TestRules_Classify(t *testing.T) {
	missing := MissingImplementationMessage("fp_config")

	tests := []struct {
		name  string
		rules Rules
		in    model.Outcome
		want  model.Verdict
	}{
		{
			name:  "missing implementation in stdout with non-zero exit",
			rules: Rules{Subtest: "fp_config"},
			in:    model.Outcome{ExitCode: 1, Stdout: "Initializing\n" + missing + "\n"},
			want:  model.Skip(ReasonMissingImplementation),
		},
		{
			name:  "missing implementation in stderr",
			rules: Rules{Subtest: "fp_config"},
			in:    model.Outcome{ExitCode: 255, Stderr: missing},
			want:  model.Skip(ReasonMissingImplementation),
		},
		{
			name:  "missing implementation wins over pass marker",
			rules: Rules{Subtest: "fp_config"},
			in:    model.Outcome{ExitCode: 0, Stdout: PassMarker + "\n" + missing},
			want:  model.Skip(ReasonMissingImplementation),
		},
		{
			name:  "missing implementation of another sub-test does not skip",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{ExitCode: 1, Stdout: missing},
			want:  model.Fail(ReasonNonZeroExit),
		},
		{
			name:  "non-zero exit with pass marker",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{ExitCode: 1, Stdout: PassMarker},
			want:  model.Fail(ReasonNonZeroExit),
		},
		{
			name:  "negative exit code",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{ExitCode: -1},
			want:  model.Fail(ReasonNonZeroExit),
		},
		{
			name:  "pass marker",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{Stdout: "hostptr...\nPASSED test.\n"},
			want:  model.Pass(),
		},
		{
			name:  "pass marker in stderr only is not a pass",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{Stderr: PassMarker},
			want:  model.Fail(ReasonUndetermined),
		},
		{
			name:  "no signal",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{Stdout: "done\n"},
			want:  model.Fail(ReasonUndetermined),
		},
		{
			name:  "status line all passed without required status line",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{Stdout: "Passed 10 of 10 tests.\n"},
			want:  model.Pass(),
		},
		{
			name:  "status line with failures without required status line",
			rules: Rules{Subtest: "hostptr"},
			in:    model.Outcome{Stdout: "hostptr...\nPassed 8 of 10 tests.\n"},
			want:  model.Fail("2 subtests failed"),
		},
		{
			name:  "status line all passed",
			rules: Rules{Subtest: "test_basic", StatusLine: true},
			in:    model.Outcome{Stdout: "Passed 10 of 10 tests."},
			want:  model.Pass(),
		},
		{
			name:  "status line with failures",
			rules: Rules{Subtest: "test_basic", StatusLine: true},
			in:    model.Outcome{Stdout: "hostptr...\nfpmath...\nPassed 8 of 10 tests.\n"},
			want:  model.Fail("2 subtests failed"),
		},
		{
			name:  "status line missing",
			rules: Rules{Subtest: "test_basic", StatusLine: true},
			in:    model.Outcome{Stdout: "hostptr...\n"},
			want:  model.Fail(ReasonStatusLineNotFound),
		},
		{
			name:  "malformed last status line",
			rules: Rules{Subtest: "test_basic"},
			in:    model.Outcome{Stdout: "Passed 4 of 4 tests.\nPassed 99999999999999999999 of 1 tests.\n"},
			want:  model.Fail(`malformed status line: invalid passed count: strconv.Atoi: parsing "99999999999999999999": value out of range`),
		},
		{
			name:  "pass marker wins over status line",
			rules: Rules{Subtest: "test_basic", StatusLine: true},
			in:    model.Outcome{Stdout: "Passed 1 of 2 tests.\nPASSED test.\n"},
			want:  model.Pass(),
		},
		{
			name:  "non-zero exit wins over status line",
			rules: Rules{Subtest: "test_basic", StatusLine: true},
			in:    model.Outcome{ExitCode: 3, Stdout: "Passed 10 of 10 tests.\n"},
			want:  model.Fail(ReasonNonZeroExit),
		},
		{
			name:  "skip wins over status line",
			rules: Rules{Subtest: "test_basic", StatusLine: true},
			in:    model.Outcome{ExitCode: 1, Stdout: MissingImplementationMessage("test_basic") + "\nPassed 0 of 1 tests.\n"},
			want:  model.Skip(ReasonMissingImplementation),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.rules.Classify(tt.in))
		})
	}
}

func TestRules_ClassifyIsPure(t *testing.T) {
	r := Rules{Subtest: "hostptr", StatusLine: true}
	o := model.Outcome{ExitCode: 0, Stdout: "Passed 8 of 10 tests.\n"}
	first := r.Classify(o)
	second := r.Classify(o)
	require.Equal(t, first, second)
	require.Equal(t, model.Outcome{ExitCode: 0, Stdout: "Passed 8 of 10 tests.\n"}, o)
}

func TestRules_Chain(t *testing.T) {
	require.Len(t, Rules{}.Chain(), 4)
	require.Len(t, Rules{StatusLine: true}.Chain(), 4)

	_, ok := StatusLine(false)(model.Outcome{Stdout: "done\n"})
	require.False(t, ok)
	v, ok := StatusLine(true)(model.Outcome{Stdout: "done\n"})
	require.True(t, ok)
	require.Equal(t, model.Fail(ReasonStatusLineNotFound), v)
}

func TestParseStatusLine(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantPassed int
		wantTotal  int
		wantFound  bool
		wantErr    bool
	}{
		{
			name:       "single line",
			in:         "Passed 10 of 10 tests.",
			wantPassed: 10,
			wantTotal:  10,
			wantFound:  true,
		},
		{
			name:       "case insensitive",
			in:         "PASSED 3 OF 4 TESTS.\n",
			wantPassed: 3,
			wantTotal:  4,
			wantFound:  true,
		},
		{
			name:       "last line wins",
			in:         "Passed 1 of 2 tests.\nretrying\nPassed 2 of 2 tests.\n",
			wantPassed: 2,
			wantTotal:  2,
			wantFound:  true,
		},
		{
			name:       "prefix on the line",
			in:         "[api] Passed 7 of 9 tests.\r\n",
			wantPassed: 7,
			wantTotal:  9,
			wantFound:  true,
		},
		{
			name: "missing period",
			in:   "Passed 7 of 9 tests\n",
		},
		{
			name: "empty",
			in:   "",
		},
		{
			name:      "overflowing passed count",
			in:        "Passed 4 of 4 tests.\nPassed 99999999999999999999 of 1 tests.\n",
			wantFound: true,
			wantErr:   true,
		},
		{
			name:      "overflowing total count",
			in:        "Passed 1 of 99999999999999999999 tests.\n",
			wantFound: true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, total, found, err := ParseStatusLine(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantFound, found)
			require.Equal(t, tt.wantPassed, passed)
			require.Equal(t, tt.wantTotal, total)
		})
	}
}
