package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport_Append(t *testing.T) {
	var r Report
	require.NoError(t, r.Append(Entry{Name: "a", Verdict: Pass()}))
	require.NoError(t, r.Append(Entry{Name: "b", Verdict: Fail("exited with non-zero status")}))
	require.NoError(t, r.Append(Entry{Name: "c", Verdict: Skip("API not available in the driver")}))
	require.NoError(t, r.Append(Entry{Name: "d", Verdict: Fail("status line not found")}))

	require.Equal(t, Summary{Passed: 1, Failed: 2, Skipped: 1, Total: 4}, r.Summary)
	require.Equal(t, len(r.Entries), r.Summary.Total)
	require.True(t, r.Failed())
	require.False(t, r.Finalized)

	r.Finalize()
	require.True(t, r.Finalized)
	require.Equal(t, "passed=1 failed=2 skipped=1 total=4", r.Summary.String())
}

func TestReport_AppendDuplicate(t *testing.T) {
	var r Report
	require.NoError(t, r.Append(Entry{Name: "a", Verdict: Pass()}))
	require.Error(t, r.Append(Entry{Name: "a", Verdict: Fail("again")}))
	require.Len(t, r.Entries, 1)
	require.Equal(t, 1, r.Summary.Total)
}

func TestReport_AppendAfterFinalize(t *testing.T) {
	var r Report
	r.Finalize()
	require.Error(t, r.Append(Entry{Name: "a", Verdict: Pass()}))
	require.Empty(t, r.Entries)
}

func TestRequest_Argv(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "whole binary",
			req:  Request{BinaryPath: "/data/local/tmp/test_basic"},
			want: []string{"/data/local/tmp/test_basic"},
		},
		{
			name: "sub-test and extra args",
			req: Request{
				BinaryPath: "/data/local/tmp/test_basic",
				Subtest:    "hostptr",
				ExtraArgs:  []string{"-w", "a b"},
			},
			want: []string{"/data/local/tmp/test_basic", "hostptr", "-w", "a b"},
		},
		{
			name: "extra args only",
			req: Request{
				BinaryPath: "/data/local/tmp/test_api",
				ExtraArgs:  []string{"--quick"},
			},
			want: []string{"/data/local/tmp/test_api", "--quick"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.req.Argv())
		})
	}
}

func TestVerdict_String(t *testing.T) {
	require.Equal(t, "PASS", Pass().String())
	require.Equal(t, "FAIL (2 subtests failed)", Fail("2 subtests failed").String())
	require.Equal(t, "SKIP (API not available in the driver)", Skip("API not available in the driver").String())
}
