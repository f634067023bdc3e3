package k8s

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/ctsrun/channel"
)

func TestExecArgs(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
		want   []string
	}{
		{
			name:   "current context",
			client: New(zerolog.Nop(), "", ""),
			want:   []string{"exec", "gpu-0", "--", "sh", "-c", "/opt/cts/test_basic 'a b'"},
		},
		{
			name:   "context namespace and container",
			client: New(zerolog.Nop(), "lab", "cts", WithContainer("runner")),
			want: []string{
				"--context", "lab", "-n", "cts",
				"exec", "gpu-0", "-c", "runner",
				"--", "sh", "-c", "/opt/cts/test_basic 'a b'",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.client.execArgs("gpu-0", []string{"/opt/cts/test_basic", "a b"}))
		})
	}
}

const podJSON = `{
  "metadata": {"name": "gpu-0", "namespace": "cts"},
  "spec": {"nodeName": "node-1", "containers": [{"name": "runner", "image": "cts:latest"}]},
  "status": {
    "phase": "Running",
    "containerStatuses": [{"name": "runner", "ready": true}, {"name": "sidecar", "ready": false}]
  }
}`

func TestCheckPodReady(t *testing.T) {
	var pod Pod
	require.NoError(t, json.Unmarshal([]byte(podJSON), &pod))
	require.Equal(t, "node-1", pod.Spec.NodeName)

	require.NoError(t, checkPodReady(&pod, ""))
	require.NoError(t, checkPodReady(&pod, "runner"))

	var chErr *channel.Error
	require.ErrorAs(t, checkPodReady(&pod, "sidecar"), &chErr)

	var cfgErr *channel.ConfigurationError
	require.ErrorAs(t, checkPodReady(&pod, "missing"), &cfgErr)

	pod.Status.Phase = "Pending"
	require.ErrorAs(t, checkPodReady(&pod, ""), &chErr)
}

func TestExecute_EmptyTarget(t *testing.T) {
	c := New(zerolog.Nop(), "", "")
	_, err := c.Execute(context.Background(), "", []string{"true"})
	var cfgErr *channel.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
