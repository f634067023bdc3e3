// Package k8s runs test binaries inside a Kubernetes pod via kubectl.
package k8s

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/perfgo/ctsrun/channel"
	"github.com/perfgo/ctsrun/model"
)

// Client manages kubectl commands for a specific Kubernetes context and namespace.
// The target of every command is a pod name.
type Client struct {
	logger      zerolog.Logger
	kubeContext string
	namespace   string
	container   string
}

// Pod represents a Kubernetes pod.
type Pod struct {
	Metadata PodMetadata `json:"metadata"`
	Spec     PodSpec     `json:"spec"`
	Status   PodStatus   `json:"status"`
}

// PodMetadata contains pod metadata.
type PodMetadata struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace"`
	CreationTimestamp time.Time         `json:"creationTimestamp"`
	Labels            map[string]string `json:"labels,omitempty"`
}

// PodSpec contains pod specification.
type PodSpec struct {
	NodeName   string      `json:"nodeName,omitempty"`
	Containers []Container `json:"containers"`
}

// Container represents a container in a pod.
type Container struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// PodStatus contains pod status information.
type PodStatus struct {
	Phase             string            `json:"phase"`
	ContainerStatuses []ContainerStatus `json:"containerStatuses,omitempty"`
}

// ContainerStatus contains container status information.
type ContainerStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// PodRunning is the phase of a pod whose containers have started.
const PodRunning = "Running"

// Option configures a Client.
type Option func(*Client)

// WithContainer selects the container commands run in. By default kubectl
// picks the pod's default container.
func WithContainer(name string) Option {
	return func(c *Client) {
		c.container = name
	}
}

// New creates a new Kubernetes client for the specified context and namespace.
// If kubeContext is empty, the current context will be used.
// If namespace is empty, the default namespace will be used.
func New(logger zerolog.Logger, kubeContext, namespace string, opts ...Option) *Client {
	c := &Client{
		logger:      logger,
		kubeContext: kubeContext,
		namespace:   namespace,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPod retrieves a pod in the configured namespace.
func (c *Client) GetPod(ctx context.Context, name string) (*Pod, error) {
	output, err := c.runKubectl(ctx, c.globalArgs("get", "pod", name, "-o", "json")...)
	if err != nil {
		return nil, fmt.Errorf("failed to get pod %s: %w", name, err)
	}

	var pod Pod
	if err := json.Unmarshal([]byte(output), &pod); err != nil {
		return nil, fmt.Errorf("failed to parse pod response: %w", err)
	}
	return &pod, nil
}

// CheckPod verifies that the pod exists, is running and, when a container
// was selected, has that container ready.
func (c *Client) CheckPod(ctx context.Context, name string) error {
	if err := channel.CheckTarget(name); err != nil {
		return err
	}
	pod, err := c.GetPod(ctx, name)
	if err != nil {
		return &channel.Error{Target: name, Err: err}
	}
	return checkPodReady(pod, c.container)
}

func checkPodReady(pod *Pod, container string) error {
	if pod.Status.Phase != PodRunning {
		return &channel.Error{Target: pod.Metadata.Name, Err: fmt.Errorf("pod is %s, not %s", pod.Status.Phase, PodRunning)}
	}
	if container == "" {
		return nil
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Name != container {
			continue
		}
		if !cs.Ready {
			return &channel.Error{Target: pod.Metadata.Name, Err: fmt.Errorf("container %s is not ready", container)}
		}
		return nil
	}
	return &channel.ConfigurationError{Msg: fmt.Sprintf("pod %s has no container %s", pod.Metadata.Name, container)}
}

// Execute runs argv through a shell in the target pod.
func (c *Client) Execute(ctx context.Context, target string, argv []string) (model.Outcome, error) {
	if err := channel.CheckTarget(target); err != nil {
		return model.Outcome{}, err
	}

	args := c.execArgs(target, argv)
	c.logger.Debug().
		Str("pod", target).
		Strs("args", args).
		Msg("Running kubectl exec")

	return channel.RunCmd(ctx, exec.CommandContext(ctx, "kubectl", args...), target)
}

// Push copies a local file into the target pod and makes it executable.
func (c *Client) Push(ctx context.Context, target, localPath, remotePath string) error {
	if err := channel.CheckTarget(target); err != nil {
		return err
	}

	c.logger.Info().
		Str("local", localPath).
		Str("pod", target).
		Str("remote", remotePath).
		Msg("Copying binary into pod")

	if err := c.run(ctx, target, "mkdir", "-p", path.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	args := c.globalArgs("cp", localPath, fmt.Sprintf("%s:%s", target, remotePath))
	if c.container != "" {
		args = append(args, "-c", c.container)
	}
	if _, err := c.runKubectl(ctx, args...); err != nil {
		return &channel.Error{Target: target, Err: fmt.Errorf("failed to copy binary: %w", err)}
	}

	if err := c.run(ctx, target, "chmod", "+x", remotePath); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, target string, argv ...string) error {
	outcome, err := c.Execute(ctx, target, argv)
	if err != nil {
		return err
	}
	if outcome.ExitCode != 0 {
		return fmt.Errorf("%s exited with status %d (stderr: %s)", argv[0], outcome.ExitCode, outcome.Stderr)
	}
	return nil
}

// execArgs builds the kubectl arguments running argv in pod.
func (c *Client) execArgs(pod string, argv []string) []string {
	args := c.globalArgs("exec", pod)
	if c.container != "" {
		args = append(args, "-c", c.container)
	}
	return append(args, "--", "sh", "-c", channel.Join(argv))
}

// globalArgs prefixes args with the context and namespace selection.
func (c *Client) globalArgs(args ...string) []string {
	var out []string
	if c.kubeContext != "" {
		out = append(out, "--context", c.kubeContext)
	}
	if c.namespace != "" {
		out = append(out, "-n", c.namespace)
	}
	return append(out, args...)
}

// Context returns the Kubernetes context this client is configured for.
func (c *Client) Context() string {
	return c.kubeContext
}

// Namespace returns the namespace this client is configured for.
func (c *Client) Namespace() string {
	return c.namespace
}

// runKubectl executes a kubectl command with the given arguments.
func (c *Client) runKubectl(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "kubectl", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("kubectl command failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}
