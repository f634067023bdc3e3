package model

import "time"

// Mode identifies how the cases of a run were discovered.
type Mode string

const (
	ModeHelpText Mode = "help-text"
	ModeManifest Mode = "manifest"
)

// History represents a single recorded suite run.
type History struct {
	// Unique ID for this run (UUID)
	ID string `json:"id"`
	// Discovery mode of the run
	Mode Mode `json:"mode"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Suite name given on the command line (help-text mode only)
	Suite string `json:"suite,omitempty"`
	// Test binary on the target (help-text mode only)
	Binary string `json:"binary,omitempty"`
	// Manifest file the cases were read from (manifest mode only)
	Manifest string `json:"manifest,omitempty"`
	// Exit code of the harness
	ExitCode int `json:"exit_code"`
	// Duration of the run
	Duration time.Duration `json:"duration"`
	// Target execution environment
	Target *Target `json:"target,omitempty"`
	// Verdict counts
	Summary Summary `json:"summary"`
	// Whether every registered case ran
	Complete bool `json:"complete"`
	// Per case results in execution order
	Cases []CaseRecord `json:"cases,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Target contains information about the device the suite ran on.
type Target struct {
	// Transport used to reach the device (adb, ssh or kubectl)
	Transport string `json:"transport"`
	// Identifier of the device for the transport (serial, host or pod)
	ID string `json:"id"`
	// Kubernetes context (kubectl transport only)
	KubeContext string `json:"kube_context,omitempty"`
	// Kubernetes namespace (kubectl transport only)
	Namespace string `json:"namespace,omitempty"`
}

// CaseRecord is the persisted form of a report entry.
type CaseRecord struct {
	Name     string        `json:"name"`
	Argv     []string      `json:"argv,omitempty"`
	Verdict  Verdict       `json:"verdict"`
	ExitCode int32         `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	// Captured streams (relative to run dir)
	StdoutFile string `json:"stdout_file,omitempty"`
	StderrFile string `json:"stderr_file,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeStdout ArtifactType = iota
	ArtifactTypeStderr
	ArtifactTypeJUnit
	ArtifactTypeMetrics
	ArtifactTypeTimingProfile
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeStdout:
		return "stdout"
	case ArtifactTypeStderr:
		return "stderr"
	case ArtifactTypeJUnit:
		return "junit"
	case ArtifactTypeMetrics:
		return "metrics"
	case ArtifactTypeTimingProfile:
		return "timing"
	}
	return "unknown"
}

// Artifact represents a file generated during execution
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}
