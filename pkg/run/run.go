/*
Copyright 2024 The Comal Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package run

import (
	"time"
)

// Status captures the lifecycle of a pipeline run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StepStatus captures the outcome of a single step.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailure StepStatus = "failure"
	StepSkipped StepStatus = "skipped"
)

// Run records one full pipeline invocation: the commit and registry
// namespace it was launched with, the resolved step sequence and the
// results collected as the steps execute. A run is terminal once its
// status is success or failed.
type Run struct {
	Commit    string
	Namespace string
	Directory string
	Steps     []Step
	Results   []Result
	Artifacts []Artifact
	Status    Status
	StartTime time.Time
	EndTime   time.Time

	// Parameters holds the values substituted into the step command
	// templates, recorded for provenance.
	Parameters map[string]string
}

// Step is the declarative definition of one pipeline stage. Steps are
// immutable once loaded from a manifest.
type Step struct {
	Name string `yaml:"name"`

	// Command is the argv to execute. Each element is a template that
	// may reference the run context (commit, namespace, image tags).
	Command []string `yaml:"command"`

	// Env holds extra environment variables to set for the step.
	// Values are templates, resolved at execution time.
	Env map[string]string `yaml:"env,omitempty"`

	// RequiresEnv lists environment variable names that must be set
	// before the step can execute.
	RequiresEnv []string `yaml:"requires_env,omitempty"`

	// ContinueOnFailure lets the pipeline proceed past a non-zero exit
	// code of this step. It does not apply to steps that could not be
	// started at all.
	ContinueOnFailure bool `yaml:"continue_on_failure,omitempty"`

	// Timeout bounds the step execution. Zero means the engine default
	// applies.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Result records the outcome of executing one step. It is immutable
// once the step finishes.
type Result struct {
	Step     Step
	Command  []string // rendered argv, empty when the step was skipped
	Status   StepStatus
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Output returns the captured output of the step, stdout first.
func (r *Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Blocking returns true when the result must halt the pipeline. A
// failed step blocks unless it opted into continue-on-failure; steps
// that never ran (validation, spawn or timeout errors) always block.
func (r *Result) Blocking() bool {
	if r.Status != StepFailure {
		return false
	}
	if r.Err != nil && !IsStepFailure(r.Err) {
		return true
	}
	return !r.Step.ContinueOnFailure
}

// FirstFailure returns the first blocking failure of the run, or nil
// when every required step succeeded.
func (r *Run) FirstFailure() *Result {
	for i := range r.Results {
		if r.Results[i].Blocking() {
			return &r.Results[i]
		}
	}
	return nil
}

// Artifact abstracts a file produced by the run with the items we are
// interested in recording.
type Artifact struct {
	Path string
	Hash string
	Time time.Time
}
