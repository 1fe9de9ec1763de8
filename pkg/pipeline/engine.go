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

package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tlacuache/comal/pkg/exec"
	"github.com/tlacuache/comal/pkg/run"
)

// CommandRunner executes a single external process. It is implemented
// by exec.Runner.
type CommandRunner interface {
	Run(ctx context.Context, inv exec.Invocation) (*exec.Result, error)
}

// Engine executes an ordered step sequence, one step at a time. Steps
// never run concurrently, later steps consume artifacts of earlier
// ones.
type Engine struct {
	Runner    CommandRunner
	LookupEnv func(string) (string, bool)
	Logger    *logrus.Logger
}

func NewEngine(runner CommandRunner) *Engine {
	return &Engine{
		Runner:    runner,
		LookupEnv: os.LookupEnv,
		Logger:    logrus.StandardLogger(),
	}
}

// Execute runs the steps in declared order against the run context.
// The first blocking failure halts the pipeline and marks the
// remaining steps as skipped. Canceling the context kills the step in
// flight and aborts the run; finished steps are not rolled back.
func (e *Engine) Execute(ctx context.Context, steps []run.Step, c *Context) *run.Run {
	r := &run.Run{
		Commit:     c.Commit,
		Namespace:  c.Namespace,
		Steps:      steps,
		Status:     run.StatusRunning,
		StartTime:  time.Now(),
		Parameters: c.Parameters(),
	}

	halted := false
	for _, step := range steps {
		if halted || ctx.Err() != nil {
			e.Logger.Infof("Skipping step %s", step.Name)
			r.Results = append(r.Results, run.Result{
				Step:   step,
				Status: run.StepSkipped,
			})
			continue
		}

		res := e.executeStep(ctx, step, c)
		r.Results = append(r.Results, res)

		switch {
		case res.Blocking():
			e.Logger.Errorf("Step %s failed, halting pipeline", step.Name)
			halted = true
		case res.Status == run.StepFailure:
			e.Logger.Warnf(
				"Step %s failed with code %d, continuing", step.Name, res.ExitCode,
			)
		}
	}

	r.EndTime = time.Now()
	r.Status = run.StatusSuccess
	if r.FirstFailure() != nil || ctx.Err() != nil {
		r.Status = run.StatusFailed
	}
	return r
}

// executeStep resolves and runs one step. Conditions that keep the
// step from executing at all (unmet env requirements, template errors,
// spawn failures, timeouts) surface in the result error and always
// block; a plain non-zero exit is a StepFailureError which the step
// may absorb with continue-on-failure.
func (e *Engine) executeStep(ctx context.Context, step run.Step, c *Context) run.Result {
	for _, name := range step.RequiresEnv {
		if _, ok := e.LookupEnv(name); !ok {
			return run.Result{
				Step:   step,
				Status: run.StepFailure,
				Err: run.Validationf(
					"step %q requires environment variable %s", step.Name, name,
				),
			}
		}
	}

	argv, env, err := renderStep(step, c)
	if err != nil {
		return run.Result{Step: step, Status: run.StepFailure, Err: err}
	}

	res, err := e.Runner.Run(ctx, exec.Invocation{
		Argv:    argv,
		Env:     env,
		Timeout: step.Timeout,
	})
	if err != nil {
		return run.Result{
			Step:    step,
			Command: argv,
			Status:  run.StepFailure,
			Err:     err,
		}
	}

	result := run.Result{
		Step:     step,
		Command:  argv,
		Status:   run.StepSuccess,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: res.Duration,
	}
	if res.ExitCode != 0 {
		result.Status = run.StepFailure
		result.Err = &run.StepFailureError{Step: step.Name, ExitCode: res.ExitCode}
	}
	return result
}
