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

package exec

import (
	"context"
	gexec "os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tlacuache/comal/pkg/run"
)

func NewRunner() *Runner {
	return &Runner{
		Options: Options{
			Logger: logrus.New(),
		},
		implementation: &defaultRunnerImplementation{},
	}
}

type Runner struct {
	Options        Options
	implementation RunnerImplementation
}

type Options struct {
	Verbose bool
	CWD     string
	Timeout time.Duration
	Logger  *logrus.Logger
}

// Invocation describes one external process to run.
type Invocation struct {
	Argv []string

	// Env holds variables set on top of the inherited environment.
	Env map[string]string

	// Timeout overrides the runner default when positive.
	Timeout time.Duration
}

// Result is the record of a finished process. A non-zero exit code is
// data for the caller to interpret, not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run executes an invocation and captures its outcome. It returns an
// ExecutionError when the executable cannot be located or started and
// a TimeoutError when the invocation exceeds its allotted time.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if len(inv.Argv) == 0 || inv.Argv[0] == "" {
		return nil, run.Validationf("no executable defined in invocation")
	}

	if _, err := gexec.LookPath(inv.Argv[0]); err != nil {
		return nil, &run.ExecutionError{Command: inv.Argv[0], Err: err}
	}

	r.Options.Logger.Infof(
		"Executing command: %s", strings.Join(inv.Argv, " "),
	)
	return r.implementation.Execute(ctx, &r.Options, &inv)
}
