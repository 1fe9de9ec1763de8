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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	gexec "os/exec"
	"sort"
	"strings"
	"time"

	"github.com/tlacuache/comal/pkg/run"
)

type RunnerImplementation interface {
	Execute(ctx context.Context, opts *Options, inv *Invocation) (*Result, error)
}

type defaultRunnerImplementation struct{}

// Execute spawns the invocation's process and blocks until it exits,
// its timeout elapses or the context is canceled. The child is killed
// in both of the latter cases.
func (ri *defaultRunnerImplementation) Execute(
	ctx context.Context, opts *Options, inv *Invocation,
) (*Result, error) {
	timeout := inv.Timeout
	if timeout == 0 {
		timeout = opts.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	//nolint:gosec // the argv is the pipeline's own step definition
	cmd := gexec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.Dir = opts.CWD
	cmd.Env = mergedEnviron(inv.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if opts.Verbose {
		cmd.Stdout = io.MultiWriter(os.Stdout, &stdout)
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, &run.TimeoutError{
				Command: strings.Join(inv.Argv, " "),
				Timeout: timeout,
			}
		}
		return nil, fmt.Errorf("executing %s: %w", inv.Argv[0], ctxErr)
	}

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if err != nil {
		var exitErr *gexec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &run.ExecutionError{Command: inv.Argv[0], Err: err}
		}
		res.ExitCode = exitErr.ExitCode()
	}

	return res, nil
}

// mergedEnviron layers the invocation variables over the inherited
// environment, sorted for reproducible provenance.
func mergedEnviron(extra map[string]string) []string {
	if len(extra) == 0 {
		return os.Environ()
	}

	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
