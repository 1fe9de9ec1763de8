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
	"errors"
	"fmt"
	"time"
)

// ValidationError flags input that cannot be used: empty or malformed
// arguments, unresolvable templates, unmet environment requirements.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation returns true when err wraps a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ExecutionError flags a collaborator process that could not be
// started at all, as opposed to one that ran and exited non-zero.
type ExecutionError struct {
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError flags a collaborator that exceeded its allotted time.
// The underlying process has been terminated when this is returned.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s", e.Command, e.Timeout)
}

// StepFailureError flags a step whose process ran to completion but
// exited non-zero. It is the only recoverable condition: steps marked
// continue-on-failure absorb it.
type StepFailureError struct {
	Step     string
	ExitCode int
}

func (e *StepFailureError) Error() string {
	return fmt.Sprintf("step %q exited with code %d", e.Step, e.ExitCode)
}

// IsStepFailure returns true when err wraps a StepFailureError.
func IsStepFailure(err error) bool {
	var serr *StepFailureError
	return errors.As(err, &serr)
}
