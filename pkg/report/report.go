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

package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tlacuache/comal/pkg/run"
)

// Reporter renders a finished run for a person at a terminal. It
// writes to its two streams only, never to files or the network.
type Reporter struct {
	Out io.Writer
	Err io.Writer
}

func New() *Reporter {
	return &Reporter{
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// Report prints every step result in order and, when the run failed,
// the full captured output of the step that broke it. It returns the
// process exit code for the run: 0 for success, 1 for failure.
func (rep *Reporter) Report(r *run.Run) int {
	fmt.Fprintf(rep.Out, "Pipeline run for commit %s (namespace %s)\n\n", r.Commit, r.Namespace)

	for i := range r.Results {
		res := &r.Results[i]
		fmt.Fprintf(
			rep.Out, "  %s %-14s %-8s %s\n",
			statusMark(res.Status), res.Step.Name, res.Status, stepDuration(res),
		)
	}

	if len(r.Artifacts) > 0 {
		fmt.Fprintf(rep.Out, "\nRun produced %d artifacts\n", len(r.Artifacts))
	}

	if r.Status != run.StatusFailed {
		fmt.Fprintf(rep.Out, "\nPipeline succeeded in %s\n", runDuration(r))
		return 0
	}

	if failure := r.FirstFailure(); failure != nil {
		fmt.Fprintf(rep.Err, "\nStep %q failed: %v\n", failure.Step.Name, failure.Err)
		if output := failure.Output(); output != "" {
			fmt.Fprintln(rep.Err, output)
		}
	} else {
		fmt.Fprintln(rep.Err, "\nPipeline aborted before finishing")
	}
	return 1
}

func statusMark(status run.StepStatus) string {
	switch status {
	case run.StepSuccess:
		return "✔"
	case run.StepFailure:
		return "✖"
	default:
		return "-"
	}
}

func stepDuration(res *run.Result) string {
	if res.Status == run.StepSkipped {
		return ""
	}
	return res.Duration.Round(time.Millisecond).String()
}

func runDuration(r *run.Run) string {
	return r.EndTime.Sub(r.StartTime).Round(time.Millisecond).String()
}
