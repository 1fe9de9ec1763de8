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
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/tlacuache/comal/pkg/run"
)

// Context carries the values substituted into step command templates.
type Context struct {
	Commit     string
	Namespace  string
	PrimaryTag string
	LatestTag  string

	// Extras is the package-install extras suffix, e.g. "[gpu]".
	Extras string
}

// Parameters flattens the context for provenance recording.
func (c *Context) Parameters() map[string]string {
	return map[string]string{
		"commit":     c.Commit,
		"namespace":  c.Namespace,
		"primaryTag": c.PrimaryTag,
		"latestTag":  c.LatestTag,
		"extras":     c.Extras,
	}
}

// renderStep resolves the argv and environment templates of a step
// against the run context.
func renderStep(step run.Step, c *Context) (argv []string, env map[string]string, err error) {
	argv = make([]string, len(step.Command))
	for i, arg := range step.Command {
		rendered, err := renderValue(step.Name, arg, c)
		if err != nil {
			return nil, nil, err
		}
		argv[i] = rendered
	}

	if len(step.Env) > 0 {
		env = make(map[string]string, len(step.Env))
		for k, v := range step.Env {
			rendered, err := renderValue(step.Name, v, c)
			if err != nil {
				return nil, nil, err
			}
			env[k] = rendered
		}
	}

	return argv, env, nil
}

func renderValue(stepName, value string, c *Context) (string, error) {
	tmpl, err := template.New(stepName).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(value)
	if err != nil {
		return "", run.Validationf(
			"parsing template %q of step %q: %v", value, stepName, err,
		)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, c); err != nil {
		return "", run.Validationf(
			"resolving template %q of step %q: %v", value, stepName, err,
		)
	}
	return sb.String(), nil
}
