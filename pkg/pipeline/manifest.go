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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tlacuache/comal/pkg/run"
)

// Manifest is an ordered step sequence loaded at startup. The trigger
// that launched the run (a schedule, a person at a terminal) is not
// modeled here, it only decides which manifest gets loaded.
type Manifest struct {
	Name  string     `yaml:"name"`
	Steps []run.Step `yaml:"steps"`
}

// LoadManifest reads a pipeline definition from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshaling pipeline manifest: %w", err)
	}

	return &manifest, nil
}

// Validate checks the manifest for defects that would make the run
// undefined: missing names, duplicate names, steps with no command.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return run.Validationf("pipeline manifest has no name")
	}
	if len(m.Steps) == 0 {
		return run.Validationf("pipeline %q defines no steps", m.Name)
	}

	seen := map[string]struct{}{}
	for _, step := range m.Steps {
		if step.Name == "" {
			return run.Validationf("pipeline %q has a step with no name", m.Name)
		}
		if _, ok := seen[step.Name]; ok {
			return run.Validationf("duplicate step name %q", step.Name)
		}
		seen[step.Name] = struct{}{}

		if len(step.Command) == 0 || step.Command[0] == "" {
			return run.Validationf("step %q defines no command", step.Name)
		}
		if step.Timeout < 0 {
			return run.Validationf("step %q has a negative timeout", step.Name)
		}
	}
	return nil
}

// Nightly is the built-in sequence mirroring the scheduled CI job:
// install the package with its extras, lint, test, build and tag the
// container image.
func Nightly() *Manifest {
	return &Manifest{
		Name: "nightly",
		Steps: []run.Step{
			{
				Name:    "install",
				Command: []string{"python", "-m", "pip", "install", "-e", ".{{ .Extras }}"},
				Timeout: 30 * time.Minute,
			},
			{
				Name:              "lint",
				Command:           []string{"flake8", "."},
				Timeout:           10 * time.Minute,
				ContinueOnFailure: true,
			},
			{
				Name:    "test",
				Command: []string{"pytest"},
				Timeout: 2 * time.Hour,
			},
			{
				Name: "build-image",
				Command: []string{
					"docker", "build",
					"-t", "{{ .PrimaryTag }}",
					"-t", "{{ .LatestTag }}",
					".",
				},
				Timeout: time.Hour,
			},
		},
	}
}

// Quick is the built-in sequence for manual smoke runs: install and
// test only.
func Quick() *Manifest {
	return &Manifest{
		Name: "quick",
		Steps: []run.Step{
			{
				Name:    "install",
				Command: []string{"python", "-m", "pip", "install", "-e", ".{{ .Extras }}"},
				Timeout: 30 * time.Minute,
			},
			{
				Name:    "test",
				Command: []string{"pytest"},
				Timeout: 2 * time.Hour,
			},
		},
	}
}

// BuiltinManifest returns one of the sequences that ship with comal.
func BuiltinManifest(name string) (*Manifest, error) {
	switch name {
	case "nightly":
		return Nightly(), nil
	case "quick":
		return Quick(), nil
	default:
		return nil, run.Validationf("unknown built-in pipeline %q", name)
	}
}

// Resolve renders every step command of the manifest against a context
// without executing anything.
func (m *Manifest) Resolve(c *Context) ([][]string, error) {
	resolved := make([][]string, 0, len(m.Steps))
	for _, step := range m.Steps {
		argv, _, err := renderStep(step, c)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, argv)
	}
	return resolved, nil
}
