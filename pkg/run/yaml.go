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
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// stepDoc mirrors Step for decoding, with the timeout as a Go
// duration string ("15m", "2h").
type stepDoc struct {
	Name              string            `yaml:"name"`
	Command           []string          `yaml:"command"`
	Env               map[string]string `yaml:"env,omitempty"`
	RequiresEnv       []string          `yaml:"requires_env,omitempty"`
	ContinueOnFailure bool              `yaml:"continue_on_failure,omitempty"`
	Timeout           string            `yaml:"timeout,omitempty"`
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var doc stepDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("decoding step: %w", err)
	}

	s.Name = doc.Name
	s.Command = doc.Command
	s.Env = doc.Env
	s.RequiresEnv = doc.RequiresEnv
	s.ContinueOnFailure = doc.ContinueOnFailure

	if doc.Timeout != "" {
		timeout, err := time.ParseDuration(doc.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout of step %q: %w", doc.Name, err)
		}
		s.Timeout = timeout
	}
	return nil
}

func (s Step) MarshalYAML() (any, error) {
	doc := stepDoc{
		Name:              s.Name,
		Command:           s.Command,
		Env:               s.Env,
		RequiresEnv:       s.RequiresEnv,
		ContinueOnFailure: s.ContinueOnFailure,
	}
	if s.Timeout != 0 {
		doc.Timeout = s.Timeout.String()
	}
	return doc, nil
}
