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

package tag

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/tlacuache/comal/pkg/run"
)

const (
	// DefaultRegistry is the registry host the pipeline publishes to.
	DefaultRegistry = "ghcr.io"

	// DefaultImage is the repository name of the image the pipeline
	// builds.
	DefaultImage = "pyafq_gpu_cuda_11"

	latestLabel = "latest"
)

// Tags holds the two references derived for a run: one labeled with
// the commit and the moving latest reference.
type Tags struct {
	Primary string
	Latest  string
}

// Resolver derives image references from a commit and a registry
// namespace. The zero value is not usable, call NewResolver.
type Resolver struct {
	Registry string
	Image    string
}

func NewResolver() *Resolver {
	return &Resolver{
		Registry: DefaultRegistry,
		Image:    DefaultImage,
	}
}

// Resolve computes the image references for a commit under a registry
// namespace. Both inputs are stripped of all whitespace and the
// namespace is lowercased before use. The resulting references are
// checked for registry validity.
func (r *Resolver) Resolve(commit, namespace string) (*Tags, error) {
	commit = stripSpace(commit)
	namespace = strings.ToLower(stripSpace(namespace))

	if commit == "" {
		return nil, run.Validationf("commit is empty after normalization")
	}
	if namespace == "" {
		return nil, run.Validationf("registry namespace is empty after normalization")
	}

	tags := &Tags{
		Primary: fmt.Sprintf("%s/%s/%s:%s", r.Registry, namespace, r.Image, commit),
		Latest:  fmt.Sprintf("%s/%s/%s:%s", r.Registry, namespace, r.Image, latestLabel),
	}

	for _, ref := range []string{tags.Primary, tags.Latest} {
		if _, err := name.NewTag(ref, name.StrictValidation); err != nil {
			return nil, run.Validationf("invalid image reference %q: %v", ref, err)
		}
	}

	return tags, nil
}

// Resolve derives image references using the default registry and
// image repository.
func Resolve(commit, namespace string) (*Tags, error) {
	return NewResolver().Resolve(commit, namespace)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
