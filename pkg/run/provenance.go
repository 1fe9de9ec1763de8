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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"chainguard.dev/apko/pkg/vcs"
	slsa "github.com/in-toto/in-toto-golang/in_toto/slsa_provenance/v0.2"

	"github.com/tlacuache/comal/pkg/git"
)

// BuildType identifies comal pipeline runs in provenance predicates.
const BuildType = "https://github.com/tlacuache/comal@v1"

// InvocationData returns the invocation of the pipeline in SLSA struct
func (r *Run) InvocationData() slsa.ProvenanceInvocation {
	invocation := slsa.ProvenanceInvocation{
		ConfigSource: slsa.ConfigSource{},
	}
	invocation.Parameters = r.Parameters
	invocation.Environment = r.declaredEnvironment()

	// Read the repository data from the workspace. A workspace that is
	// not under version control leaves the config source empty.
	repo := git.NewRepository(r.Directory)
	url, err := repo.SourceURL()
	if err != nil || url == "" {
		if probed, perr := vcs.ProbeDirForVCSUrl(r.Directory, r.Directory); perr == nil {
			url = probed
		}
	}
	invocation.ConfigSource.URI = url
	if url != "" && r.Commit != "" {
		invocation.ConfigSource.Digest = map[string]string{"sha1": r.Commit}
	}

	return invocation
}

// declaredEnvironment returns the sorted union of the environment
// variable names the steps declared. Values are never recorded, they
// routinely hold registry credentials.
func (r *Run) declaredEnvironment() []string {
	seen := map[string]struct{}{}
	for _, step := range r.Steps {
		for _, name := range step.RequiresEnv {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attest generates a SLSA v0.2 predicate describing the run.
func (r *Run) Attest() *slsa.ProvenancePredicate {
	predicate := slsa.ProvenancePredicate{
		Builder: slsa.ProvenanceBuilder{
			ID: "https://github.com/tlacuache/comal",
		},
		BuildType:   BuildType,
		Invocation:  r.InvocationData(),
		BuildConfig: r.Steps,
		Metadata: &slsa.ProvenanceMetadata{
			BuildStartedOn:  &r.StartTime,
			BuildFinishedOn: &r.EndTime,
			Completeness: slsa.ProvenanceComplete{
				Parameters:  true,
				Environment: false,
				Materials:   false,
			},
			Reproducible: false,
		},
		Materials: []slsa.ProvenanceMaterial{},
	}
	for _, m := range r.Artifacts {
		predicate.Materials = append(predicate.Materials, slsa.ProvenanceMaterial{
			URI: m.Path,
			Digest: map[string]string{
				"sha256": m.Hash,
			},
		})
	}
	return &predicate
}

// WriteAttestation renders the run provenance to a file.
func (r *Run) WriteAttestation(path string) error {
	attestation := r.Attest()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening attestation path %s for writing: %w", path, err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(attestation); err != nil {
		return fmt.Errorf("encoding provenance predicate: %w", err)
	}
	return nil
}
