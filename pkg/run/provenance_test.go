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
	"os"
	"path/filepath"
	"testing"
	"time"

	slsa "github.com/in-toto/in-toto-golang/in_toto/slsa_provenance/v0.2"
	"github.com/stretchr/testify/require"
)

func testRun(t *testing.T) *Run {
	t.Helper()
	return &Run{
		Commit:    "abc123",
		Namespace: "org",
		Directory: t.TempDir(),
		Steps: []Step{
			{
				Name:        "test",
				Command:     []string{"pytest"},
				RequiresEnv: []string{"GITHUB_TOKEN", "CUDA_VISIBLE_DEVICES"},
			},
			{
				Name:        "push",
				Command:     []string{"docker", "push", "{{ .PrimaryTag }}"},
				RequiresEnv: []string{"GITHUB_TOKEN"},
			},
		},
		Status:    StatusSuccess,
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now(),
		Parameters: map[string]string{
			"commit":    "abc123",
			"namespace": "org",
		},
		Artifacts: []Artifact{
			{Path: "image.tar", Hash: "deadbeef", Time: time.Now()},
		},
	}
}

func TestAttest(t *testing.T) {
	r := testRun(t)
	predicate := r.Attest()

	require.Equal(t, BuildType, predicate.BuildType)
	require.Equal(t, "https://github.com/tlacuache/comal", predicate.Builder.ID)
	require.Equal(t, r.Parameters, predicate.Invocation.Parameters)
	require.NotNil(t, predicate.Metadata)
	require.Equal(t, &r.StartTime, predicate.Metadata.BuildStartedOn)
	require.Equal(t, &r.EndTime, predicate.Metadata.BuildFinishedOn)

	require.Len(t, predicate.Materials, 1)
	require.Equal(t, "image.tar", predicate.Materials[0].URI)
	require.Equal(t, "deadbeef", predicate.Materials[0].Digest["sha256"])
}

func TestInvocationEnvironmentNamesOnly(t *testing.T) {
	r := testRun(t)
	invocation := r.InvocationData()

	// Env variable names are recorded sorted and deduplicated. Values
	// never make it into the predicate.
	require.Equal(
		t, []string{"CUDA_VISIBLE_DEVICES", "GITHUB_TOKEN"}, invocation.Environment,
	)
}

func TestInvocationNoRepository(t *testing.T) {
	r := testRun(t)
	invocation := r.InvocationData()
	require.Empty(t, invocation.ConfigSource.URI)
	require.Empty(t, invocation.ConfigSource.Digest)
}

func TestWriteAttestation(t *testing.T) {
	r := testRun(t)
	path := filepath.Join(t.TempDir(), "provenance.json")
	require.NoError(t, r.WriteAttestation(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var predicate slsa.ProvenancePredicate
	require.NoError(t, json.Unmarshal(data, &predicate))
	require.Equal(t, BuildType, predicate.BuildType)
	require.Len(t, predicate.Materials, 1)
}
