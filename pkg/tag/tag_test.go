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
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/tlacuache/comal/pkg/run"
)

func TestResolve(t *testing.T) {
	for _, tc := range []struct {
		name      string
		commit    string
		namespace string
		expected  *Tags
		shouldErr bool
	}{
		{
			name:      "plain",
			commit:    "abc123",
			namespace: "org",
			expected: &Tags{
				Primary: "ghcr.io/org/pyafq_gpu_cuda_11:abc123",
				Latest:  "ghcr.io/org/pyafq_gpu_cuda_11:latest",
			},
		},
		{
			name:      "whitespace stripped",
			commit:    "  abc\t123\n",
			namespace: " o r g ",
			expected: &Tags{
				Primary: "ghcr.io/org/pyafq_gpu_cuda_11:abc123",
				Latest:  "ghcr.io/org/pyafq_gpu_cuda_11:latest",
			},
		},
		{
			name:      "namespace lowercased",
			commit:    "abc123",
			namespace: "MyOrg",
			expected: &Tags{
				Primary: "ghcr.io/myorg/pyafq_gpu_cuda_11:abc123",
				Latest:  "ghcr.io/myorg/pyafq_gpu_cuda_11:latest",
			},
		},
		{
			name:      "empty commit",
			commit:    "",
			namespace: "org",
			shouldErr: true,
		},
		{
			name:      "whitespace only commit",
			commit:    " \t\n",
			namespace: "org",
			shouldErr: true,
		},
		{
			name:      "empty namespace",
			commit:    "abc123",
			namespace: "",
			shouldErr: true,
		},
		{
			name:      "invalid tag characters",
			commit:    "abc:123",
			namespace: "org",
			shouldErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tags, err := Resolve(tc.commit, tc.namespace)
			if tc.shouldErr {
				require.Error(t, err)
				require.True(t, run.IsValidation(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, tags)
		})
	}
}

func TestResolveNoWhitespaceProperty(t *testing.T) {
	commits := []string{
		" abc123", "abc123 ", "abc 123", "\tabc\t123\t", "a b c 1 2 3\n",
	}
	for _, commit := range commits {
		tags, err := Resolve(commit, "  or g  ")
		require.NoError(t, err)
		for _, ref := range []string{tags.Primary, tags.Latest} {
			require.False(
				t, strings.ContainsFunc(ref, unicode.IsSpace),
				"reference %q contains whitespace", ref,
			)
		}
	}
}

func TestResolverCustomRegistry(t *testing.T) {
	r := &Resolver{Registry: "registry.example.com", Image: "afq"}
	tags, err := r.Resolve("deadbeef", "lab")
	require.NoError(t, err)
	require.Equal(t, "registry.example.com/lab/afq:deadbeef", tags.Primary)
	require.Equal(t, "registry.example.com/lab/afq:latest", tags.Latest)
}
