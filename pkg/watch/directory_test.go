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

package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectorySnap(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "pipeline.log"), []byte("Hello world"), os.FileMode(0o644),
	))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), os.FileMode(0o755)))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ".git", "objects", "pack"), []byte("binary"), os.FileMode(0o644),
	))

	d := NewDirectory(dir)
	require.NoError(t, d.Snap())
	require.Len(t, d.Snapshots, 1)

	snap := d.Snapshots[0]
	require.Len(t, snap, 1)

	f, ok := snap["pipeline.log"]
	require.True(t, ok)
	require.Equal(t, "pipeline.log", f.Path)
	require.Equal(
		t, "64ec88ca00b268e5ba1a35678a1b5316d212f4f366b2477232534a8aeca37f3c", f.Hash,
	)
}

func TestSnapNoPath(t *testing.T) {
	d := &Directory{}
	require.Error(t, d.Snap())
}

func TestSnapshotDelta(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "unchanged.txt"), []byte("same"), os.FileMode(0o644),
	))

	d := NewDirectory(dir)
	require.NoError(t, d.Snap())

	// Create two files between snapshots
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "image.tar"), []byte("layers"), os.FileMode(0o644),
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "coverage.xml"), []byte("<coverage/>"), os.FileMode(0o644),
	))

	require.NoError(t, d.Snap())

	changed := d.Changed()
	require.Len(t, changed, 2)

	// Delta is sorted by path
	require.Equal(t, "coverage.xml", changed[0].Path)
	require.Equal(t, "image.tar", changed[1].Path)
	require.NotEmpty(t, changed[0].Hash)
}

func TestSnapshotDeltaModified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), os.FileMode(0o644)))

	d := NewDirectory(dir)
	require.NoError(t, d.Snap())

	require.NoError(t, os.WriteFile(path, []byte(`{"passed": true}`), os.FileMode(0o644)))
	require.NoError(t, d.Snap())

	changed := d.Changed()
	require.Len(t, changed, 1)
	require.Equal(t, "results.json", changed[0].Path)
}

func TestChangedSingleSnapshot(t *testing.T) {
	d := NewDirectory(t.TempDir())
	require.NoError(t, d.Snap())
	require.Empty(t, d.Changed())
}
