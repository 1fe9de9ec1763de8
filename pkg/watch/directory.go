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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/release-utils/hash"

	"github.com/tlacuache/comal/pkg/run"
)

// Snapshot indexes the files of a directory by their relative path.
type Snapshot map[string]run.Artifact

// Delta takes a snapshot, assumed to be later in time, and returns a
// directed delta: the files which were created or modified, sorted by
// path.
func (snap Snapshot) Delta(post Snapshot) []run.Artifact {
	results := []run.Artifact{}
	for path, f := range post {
		// If the file was not there in the first snap, add it
		pre, ok := snap[path]
		if !ok {
			results = append(results, f)
			continue
		}

		// Check the file attributes to see if they were changed
		if pre.Time != f.Time || pre.Hash != f.Hash {
			results = append(results, f)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results
}

func NewDirectory(path string) *Directory {
	return &Directory{
		Path:      path,
		Snapshots: []Snapshot{},
	}
}

// Directory watches a filesystem tree for files the pipeline creates
// or rewrites between snapshots.
type Directory struct {
	Path      string
	Snapshots []Snapshot
}

// Snap takes a snapshot of the directory
func (d *Directory) Snap() error {
	if d.Path == "" {
		return errors.New("directory watcher has no path defined")
	}

	snap := Snapshot{}

	// Walk the files in the directory
	if err := filepath.Walk(d.Path,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				// Repository metadata churns on every git
				// operation, it is never a build artifact.
				if info.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}

			// Hash the file
			sha, err := hash.SHA256ForFile(path)
			if err != nil {
				return fmt.Errorf("hashing %s: %w", path, err)
			}

			// Normalize the path....
			path, err = filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("normalizing path %s: %w", path, err)
			}

			// .. and trim the watched directory to make it relative
			path = strings.TrimPrefix(path, d.Path+"/")

			// Register the file with the path normalized
			snap[path] = run.Artifact{
				Path: path,
				Hash: sha,
				Time: info.ModTime(),
			}
			return nil
		}); err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}

	d.Snapshots = append(d.Snapshots, snap)

	return nil
}

// Changed returns the delta between the first and the last snapshot
// taken so far.
func (d *Directory) Changed() []run.Artifact {
	if len(d.Snapshots) < 2 {
		return []run.Artifact{}
	}
	return d.Snapshots[0].Delta(d.Snapshots[len(d.Snapshots)-1])
}
