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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tlacuache/comal/pkg/exec"
	"github.com/tlacuache/comal/pkg/git"
	"github.com/tlacuache/comal/pkg/pipeline"
	"github.com/tlacuache/comal/pkg/report"
	"github.com/tlacuache/comal/pkg/run"
	"github.com/tlacuache/comal/pkg/tag"
	"github.com/tlacuache/comal/pkg/watch"
)

// ErrPipelineFailed marks a run where one or more steps failed. The
// run itself completed, so it carries no further detail; the reporter
// already printed it.
var ErrPipelineFailed = errors.New("pipeline finished with failed steps")

type runOptions struct {
	Verbose    bool
	CWD        string
	Timeout    time.Duration
	Extras     string
	Sequence   string
	Manifest   string
	Provenance string
	OutputDirs []string
}

func addRun(parentCmd *cobra.Command) {
	runOpts := runOptions{}
	runCmd := &cobra.Command{
		Short: "Execute the build pipeline for a commit",
		Long: `comal run commit namespace

The run subcommand executes the pipeline steps in order for the
given commit: install, lint, test and image build. The image is
tagged with the commit and with latest under the registry
namespace.

Pass HEAD as the commit to resolve it from the repository in the
working directory. A step sequence other than the built-in nightly
one can be selected with --sequence or loaded from a YAML manifest
with --pipeline.

	`,
		Use:               "run",
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return run.Validationf(
					"expected exactly two arguments (commit and registry namespace), got %d",
					len(args),
				)
			}
			return executeRun(runOpts, args[0], args[1])
		},
	}

	runCmd.PersistentFlags().StringSliceVar(
		&runOpts.OutputDirs,
		"dir",
		[]string{"."},
		"list of directories that comal will monitor for build output",
	)

	runCmd.PersistentFlags().StringVarP(
		&runOpts.CWD,
		"cwd",
		"C",
		"",
		"directory to change to when running the pipeline",
	)

	runCmd.PersistentFlags().DurationVar(
		&runOpts.Timeout,
		"timeout",
		0,
		"default timeout for steps that do not declare their own",
	)

	runCmd.PersistentFlags().StringVar(
		&runOpts.Extras,
		"extras",
		"",
		"package extras to install, eg \"dev,fury\"",
	)

	runCmd.PersistentFlags().StringVar(
		&runOpts.Sequence,
		"sequence",
		"nightly",
		"built-in step sequence to run (nightly or quick)",
	)

	runCmd.PersistentFlags().StringVar(
		&runOpts.Manifest,
		"pipeline",
		"",
		"path to a YAML pipeline manifest (overrides --sequence)",
	)

	runCmd.PersistentFlags().StringVar(
		&runOpts.Provenance,
		"provenance",
		"",
		"path to write a SLSA provenance predicate of the run",
	)

	runCmd.PersistentFlags().BoolVar(
		&runOpts.Verbose,
		"verbose",
		false,
		"verbose output (streams step output while it runs)",
	)

	parentCmd.AddCommand(runCmd)
}

func executeRun(opts runOptions, commit, namespace string) error {
	cwd, err := workingDirectory(opts)
	if err != nil {
		return err
	}

	// A .env file in the workspace supplies step environment
	// requirements, CI settings carried over locally. Not having one
	// is fine.
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading workspace .env file: %w", err)
	}

	if strings.EqualFold(strings.TrimSpace(commit), "HEAD") {
		commit, err = git.NewRepository(cwd).HeadCommit()
		if err != nil {
			return fmt.Errorf("resolving HEAD commit: %w", err)
		}
		logrus.Infof("Resolved HEAD to commit %s", commit)
	}

	tags, err := tag.Resolve(commit, namespace)
	if err != nil {
		return err
	}

	manifest, err := loadPipeline(opts)
	if err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	c := &pipeline.Context{
		Commit:     strings.TrimSpace(commit),
		Namespace:  strings.ToLower(strings.TrimSpace(namespace)),
		PrimaryTag: tags.Primary,
		LatestTag:  tags.Latest,
		Extras:     formatExtras(opts.Extras),
	}

	runner := exec.NewRunner()
	runner.Options.CWD = cwd
	runner.Options.Verbose = opts.Verbose
	runner.Options.Timeout = opts.Timeout
	runner.Options.Logger = logrus.StandardLogger()

	watchers, err := buildWatchers(cwd, opts.OutputDirs)
	if err != nil {
		return err
	}
	for _, w := range watchers {
		if err := w.Snap(); err != nil {
			return fmt.Errorf("snapshotting %s before the run: %w", w.Path, err)
		}
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	r := pipeline.NewEngine(runner).Execute(ctx, manifest.Steps, c)
	r.Directory = cwd

	for _, w := range watchers {
		if err := w.Snap(); err != nil {
			return fmt.Errorf("snapshotting %s after the run: %w", w.Path, err)
		}
		r.Artifacts = append(r.Artifacts, w.Changed()...)
	}

	if opts.Provenance != "" {
		if err := r.WriteAttestation(opts.Provenance); err != nil {
			return fmt.Errorf("writing run provenance: %w", err)
		}
		logrus.Infof("Wrote provenance predicate to %s", opts.Provenance)
	}

	if code := report.New().Report(r); code != 0 {
		return ErrPipelineFailed
	}
	return nil
}

func workingDirectory(opts runOptions) (string, error) {
	cwd := opts.CWD
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		cwd = wd
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("normalizing working directory: %w", err)
	}
	return abs, nil
}

func loadPipeline(opts runOptions) (*pipeline.Manifest, error) {
	if opts.Manifest != "" {
		return pipeline.LoadManifest(opts.Manifest)
	}
	return pipeline.BuiltinManifest(opts.Sequence)
}

func buildWatchers(cwd string, dirs []string) ([]*watch.Directory, error) {
	watchers := make([]*watch.Directory, 0, len(dirs))
	for _, dir := range dirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cwd, dir)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("normalizing watched directory %s: %w", dir, err)
		}
		watchers = append(watchers, watch.NewDirectory(abs))
	}
	return watchers, nil
}

// formatExtras turns a comma separated extras list into the bracketed
// suffix pip expects, "dev,fury" becomes "[dev,fury]".
func formatExtras(extras string) string {
	extras = strings.TrimSpace(extras)
	if extras == "" {
		return ""
	}
	if strings.HasPrefix(extras, "[") {
		return extras
	}
	return "[" + extras + "]"
}
