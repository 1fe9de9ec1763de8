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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tlacuache/comal/pkg/pipeline"
	"github.com/tlacuache/comal/pkg/run"
	"github.com/tlacuache/comal/pkg/tag"
)

type stepsOptions struct {
	Sequence string
	Manifest string
	Extras   string
}

func addSteps(parentCmd *cobra.Command) {
	stepsOpts := stepsOptions{}
	stepsCmd := &cobra.Command{
		Short: "List the steps a pipeline would execute",
		Long: `comal steps [commit namespace]

The steps subcommand prints the step sequence of a pipeline without
executing anything. When a commit and registry namespace are given,
the command templates are rendered against them, showing the exact
argv of each step.

	`,
		Use:               "steps",
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return run.Validationf(
					"expected no arguments or a commit and registry namespace, got %d",
					len(args),
				)
			}

			manifest, err := loadPipeline(runOptions{
				Sequence: stepsOpts.Sequence,
				Manifest: stepsOpts.Manifest,
			})
			if err != nil {
				return err
			}
			if err := manifest.Validate(); err != nil {
				return err
			}

			if len(args) == 0 {
				printRawSteps(cmd, manifest)
				return nil
			}

			tags, err := tag.Resolve(args[0], args[1])
			if err != nil {
				return err
			}

			resolved, err := manifest.Resolve(&pipeline.Context{
				Commit:     strings.TrimSpace(args[0]),
				Namespace:  strings.ToLower(strings.TrimSpace(args[1])),
				PrimaryTag: tags.Primary,
				LatestTag:  tags.Latest,
				Extras:     formatExtras(stepsOpts.Extras),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %s:\n", manifest.Name)
			for i, argv := range resolved {
				fmt.Fprintf(
					cmd.OutOrStdout(), "  %-14s %s\n",
					manifest.Steps[i].Name, strings.Join(argv, " "),
				)
			}
			return nil
		},
	}

	stepsCmd.PersistentFlags().StringVar(
		&stepsOpts.Sequence,
		"sequence",
		"nightly",
		"built-in step sequence to list (nightly or quick)",
	)

	stepsCmd.PersistentFlags().StringVar(
		&stepsOpts.Manifest,
		"pipeline",
		"",
		"path to a YAML pipeline manifest (overrides --sequence)",
	)

	stepsCmd.PersistentFlags().StringVar(
		&stepsOpts.Extras,
		"extras",
		"",
		"package extras to render into the install step",
	)

	parentCmd.AddCommand(stepsCmd)
}

func printRawSteps(cmd *cobra.Command, manifest *pipeline.Manifest) {
	fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %s:\n", manifest.Name)
	for _, step := range manifest.Steps {
		fmt.Fprintf(
			cmd.OutOrStdout(), "  %-14s %s\n",
			step.Name, strings.Join(step.Command, " "),
		)
	}
}
