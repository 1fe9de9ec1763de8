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

	"github.com/spf13/cobra"

	"sigs.k8s.io/release-utils/log"
	"sigs.k8s.io/release-utils/version"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Short: "A runner for the pyAFQ GPU build pipeline",
		Long: `comal (the griddle where tortillas are made)

comal executes the nightly build sequence of the pyAFQ GPU image:
install the package, run the linters and tests, then build and tag
the container image for the commit under test.

In its simplest form, point it at a commit and the registry
namespace the image belongs to:

	comal run 3f5c21a nrdg

The step sequence can be replaced with a YAML manifest, and every
run can emit SLSA provenance describing what was executed and which
files the build produced.

	`,
		Use:               "comal",
		SilenceUsage:      false,
		PersistentPreRunE: initLogging,
	}

	rootCmd.PersistentFlags().StringVar(
		&commandLineOpts.logLevel,
		"log-level",
		"info",
		fmt.Sprintf("the logging verbosity, either %s", log.LevelNames()),
	)

	addRun(rootCmd)
	addSteps(rootCmd)
	rootCmd.AddCommand(version.WithFont("larry3d"))

	return rootCmd.Execute()
}

type commandLineOptions struct {
	logLevel string
}

var commandLineOpts = &commandLineOptions{}

func initLogging(*cobra.Command, []string) error {
	return log.SetupGlobalLogger(commandLineOpts.logLevel)
}
