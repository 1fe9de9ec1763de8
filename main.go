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

package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tlacuache/comal/internal/cmd"
	"github.com/tlacuache/comal/pkg/run"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	// Unusable input exits 2, a pipeline failure exits 1. The reporter
	// already printed failed runs, everything else gets logged here.
	if run.IsValidation(err) {
		logrus.Error(err)
		os.Exit(2)
	}
	if !errors.Is(err, cmd.ErrPipelineFailed) {
		logrus.Error(err)
	}
	os.Exit(1)
}
