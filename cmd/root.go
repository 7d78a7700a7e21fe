// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd defines the aml-pipeline command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"aml-pipeline/pkg/logging"
	"aml-pipeline/pkg/run"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aml-pipeline",
	Short: "Submits the train/test pipeline to an Azure Machine Learning workspace.",
	Long: `aml-pipeline checks that the compute target exists, resolves the input
dataset, loads the train and test step definitions, wires them into a
two-step pipeline and submits it under an experiment, then follows the job
until it finishes.

Every parameter has a default; see 'aml-pipeline run --help'.`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setVerbosity,
	RunE:              runPipeline,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func setVerbosity(*cobra.Command, []string) error {
	logging.SetVerbose(verbose)
	return nil
}

// Execute runs the command line and exits with a status describing the
// outcome. SIGINT and SIGTERM stop the local wait only; a submitted job
// keeps running.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Error("%v", err)
		os.Exit(run.ExitCode(err))
	}
}
