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

package cmd

import (
	"os"

	"aml-pipeline/pkg/config"
	"aml-pipeline/pkg/credential"
	"aml-pipeline/pkg/logging"
	"aml-pipeline/pkg/orchestrator"
	"aml-pipeline/pkg/run"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath string
	outputJob  string
	noStream   bool
	verbose    bool

	// flagSettings receives the flag values; only flags set on the command
	// line override the settings file.
	flagSettings config.Settings
	credSource   string
	tags         map[string]string
)

func init() {
	rootCmd.AddCommand(runCmd)
	addFlags(rootCmd.PersistentFlags())
}

func addFlags(flags *pflag.FlagSet) {
	defaults := config.Defaults()

	flags.StringVar(&configPath, "config", "", "Path to a YAML settings file. Flags override its values.")
	flags.StringVar(&credSource, "credential", string(defaults.CredentialSource), "Credential source: one of default, cli, environment, managed-identity, token.")
	flags.StringVar(&flagSettings.Workspace.SubscriptionID, "subscription", "", "Azure subscription ID. If not provided, it is read from the workspace config.json.")
	flags.StringVar(&flagSettings.Workspace.ResourceGroup, "resource-group", "", "Resource group of the workspace. If not provided, it is read from the workspace config.json.")
	flags.StringVarP(&flagSettings.Workspace.WorkspaceName, "workspace", "w", "", "Name of the Azure ML workspace. If not provided, it is read from the workspace config.json.")
	flags.StringVarP(&flagSettings.ComputeName, "compute", "c", defaults.ComputeName, "Name of the existing compute target the pipeline runs on.")
	flags.StringVarP(&flagSettings.DatasetName, "dataset", "d", defaults.DatasetName, "Name of the registered input dataset.")
	flags.StringVar(&flagSettings.DatasetVersion, "dataset-version", defaults.DatasetVersion, "Version of the input dataset.")
	flags.StringVarP(&flagSettings.ExperimentName, "experiment", "e", defaults.ExperimentName, "Experiment the job is filed under.")
	flags.StringVar(&flagSettings.TrainComponent, "train-component", defaults.TrainComponent, "Path to the train step definition.")
	flags.StringVar(&flagSettings.TestComponent, "test-component", defaults.TestComponent, "Path to the test step definition.")
	flags.StringVar(&flagSettings.DisplayName, "display-name", "", "Display name of the job.")
	flags.StringToStringVar(&tags, "tag", nil, "Job tag as key=value. Repeatable.")
	flags.StringVarP(&outputJob, "output-job", "o", "", "Path to write the rendered job to instead of submitting it.")
	flags.BoolVar(&noStream, "no-stream", false, "Return right after submission instead of following the job.")
	flags.DurationVar(&flagSettings.StreamTimeout, "stream-timeout", 0, "Stop following the job after this long. Zero follows it until it finishes.")
	flags.DurationVar(&flagSettings.PollInterval, "poll-interval", defaults.PollInterval, "Delay between two job status reads.")
	flags.StringVar(&flagSettings.ResourceManagerEndpoint, "resource-manager-endpoint", "", "Azure Resource Manager endpoint, for sovereign clouds.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level, including Azure SDK requests.")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submits the train/test pipeline and follows it until it finishes.",
	Long: `The 'run' command checks the compute target and the input dataset, loads the
train and test step definitions, and submits a pipeline job in which the test
step evaluates the model produced by the train step. The job's only output is
the trained model.

With --output-job the job is rendered to a file and nothing is submitted.`,
	Args:         cobra.NoArgs,
	RunE:         runPipeline,
	SilenceUsage: true,
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	logging.Info("Executing aml-pipeline run command...")

	fs := afero.NewOsFs()
	settings, err := resolveSettings(fs, cmd.Flags())
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, err = run.ExecuteRun(cmd.Context(), fs, settings, run.RunOptions{
		OutputJob: outputJob,
		NoStream:  noStream,
		WorkDir:   wd,
		Out:       cmd.OutOrStdout(),
	})
	return err
}

// resolveSettings layers defaults, the settings file and the flags that were
// set explicitly, in that order.
func resolveSettings(fs afero.Fs, flags *pflag.FlagSet) (config.Settings, error) {
	settings, err := config.Load(fs, configPath)
	if err != nil {
		return config.Settings{}, &orchestrator.Error{Kind: orchestrator.ErrConfiguration, Op: "settings", Err: err}
	}

	explicit := config.Settings{}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "credential":
			explicit.CredentialSource = credential.Source(credSource)
		case "subscription":
			explicit.Workspace.SubscriptionID = flagSettings.Workspace.SubscriptionID
		case "resource-group":
			explicit.Workspace.ResourceGroup = flagSettings.Workspace.ResourceGroup
		case "workspace":
			explicit.Workspace.WorkspaceName = flagSettings.Workspace.WorkspaceName
		case "compute":
			explicit.ComputeName = flagSettings.ComputeName
		case "dataset":
			explicit.DatasetName = flagSettings.DatasetName
		case "dataset-version":
			explicit.DatasetVersion = flagSettings.DatasetVersion
		case "experiment":
			explicit.ExperimentName = flagSettings.ExperimentName
		case "train-component":
			explicit.TrainComponent = flagSettings.TrainComponent
		case "test-component":
			explicit.TestComponent = flagSettings.TestComponent
		case "display-name":
			explicit.DisplayName = flagSettings.DisplayName
		case "tag":
			explicit.Tags = tags
		case "stream-timeout":
			explicit.StreamTimeout = flagSettings.StreamTimeout
		case "poll-interval":
			explicit.PollInterval = flagSettings.PollInterval
		case "resource-manager-endpoint":
			explicit.ResourceManagerEndpoint = flagSettings.ResourceManagerEndpoint
		}
	})
	settings.Merge(explicit)

	// a zero stream timeout on the command line lifts the file's limit
	if flags.Changed("stream-timeout") && flagSettings.StreamTimeout == 0 {
		settings.StreamTimeout = 0
	}
	return settings, nil
}
