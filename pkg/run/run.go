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

package run

import (
	"context"
	"errors"
	"io"

	"aml-pipeline/pkg/config"
	"aml-pipeline/pkg/credential"
	"aml-pipeline/pkg/logging"
	"aml-pipeline/pkg/orchestrator"
	"aml-pipeline/pkg/orchestrator/azureml"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/spf13/afero"
)

// RunOptions holds the per-invocation switches of the 'run' workflow that
// are not part of Settings.
type RunOptions struct {
	OutputJob string // If set, the job is saved here instead of submitted
	NoStream  bool
	// WorkDir is where the workspace config.json search starts.
	WorkDir string
	// Out receives the streamed job status.
	Out io.Writer

	// Credential replaces the one named by Settings.CredentialSource.
	Credential azcore.TokenCredential
	// Transport replaces the default HTTP transport.
	Transport policy.Transporter
}

// ExecuteRun resolves settings into a workspace session and submits the
// train/test pipeline through it.
func ExecuteRun(ctx context.Context, fs afero.Fs, s config.Settings, opts RunOptions) (*orchestrator.Job, error) {
	logging.Info("Starting pipeline run workflow...")

	if err := s.ResolveWorkspace(fs, opts.WorkDir); err != nil && !errors.Is(err, config.ErrWorkspaceConfigNotFound) {
		return nil, orchestrator.Wrap(orchestrator.ErrConfiguration, "workspace config", err)
	}
	if err := s.Validate(); err != nil {
		return nil, &orchestrator.Error{Kind: orchestrator.ErrConfiguration, Op: "settings", Err: err}
	}

	cred := opts.Credential
	if cred == nil {
		var err error
		if cred, err = credential.New(s.CredentialSource); err != nil {
			return nil, &orchestrator.Error{Kind: orchestrator.ErrAuthentication, Op: "credential", Err: err}
		}
		logging.Debug("Using %s credential", s.CredentialSource)
	}

	client, err := azureml.NewClient(s.Workspace, cred, &azureml.ClientOptions{
		ClientOptions: arm.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Cloud:     azureml.CloudConfig(s.ResourceManagerEndpoint),
				Transport: opts.Transport,
			},
		},
		PollInterval: s.PollInterval,
		Out:          opts.Out,
		Fs:           fs,
	})
	if err != nil {
		return nil, err
	}

	job, err := orchestrator.NewSubmitter(client, fs).SubmitJob(ctx, JobDefinition(s, opts))
	if err != nil {
		return job, err
	}
	logging.Info("Pipeline run workflow completed.")
	return job, nil
}

// JobDefinition maps settings and options onto the submitter's input.
func JobDefinition(s config.Settings, opts RunOptions) orchestrator.JobDefinition {
	return orchestrator.JobDefinition{
		ComputeName:    s.ComputeName,
		DatasetName:    s.DatasetName,
		DatasetVersion: s.DatasetVersion,
		ExperimentName: s.ExperimentName,
		TrainComponent: s.TrainComponent,
		TestComponent:  s.TestComponent,
		DisplayName:    s.DisplayName,
		Tags:           s.Tags,
		OutputJob:      opts.OutputJob,
		NoStream:       opts.NoStream,
		StreamTimeout:  s.StreamTimeout,
	}
}

// ExitCode maps a workflow error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, _ := orchestrator.KindOf(err)
	switch kind {
	case orchestrator.ErrConfiguration:
		return 2
	case orchestrator.ErrAuthentication:
		return 3
	case orchestrator.ErrSubmission:
		return 4
	case orchestrator.ErrExecution:
		return 5
	default:
		return 1
	}
}
