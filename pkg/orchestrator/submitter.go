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

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"aml-pipeline/pkg/component"
	"aml-pipeline/pkg/logging"
	"aml-pipeline/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// newJobName names submitted jobs. Replaced in tests.
var newJobName = uuid.NewString

// Submitter runs the submission flow against a Platform: compute check,
// dataset lookup, step loading, graph building, submission and streaming,
// each gating the next.
type Submitter struct {
	platform Platform
	fs       afero.Fs
}

// NewSubmitter returns a Submitter reading step definitions from fs.
func NewSubmitter(platform Platform, fs afero.Fs) *Submitter {
	return &Submitter{platform: platform, fs: fs}
}

// SubmitJob implements Orchestrator.
func (s *Submitter) SubmitJob(ctx context.Context, job JobDefinition) (*Job, error) {
	logging.Info("Checking compute %q...", job.ComputeName)
	compute, err := s.platform.GetCompute(ctx, job.ComputeName)
	if err != nil {
		return nil, Wrap(ErrConfiguration, fmt.Sprintf("compute %q", job.ComputeName), err)
	}
	logging.Debug("Found compute %s (%s, %s)", compute.ID, compute.Type, compute.State)

	logging.Info("Resolving dataset %s:%s...", job.DatasetName, job.DatasetVersion)
	data, err := s.platform.GetDataVersion(ctx, job.DatasetName, job.DatasetVersion)
	if err != nil {
		return nil, Wrap(ErrConfiguration, fmt.Sprintf("dataset %s:%s", job.DatasetName, job.DatasetVersion), err)
	}
	logging.Debug("Found dataset %s", data.ID)

	graph, err := s.buildGraph(job, data)
	if err != nil {
		return nil, err
	}

	pj := &PipelineJob{
		Name:           newJobName(),
		DisplayName:    job.DisplayName,
		ExperimentName: job.ExperimentName,
		DefaultCompute: job.ComputeName,
		Graph:          graph,
		Tags:           job.Tags,
	}

	if job.OutputJob != "" {
		return s.writeJob(pj, job.OutputJob)
	}

	logging.Info("Submitting pipeline job %s to experiment %q...", pj.Name, pj.ExperimentName)
	submitted, err := s.platform.SubmitPipelineJob(ctx, pj)
	if err != nil {
		return nil, Wrap(ErrSubmission, "submit pipeline job", err)
	}
	logging.Info("Submitted pipeline job %s.", submitted.Name)
	if submitted.StudioURL != "" {
		logging.Info("Track it at %s", submitted.StudioURL)
	}
	if job.NoStream {
		return submitted, nil
	}

	return s.stream(ctx, submitted, job)
}

func (s *Submitter) buildGraph(job JobDefinition, data *DataAsset) (*pipeline.Graph, error) {
	logging.Info("Loading step definitions...")
	train, err := component.Load(s.fs, job.TrainComponent)
	if err != nil {
		return nil, Wrap(ErrConfiguration, "train step", err)
	}
	test, err := component.Load(s.fs, job.TestComponent)
	if err != nil {
		return nil, Wrap(ErrConfiguration, "test step", err)
	}

	graph, err := pipeline.TrainTest(train, test, data.AssetURI())
	if err != nil {
		return nil, Wrap(ErrConfiguration, "build pipeline", err)
	}
	return graph, nil
}

func (s *Submitter) writeJob(pj *PipelineJob, path string) (*Job, error) {
	content, err := s.platform.RenderPipelineJob(pj)
	if err != nil {
		return nil, Wrap(ErrSubmission, "render pipeline job", err)
	}
	logging.Info("Saving pipeline job to %s", path)
	if err := afero.WriteFile(s.fs, path, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to write pipeline job to file %s: %w", path, err)
	}
	logging.Info("Pipeline job saved, nothing was submitted.")
	return &Job{Name: pj.Name, DisplayName: pj.DisplayName, ExperimentName: pj.ExperimentName}, nil
}

func (s *Submitter) stream(ctx context.Context, submitted *Job, job JobDefinition) (*Job, error) {
	if job.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.StreamTimeout)
		defer cancel()
	}

	final, err := s.platform.StreamJob(ctx, submitted.Name)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logging.Warn("Stopped waiting for job %s, it keeps running on the platform.", submitted.Name)
			return submitted, fmt.Errorf("stream job %s: %w", submitted.Name, err)
		}
		return submitted, Wrap(ErrExecution, "stream job "+submitted.Name, err)
	}

	if final.Status != StatusCompleted {
		reason := fmt.Errorf("finished with status %s", final.Status)
		if final.Error != "" {
			reason = fmt.Errorf("finished with status %s: %s", final.Status, final.Error)
		}
		return final, &Error{Kind: ErrExecution, Op: "job " + final.Name, Err: reason}
	}
	logging.Info("Job %s completed.", final.Name)
	return final, nil
}
