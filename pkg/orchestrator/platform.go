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

	"aml-pipeline/pkg/pipeline"
)

// Compute is a named, pre-provisioned execution target.
type Compute struct {
	Name  string
	ID    string
	Type  string
	State string
}

// DataAsset is one immutable version of a registered dataset.
type DataAsset struct {
	Name    string
	Version string
	ID      string
	Type    string
	URI     string
}

// AssetURI is the reference a job input uses to point at the asset.
func (d *DataAsset) AssetURI() string {
	if d.ID != "" {
		return "azureml:" + d.ID
	}
	return "azureml:" + d.Name + ":" + d.Version
}

// PipelineJob is a pipeline graph ready for submission.
type PipelineJob struct {
	Name           string
	DisplayName    string
	ExperimentName string
	DefaultCompute string
	Graph          *pipeline.Graph
	Tags           map[string]string
}

// JobStatus is the remote status of a job.
type JobStatus string

const (
	StatusNotStarted    JobStatus = "NotStarted"
	StatusStarting      JobStatus = "Starting"
	StatusPreparing     JobStatus = "Preparing"
	StatusQueued        JobStatus = "Queued"
	StatusRunning       JobStatus = "Running"
	StatusFinalizing    JobStatus = "Finalizing"
	StatusCancelRequest JobStatus = "CancelRequested"
	StatusCompleted     JobStatus = "Completed"
	StatusFailed        JobStatus = "Failed"
	StatusCanceled      JobStatus = "Canceled"
	StatusNotResponding JobStatus = "NotResponding"
	StatusPaused        JobStatus = "Paused"
)

// IsTerminal reports whether the job will not change status any more.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled, StatusNotResponding, StatusPaused:
		return true
	}
	return false
}

// Job is a handle on a submitted job.
type Job struct {
	Name           string
	ID             string
	DisplayName    string
	ExperimentName string
	Status         JobStatus
	StudioURL      string
	// Error is the platform's explanation of an unsuccessful run, when known.
	Error string
}

// Platform is the remote control plane the Submitter drives. Implementations
// classify their failures with *Error where they can.
type Platform interface {
	GetCompute(ctx context.Context, name string) (*Compute, error)
	GetDataVersion(ctx context.Context, name, version string) (*DataAsset, error)
	// RenderPipelineJob returns the document SubmitPipelineJob would send.
	RenderPipelineJob(job *PipelineJob) ([]byte, error)
	SubmitPipelineJob(ctx context.Context, job *PipelineJob) (*Job, error)
	// StreamJob blocks until the job reaches a terminal status or ctx is done.
	StreamJob(ctx context.Context, name string) (*Job, error)
}
