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
	"time"
)

// JobDefinition holds all the parameters of one pipeline submission.
// Workspace and credential are bound to the Platform, not to the job.
type JobDefinition struct {
	ComputeName    string
	DatasetName    string
	DatasetVersion string
	ExperimentName string
	TrainComponent string
	TestComponent  string
	DisplayName    string
	Tags           map[string]string

	// OutputJob, when set, receives the rendered job instead of submitting it.
	OutputJob string
	// NoStream returns right after submission.
	NoStream bool
	// StreamTimeout bounds the wait for a terminal status. Zero waits forever.
	StreamTimeout time.Duration
}

// Orchestrator defines the interface for submitting pipeline jobs.
type Orchestrator interface {
	// SubmitJob resolves, builds and submits the job described by job, then
	// waits for it unless told otherwise.
	SubmitJob(ctx context.Context, job JobDefinition) (*Job, error)
}
