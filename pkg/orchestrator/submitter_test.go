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
	"strings"
	"testing"
	"time"

	"aml-pipeline/pkg/pipeline"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

const trainYAML = `
name: train_fashion_mnist
inputs:
  data_dir:
    type: uri_folder
outputs:
  model_dir:
    type: uri_folder
environment: azureml:AzureML-sklearn-1.0-ubuntu20.04-py38-cpu:1
command: python train.py --data_dir ${{inputs.data_dir}} --model_dir ${{outputs.model_dir}}
`

const testYAML = `
name: test_fashion_mnist
inputs:
  data_dir:
    type: uri_folder
  model_dir:
    type: uri_folder
environment: azureml:AzureML-sklearn-1.0-ubuntu20.04-py38-cpu:1
command: python test.py --data_dir ${{inputs.data_dir}} --model_dir ${{inputs.model_dir}}
`

// fakePlatform records every call and answers from its fields.
type fakePlatform struct {
	calls []string

	computeErr error
	dataErr    error
	submitErr  error
	streamErr  error
	final      JobStatus
	runError   string
	// block makes StreamJob wait for ctx.
	block bool

	submitted []*PipelineJob
	streamed  []string
}

func (f *fakePlatform) GetCompute(_ context.Context, name string) (*Compute, error) {
	f.calls = append(f.calls, "GetCompute "+name)
	if f.computeErr != nil {
		return nil, f.computeErr
	}
	return &Compute{Name: name, ID: "/computes/" + name, Type: "AmlCompute", State: "Succeeded"}, nil
}

func (f *fakePlatform) GetDataVersion(_ context.Context, name, version string) (*DataAsset, error) {
	f.calls = append(f.calls, "GetDataVersion "+name+":"+version)
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	return &DataAsset{Name: name, Version: version, ID: "/data/" + name + "/versions/" + version, Type: "uri_folder"}, nil
}

func (f *fakePlatform) RenderPipelineJob(job *PipelineJob) ([]byte, error) {
	f.calls = append(f.calls, "RenderPipelineJob "+job.Name)
	return []byte("name: " + job.Name + "\n"), nil
}

func (f *fakePlatform) SubmitPipelineJob(_ context.Context, job *PipelineJob) (*Job, error) {
	f.calls = append(f.calls, "SubmitPipelineJob "+job.Name)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, job)
	return &Job{Name: job.Name, Status: StatusNotStarted, StudioURL: "https://ml.azure.com/runs/" + job.Name}, nil
}

func (f *fakePlatform) StreamJob(ctx context.Context, name string) (*Job, error) {
	f.calls = append(f.calls, "StreamJob "+name)
	f.streamed = append(f.streamed, name)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	status := f.final
	if status == "" {
		status = StatusCompleted
	}
	return &Job{Name: name, Status: status, Error: f.runError}, nil
}

func setup(t *testing.T) (afero.Fs, JobDefinition) {
	t.Helper()
	newJobName = func() string { return "job-1" }
	t.Cleanup(func() { newJobName = defaultJobName })

	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"/proj/cloud/train.yml": trainYAML,
		"/proj/cloud/test.yml":  testYAML,
	} {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs, JobDefinition{
		ComputeName:    "cluster-cpu",
		DatasetName:    "data-fashion-mnist",
		DatasetVersion: "1",
		ExperimentName: "aml_pipeline_mixed",
		TrainComponent: "/proj/cloud/train.yml",
		TestComponent:  "/proj/cloud/test.yml",
	}
}

var defaultJobName = newJobName

func TestSubmitJob(t *testing.T) {
	fs, def := setup(t)
	p := &fakePlatform{}

	job, err := NewSubmitter(p, fs).SubmitJob(context.Background(), def)
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if job.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", job.Status, StatusCompleted)
	}

	wantCalls := []string{
		"GetCompute cluster-cpu",
		"GetDataVersion data-fashion-mnist:1",
		"SubmitPipelineJob job-1",
		"StreamJob job-1",
	}
	if diff := cmp.Diff(wantCalls, p.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	if len(p.submitted) != 1 {
		t.Fatalf("got %d submissions, want 1", len(p.submitted))
	}
	pj := p.submitted[0]
	if pj.ExperimentName != "aml_pipeline_mixed" || pj.DefaultCompute != "cluster-cpu" {
		t.Errorf("submitted experiment=%q compute=%q", pj.ExperimentName, pj.DefaultCompute)
	}

	g := pj.Graph
	var names []string
	for _, n := range g.Nodes() {
		names = append(names, n.Name)
	}
	if diff := cmp.Diff([]string{"train", "test"}, names); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	wantEdges := []pipeline.Edge{{From: "train", FromPort: "model_dir", To: "test", ToPort: "model_dir"}}
	if diff := cmp.Diff(wantEdges, g.Edges()); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	wantOutputs := []pipeline.Output{{Name: "model_dir", Source: pipeline.FromNodeOutput("train", "model_dir")}}
	if diff := cmp.Diff(wantOutputs, g.Outputs()); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if got := g.Inputs()[0].Path; got != "azureml:/data/data-fashion-mnist/versions/1" {
		t.Errorf("data_dir path = %q", got)
	}
	if diff := cmp.Diff([]string{"job-1"}, p.streamed); diff != "" {
		t.Errorf("streamed mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitJobIgnoresDatasetIdentity(t *testing.T) {
	fs, def := setup(t)
	def.DatasetName, def.DatasetVersion = "other-data", "7"
	p := &fakePlatform{}

	if _, err := NewSubmitter(p, fs).SubmitJob(context.Background(), def); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	pj := p.submitted[0]
	if pj.ExperimentName != def.ExperimentName || pj.DefaultCompute != def.ComputeName {
		t.Errorf("submitted experiment=%q compute=%q", pj.ExperimentName, pj.DefaultCompute)
	}
}

func TestSubmitJobFailsFast(t *testing.T) {
	notFound := &Error{Kind: ErrConfiguration, Op: "get compute", Err: errors.New("404 not found")}
	denied := &Error{Kind: ErrAuthentication, Op: "get compute", Err: errors.New("403 forbidden")}

	tests := []struct {
		name      string
		platform  *fakePlatform
		mutate    func(*JobDefinition)
		wantKind  ErrorKind
		wantCalls []string
	}{
		{
			name:      "compute not found",
			platform:  &fakePlatform{computeErr: notFound},
			wantKind:  ErrConfiguration,
			wantCalls: []string{"GetCompute cluster-cpu"},
		},
		{
			name:      "compute lookup denied",
			platform:  &fakePlatform{computeErr: denied},
			wantKind:  ErrAuthentication,
			wantCalls: []string{"GetCompute cluster-cpu"},
		},
		{
			name:      "dataset lookup fails",
			platform:  &fakePlatform{dataErr: errors.New("boom")},
			wantKind:  ErrConfiguration,
			wantCalls: []string{"GetCompute cluster-cpu", "GetDataVersion data-fashion-mnist:1"},
		},
		{
			name:      "missing step definition",
			platform:  &fakePlatform{},
			mutate:    func(d *JobDefinition) { d.TestComponent = "/proj/cloud/missing.yml" },
			wantKind:  ErrConfiguration,
			wantCalls: []string{"GetCompute cluster-cpu", "GetDataVersion data-fashion-mnist:1"},
		},
		{
			name:      "submission rejected",
			platform:  &fakePlatform{submitErr: errors.New("quota exceeded")},
			wantKind:  ErrSubmission,
			wantCalls: []string{"GetCompute cluster-cpu", "GetDataVersion data-fashion-mnist:1", "SubmitPipelineJob job-1"},
		},
		{
			name:      "job failed",
			platform:  &fakePlatform{final: StatusFailed},
			wantKind:  ErrExecution,
			wantCalls: []string{"GetCompute cluster-cpu", "GetDataVersion data-fashion-mnist:1", "SubmitPipelineJob job-1", "StreamJob job-1"},
		},
		{
			name:      "stream broken",
			platform:  &fakePlatform{streamErr: errors.New("connection reset")},
			wantKind:  ErrExecution,
			wantCalls: []string{"GetCompute cluster-cpu", "GetDataVersion data-fashion-mnist:1", "SubmitPipelineJob job-1", "StreamJob job-1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs, def := setup(t)
			if tc.mutate != nil {
				tc.mutate(&def)
			}
			_, err := NewSubmitter(tc.platform, fs).SubmitJob(context.Background(), def)
			if err == nil {
				t.Fatal("SubmitJob() succeeded, want error")
			}
			if !errors.Is(err, tc.wantKind) {
				t.Errorf("error %q is not a %s", err, tc.wantKind)
			}
			if diff := cmp.Diff(tc.wantCalls, tc.platform.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubmitJobReportsRunError(t *testing.T) {
	fs, def := setup(t)
	p := &fakePlatform{final: StatusFailed, runError: "UserError: ValueError: no images found"}

	job, err := NewSubmitter(p, fs).SubmitJob(context.Background(), def)
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("SubmitJob() error = %v, want execution error", err)
	}
	if !strings.Contains(err.Error(), "finished with status Failed: UserError: ValueError: no images found") {
		t.Errorf("error %q does not carry the run error", err)
	}
	if job.Error != p.runError {
		t.Errorf("job.Error = %q, want %q", job.Error, p.runError)
	}
}

func TestSubmitJobNoStream(t *testing.T) {
	fs, def := setup(t)
	def.NoStream = true
	p := &fakePlatform{}

	job, err := NewSubmitter(p, fs).SubmitJob(context.Background(), def)
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if job.Status != StatusNotStarted {
		t.Errorf("status = %s, want %s", job.Status, StatusNotStarted)
	}
	if len(p.streamed) != 0 {
		t.Errorf("StreamJob called %d times, want 0", len(p.streamed))
	}
}

func TestSubmitJobOutputJob(t *testing.T) {
	fs, def := setup(t)
	def.OutputJob = "/out/job.yml"
	p := &fakePlatform{}

	if _, err := NewSubmitter(p, fs).SubmitJob(context.Background(), def); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	got, err := afero.ReadFile(fs, "/out/job.yml")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "name: job-1\n" {
		t.Errorf("written job = %q", got)
	}
	for _, c := range p.calls {
		if strings.HasPrefix(c, "SubmitPipelineJob") || strings.HasPrefix(c, "StreamJob") {
			t.Errorf("unexpected call %q in dry run", c)
		}
	}
}

func TestSubmitJobStreamTimeout(t *testing.T) {
	fs, def := setup(t)
	def.StreamTimeout = 10 * time.Millisecond
	p := &fakePlatform{block: true}

	job, err := NewSubmitter(p, fs).SubmitJob(context.Background(), def)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("SubmitJob() error = %v, want deadline exceeded", err)
	}
	if _, ok := KindOf(err); ok {
		t.Errorf("timeout should not be classified, got %v", err)
	}
	if job == nil || job.Name != "job-1" {
		t.Errorf("job = %+v, want the submitted handle", job)
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("404")
	err := Wrap(ErrConfiguration, "compute", base)
	if !errors.Is(err, ErrConfiguration) || errors.Is(err, ErrSubmission) {
		t.Errorf("kind matching broken for %v", err)
	}
	if !errors.Is(err, base) {
		t.Errorf("cause lost in %v", err)
	}

	// an existing kind wins over the default
	rewrapped := Wrap(ErrSubmission, "submit", Wrap(ErrAuthentication, "token", base))
	if k, _ := KindOf(rewrapped); k != ErrAuthentication {
		t.Errorf("KindOf() = %s, want %s", k, ErrAuthentication)
	}
	if got, want := rewrapped.Error(), "submit: authentication error: token: 404"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if Wrap(ErrSubmission, "noop", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if _, ok := KindOf(fmt.Errorf("plain")); ok {
		t.Error("plain error has no kind")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusCanceled, StatusNotResponding, StatusPaused} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusNotStarted, StatusQueued, StatusRunning, StatusFinalizing, StatusCancelRequest} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
