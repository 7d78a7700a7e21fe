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

package azureml

import (
	"context"
	"fmt"
	"net/http"

	"aml-pipeline/pkg/logging"
	"aml-pipeline/pkg/orchestrator"
)

// GetCompute returns the compute target called name.
func (c *Client) GetCompute(ctx context.Context, name string) (*orchestrator.Compute, error) {
	var res resource[computeProperties]
	op := fmt.Sprintf("get compute %q", name)
	if err := c.do(ctx, op, http.MethodGet, c.computeID(name), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &orchestrator.Compute{
		Name:  res.Name,
		ID:    res.ID,
		Type:  res.Properties.ComputeType,
		State: res.Properties.ProvisioningState,
	}, nil
}

// GetDataVersion returns version of the data asset called name.
func (c *Client) GetDataVersion(ctx context.Context, name, version string) (*orchestrator.DataAsset, error) {
	var res resource[dataVersionProperties]
	op := fmt.Sprintf("get data %s:%s", name, version)
	if err := c.do(ctx, op, http.MethodGet, c.dataVersionID(name, version), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &orchestrator.DataAsset{
		Name:    name,
		Version: version,
		ID:      res.ID,
		Type:    res.Properties.DataType,
		URI:     res.Properties.DataURI,
	}, nil
}

// SubmitPipelineJob registers the job's components anonymously, then creates
// the job.
func (c *Client) SubmitPipelineJob(ctx context.Context, job *orchestrator.PipelineJob) (*orchestrator.Job, error) {
	body, regs, err := c.renderJob(job)
	if err != nil {
		return nil, err
	}

	// snapshot digest to code reference, so steps sharing code upload it once
	codes := make(map[string]string)
	for _, r := range regs {
		spec, err := c.componentSpec(ctx, r, codes)
		if err != nil {
			return nil, err
		}
		logging.WithField("node", r.node).Debugf("Registering component %q as version %s", r.component.Name, r.version)
		comp := resource[componentVersionProperties]{
			Properties: componentVersionProperties{ComponentSpec: spec, IsAnonymous: true},
		}
		op := fmt.Sprintf("register component %q", r.component.Name)
		if err := c.do(ctx, op, http.MethodPut, r.id, comp, nil, http.StatusOK, http.StatusCreated); err != nil {
			return nil, err
		}
	}

	var res resource[jobProperties]
	op := fmt.Sprintf("create job %s", job.Name)
	if err := c.do(ctx, op, http.MethodPut, c.jobID(job.Name), body, &res, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return toJob(&res), nil
}

// componentSpec is the registration body of r: local code is uploaded and
// replaced by its code asset, a local conda file is inlined.
func (c *Client) componentSpec(ctx context.Context, r registration, codes map[string]string) (map[string]interface{}, error) {
	snap, err := r.component.CodeSnapshot(c.fs)
	if err != nil {
		return nil, err
	}
	codeRef := ""
	if snap != nil {
		ref, ok := codes[snap.Digest]
		if !ok {
			if ref, err = c.uploadCode(ctx, snap); err != nil {
				return nil, err
			}
			codes[snap.Digest] = ref
		}
		codeRef = ref
	}

	spec, err := r.component.RegistrationSpec(c.fs, codeRef)
	if err != nil {
		return nil, err
	}
	return anonymousSpec(spec, r.component, r.version), nil
}

// GetJob returns the current state of the job called name.
func (c *Client) GetJob(ctx context.Context, name string) (*orchestrator.Job, error) {
	var res resource[jobProperties]
	if err := c.do(ctx, "get job "+name, http.MethodGet, c.jobID(name), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return toJob(&res), nil
}

func toJob(res *resource[jobProperties]) *orchestrator.Job {
	return &orchestrator.Job{
		Name:           res.Name,
		ID:             res.ID,
		DisplayName:    res.Properties.DisplayName,
		ExperimentName: res.Properties.ExperimentName,
		Status:         orchestrator.JobStatus(res.Properties.Status),
		StudioURL:      res.Properties.Services[studioService].Endpoint,
	}
}
