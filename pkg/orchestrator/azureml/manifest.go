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
	"fmt"

	"aml-pipeline/pkg/component"
	"aml-pipeline/pkg/orchestrator"
	"aml-pipeline/pkg/pipeline"

	"sigs.k8s.io/yaml"
)

// registration is a component version a job needs before it is submitted.
type registration struct {
	node      string
	id        string
	version   string
	component *component.Component
}

// renderJob builds the job resource for job and lists the anonymous
// component versions its nodes refer to.
func (c *Client) renderJob(job *orchestrator.PipelineJob) (*resource[jobProperties], []registration, error) {
	if job.Graph == nil {
		return nil, nil, fmt.Errorf("pipeline job %q has no graph", job.Name)
	}
	g := job.Graph

	props := jobProperties{
		JobType:        pipelineJobType,
		DisplayName:    job.DisplayName,
		ExperimentName: job.ExperimentName,
		Tags:           job.Tags,
		Settings:       map[string]interface{}{"default_compute": c.computeID(job.DefaultCompute)},
		Inputs:         make(map[string]jobInput),
		Outputs:        make(map[string]jobOutput),
		Jobs:           make(map[string]nodeJob),
	}

	for _, in := range g.Inputs() {
		props.Inputs[in.Name] = jobInput{JobInputType: in.Type, URI: in.Path, Mode: readOnlyMount}
	}

	// graph outputs, indexed by the node port that produces them
	exposed := make(map[pipeline.Binding]string)
	for _, out := range g.Outputs() {
		n, ok := g.Node(out.Source.Node)
		if !ok {
			return nil, nil, fmt.Errorf("output %q refers to unknown node %q", out.Name, out.Source.Node)
		}
		props.Outputs[out.Name] = jobOutput{
			JobOutputType: n.Component.Outputs[out.Source.Port].Type,
			Mode:          readWriteMount,
		}
		exposed[out.Source] = out.Name
	}

	var regs []registration
	for _, n := range g.Nodes() {
		version, err := n.Component.AnonymousVersion(c.fs)
		if err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		id := c.componentVersionID(version)
		regs = append(regs, registration{node: n.Name, id: id, version: version, component: n.Component})

		nj := nodeJob{
			Type:        n.Component.Type,
			Name:        n.Name,
			DisplayName: n.Component.DisplayName,
			ComponentID: id,
			Inputs:      make(map[string]nodeInput, len(n.Inputs)),
		}
		for port, src := range n.Inputs {
			nj.Inputs[port] = nodeInput{JobInputType: literalBinding, Value: src.Expression()}
		}
		for port := range n.Component.Outputs {
			name, ok := exposed[pipeline.FromNodeOutput(n.Name, port)]
			if !ok {
				continue
			}
			if nj.Outputs == nil {
				nj.Outputs = make(map[string]nodeOutput)
			}
			nj.Outputs[port] = nodeOutput{Type: literalBinding, Value: fmt.Sprintf("${{parent.outputs.%s}}", name)}
		}
		props.Jobs[n.Name] = nj
	}

	return &resource[jobProperties]{
		ID:         c.jobID(job.Name),
		Name:       job.Name,
		Properties: props,
	}, regs, nil
}

// anonymousSpec names spec, the registration spec of c, as the anonymous
// component version.
func anonymousSpec(spec map[string]interface{}, c *component.Component, version string) map[string]interface{} {
	spec["name"] = anonymousComponentName
	spec["version"] = version
	if c.DisplayName == "" {
		spec["display_name"] = c.Name
	}
	return spec
}

// RenderPipelineJob returns the job resource SubmitPipelineJob would send,
// as YAML.
func (c *Client) RenderPipelineJob(job *orchestrator.PipelineJob) ([]byte, error) {
	res, _, err := c.renderJob(job)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline job: %w", err)
	}
	return out, nil
}
