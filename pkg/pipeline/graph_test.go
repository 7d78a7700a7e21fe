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

package pipeline

import (
	"errors"
	"testing"

	"aml-pipeline/pkg/component"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainYAML = `
name: train_fashion_mnist
inputs:
  data_dir:
    type: uri_folder
outputs:
  model_dir:
    type: uri_folder
code: src
environment: azureml:AzureML-sklearn-1.0-ubuntu20.04-py38-cpu:1
command: python train.py --data_dir ${{inputs.data_dir}} --model_dir ${{outputs.model_dir}}
`

const testYAML = `
name: test_fashion_mnist
inputs:
  data_dir:
    type: uri_folder
  model_dir:
    type: mlflow_model
  batch_size:
    type: integer
    default: 64
  notes:
    type: string
    optional: true
code: src
environment: azureml:AzureML-sklearn-1.0-ubuntu20.04-py38-cpu:1
command: python test.py --data_dir ${{inputs.data_dir}} --model_dir ${{inputs.model_dir}}
`

func parse(t *testing.T, content string) *component.Component {
	t.Helper()
	c, err := component.Parse([]byte(content))
	require.NoError(t, err)
	return c
}

func TestTrainTest(t *testing.T) {
	train, test := parse(t, trainYAML), parse(t, testYAML)
	g, err := TrainTest(train, test, "azureml:/subscriptions/s/data/d/versions/1")
	require.NoError(t, err)

	require.Len(t, g.Inputs(), 1)
	assert.Equal(t, Input{Name: "data_dir", Type: "uri_folder", Path: "azureml:/subscriptions/s/data/d/versions/1"}, g.Inputs()[0])

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "train", nodes[0].Name)
	assert.Equal(t, "test", nodes[1].Name)
	assert.Same(t, train, nodes[0].Component)
	assert.Same(t, test, nodes[1].Component)

	assert.Equal(t, map[string]Binding{
		"data_dir": FromGraphInput("data_dir"),
	}, nodes[0].Inputs)
	assert.Equal(t, map[string]Binding{
		"data_dir":  FromGraphInput("data_dir"),
		"model_dir": FromNodeOutput("train", "model_dir"),
	}, nodes[1].Inputs)

	assert.Equal(t, []Edge{{From: "train", FromPort: "model_dir", To: "test", ToPort: "model_dir"}}, g.Edges())
	assert.Equal(t, []Output{{Name: "model_dir", Source: FromNodeOutput("train", "model_dir")}}, g.Outputs())

	n, ok := g.Node("test")
	require.True(t, ok)
	assert.Equal(t, "test", n.Name)
	_, ok = g.Node("deploy")
	assert.False(t, ok)
}

func TestBindingExpression(t *testing.T) {
	assert.Equal(t, "${{parent.inputs.data_dir}}", FromGraphInput("data_dir").Expression())
	assert.Equal(t, "${{parent.jobs.train.outputs.model_dir}}", FromNodeOutput("train", "model_dir").Expression())
	assert.Equal(t, "inputs.data_dir", FromGraphInput("data_dir").String())
	assert.Equal(t, "train.model_dir", FromNodeOutput("train", "model_dir").String())
}

func TestNodesSortedTopologically(t *testing.T) {
	train, test := parse(t, trainYAML), parse(t, testYAML)
	// declared out of order on purpose
	g, err := NewBuilder().
		AddInput("data_dir", FolderType, "p").
		AddNode("a_eval", test).
		AddNode("z_fit", train).
		Bind("a_eval", "data_dir", FromGraphInput("data_dir")).
		Bind("a_eval", "model_dir", FromNodeOutput("z_fit", "model_dir")).
		Bind("z_fit", "data_dir", FromGraphInput("data_dir")).
		Build()
	require.NoError(t, err)
	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "z_fit", nodes[0].Name)
	assert.Equal(t, "a_eval", nodes[1].Name)
}

func TestBuildErrors(t *testing.T) {
	train, test := parse(t, trainYAML), parse(t, testYAML)
	// echo reads and writes model_dir, so it can be wired into a loop
	echo := parse(t, `
name: echo
inputs:
  model_dir:
    type: uri_folder
outputs:
  model_dir:
    type: uri_folder
environment: azureml:env:1
command: cp -r ${{inputs.model_dir}} ${{outputs.model_dir}}
`)

	type testCase struct {
		name    string
		builder *Builder
		is      error
		msg     string
	}
	tests := []testCase{
		{
			name: "duplicate node",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).AddNode("train", train),
			is: ErrDuplicateName,
		},
		{
			name: "port bound twice",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").AddInput("other_dir", FolderType, "q").
				AddNode("train", train).AddNode("test", test).
				Bind("train", "data_dir", FromGraphInput("data_dir")).
				Bind("test", "data_dir", FromGraphInput("data_dir")).
				Bind("test", "model_dir", FromNodeOutput("train", "model_dir")).
				Bind("test", "model_dir", FromGraphInput("other_dir")),
			is:  ErrDuplicateName,
			msg: `binding "test.model_dir"`,
		},
		{
			name:    "nil component",
			builder: NewBuilder().AddNode("train", nil),
			is:      ErrNilComponent,
		},
		{
			name: "unknown target node",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).
				Bind("train", "data_dir", FromGraphInput("data_dir")).
				Bind("deploy", "data_dir", FromGraphInput("data_dir")),
			is: ErrUnknownNode,
		},
		{
			name: "unknown input port with hint",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).
				Bind("train", "data_dri", FromGraphInput("data_dir")),
			msg: `component "train_fashion_mnist" has no input "data_dri", did you mean "data_dir"?`,
		},
		{
			name: "unknown graph input",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).
				Bind("train", "data_dir", FromGraphInput("dataset")),
			is: ErrUnknownInput,
		},
		{
			name: "unknown source port",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).AddNode("test", test).
				Bind("train", "data_dir", FromGraphInput("data_dir")).
				Bind("test", "data_dir", FromGraphInput("data_dir")).
				Bind("test", "model_dir", FromNodeOutput("train", "model")),
			msg: `component "train_fashion_mnist" has no output "model", did you mean "model_dir"?`,
		},
		{
			name: "unbound required input",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).AddNode("test", test).
				Bind("train", "data_dir", FromGraphInput("data_dir")).
				Bind("test", "data_dir", FromGraphInput("data_dir")),
			is:  ErrUnboundInput,
			msg: `node "test" input "model_dir"`,
		},
		{
			name: "self binding",
			builder: NewBuilder().AddNode("echo", echo).
				Bind("echo", "model_dir", FromNodeOutput("echo", "model_dir")),
			is: ErrCycle,
		},
		{
			name: "cycle",
			builder: NewBuilder().AddNode("a", echo).AddNode("b", echo).
				Bind("a", "model_dir", FromNodeOutput("b", "model_dir")).
				Bind("b", "model_dir", FromNodeOutput("a", "model_dir")),
			is: ErrCycle,
		},
		{
			name: "output from graph input",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddOutput("data_dir", FromGraphInput("data_dir")),
			is: ErrOutputNotOfNode,
		},
		{
			name: "output from unknown node",
			builder: NewBuilder().AddInput("data_dir", FolderType, "p").
				AddNode("train", train).
				Bind("train", "data_dir", FromGraphInput("data_dir")).
				AddOutput("model_dir", FromNodeOutput("fit", "model_dir")),
			is: ErrUnknownNode,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := tc.builder.Build()
			require.Error(t, err)
			assert.Nil(t, g)
			if tc.is != nil {
				assert.True(t, errors.Is(err, tc.is), "got %v", err)
			}
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestBuilderStopsAtFirstError(t *testing.T) {
	train := parse(t, trainYAML)
	_, err := NewBuilder().
		AddNode("train", nil).
		AddNode("train", train).
		Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNilComponent))
	assert.False(t, errors.Is(err, ErrDuplicateName))
}
