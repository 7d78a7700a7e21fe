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

import "aml-pipeline/pkg/component"

const (
	TrainNode = "train"
	TestNode  = "test"

	DataDirPort  = "data_dir"
	ModelDirPort = "model_dir"

	// FolderType is the input type of a directory reference.
	FolderType = "uri_folder"
)

// TrainTest composes the two-step pipeline: train reads the data directory,
// test reads the data directory and train's model, and the job exposes
// train's model as its only output.
func TrainTest(train, test *component.Component, dataPath string) (*Graph, error) {
	return NewBuilder().
		AddInput(DataDirPort, FolderType, dataPath).
		AddNode(TrainNode, train).
		Bind(TrainNode, DataDirPort, FromGraphInput(DataDirPort)).
		AddNode(TestNode, test).
		Bind(TestNode, DataDirPort, FromGraphInput(DataDirPort)).
		Bind(TestNode, ModelDirPort, FromNodeOutput(TrainNode, ModelDirPort)).
		AddOutput(ModelDirPort, FromNodeOutput(TrainNode, ModelDirPort)).
		Build()
}
