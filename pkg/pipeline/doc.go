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

// Package pipeline builds pipeline graphs: the nodes of a pipeline job, where
// each node's inputs come from, and which node outputs the job exposes.
//
// A graph is declared with a Builder and frozen by Build:
//
//	g, err := pipeline.NewBuilder().
//		AddInput("data_dir", "uri_folder", dataID).
//		AddNode("train", trainComponent).
//		Bind("train", "data_dir", pipeline.FromGraphInput("data_dir")).
//		AddOutput("model_dir", pipeline.FromNodeOutput("train", "model_dir")).
//		Build()
//
// Build rejects dangling bindings, undeclared ports, unbound required inputs
// and cycles. TrainTest composes the two-step train/test topology.
package pipeline
