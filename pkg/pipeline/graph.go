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
	"fmt"

	"aml-pipeline/pkg/component"
)

// BindingKind tells where a bound value comes from.
type BindingKind int

const (
	// GraphInputBinding reads one of the graph's declared inputs.
	GraphInputBinding BindingKind = iota
	// NodeOutputBinding reads an output port of another node.
	NodeOutputBinding
)

// Binding is the source of a node input or a graph output.
type Binding struct {
	Kind  BindingKind
	Input string
	Node  string
	Port  string
}

// FromGraphInput binds to the graph input called name.
func FromGraphInput(name string) Binding {
	return Binding{Kind: GraphInputBinding, Input: name}
}

// FromNodeOutput binds to output port of node.
func FromNodeOutput(node, port string) Binding {
	return Binding{Kind: NodeOutputBinding, Node: node, Port: port}
}

// Expression renders the binding in the platform's ${{...}} syntax.
func (b Binding) Expression() string {
	if b.Kind == GraphInputBinding {
		return fmt.Sprintf("${{parent.inputs.%s}}", b.Input)
	}
	return fmt.Sprintf("${{parent.jobs.%s.outputs.%s}}", b.Node, b.Port)
}

func (b Binding) String() string {
	if b.Kind == GraphInputBinding {
		return "inputs." + b.Input
	}
	return b.Node + "." + b.Port
}

// Input is a graph-level input.
type Input struct {
	Name string
	Type string
	Path string
}

// Node is one step of the pipeline.
type Node struct {
	Name      string
	Component *component.Component
	// Inputs maps the component's input ports to their sources.
	Inputs map[string]Binding
}

// Output is a graph-level output, always produced by a node.
type Output struct {
	Name   string
	Source Binding
}

// Edge is a data dependency: To.ToPort reads From.FromPort.
type Edge struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// Graph is a validated pipeline graph. It is never mutated after Build.
type Graph struct {
	inputs  []Input
	nodes   []*Node
	outputs []Output
	edges   []Edge
}

// Inputs returns the graph inputs in declaration order.
func (g *Graph) Inputs() []Input {
	return append([]Input(nil), g.inputs...)
}

// Nodes returns the nodes in topological order, ties broken by name.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Node returns the node called name.
func (g *Graph) Node(name string) (*Node, bool) {
	for _, n := range g.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Outputs returns the graph outputs in declaration order.
func (g *Graph) Outputs() []Output {
	return append([]Output(nil), g.outputs...)
}

// Edges returns the node-to-node data edges in binding order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}
