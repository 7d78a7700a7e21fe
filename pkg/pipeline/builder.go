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
	"sort"

	"aml-pipeline/pkg/component"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

var (
	ErrDuplicateName   = errors.New("name already declared")
	ErrUnknownNode     = errors.New("unknown node")
	ErrUnknownInput    = errors.New("unknown graph input")
	ErrUnboundInput    = errors.New("required input is not bound")
	ErrOutputNotOfNode = errors.New("graph outputs must be bound to a node output")
	ErrCycle           = errors.New("binding creates a cycle")
	ErrNilComponent    = errors.New("component must be set")
)

type binding struct {
	node string
	port string
	src  Binding
}

// Builder declares a pipeline graph. Methods record the first error and
// become no-ops afterwards; Build reports it.
type Builder struct {
	inputs   []Input
	nodes    []*Node
	outputs  []Output
	bindings []binding
	names    map[string]bool
	err      error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]bool)}
}

func (b *Builder) declare(kind, name string) bool {
	if b.err != nil {
		return false
	}
	key := kind + "/" + name
	if b.names[key] {
		b.err = errors.Wrapf(ErrDuplicateName, "%s %q", kind, name)
		return false
	}
	b.names[key] = true
	return true
}

// AddInput declares a graph input of the given type bound to path.
func (b *Builder) AddInput(name, typ, path string) *Builder {
	if b.declare("input", name) {
		b.inputs = append(b.inputs, Input{Name: name, Type: typ, Path: path})
	}
	return b
}

// AddNode declares a node running c.
func (b *Builder) AddNode(name string, c *component.Component) *Builder {
	if b.err == nil && c == nil {
		b.err = errors.Wrapf(ErrNilComponent, "node %q", name)
	}
	if b.declare("node", name) {
		b.nodes = append(b.nodes, &Node{Name: name, Component: c, Inputs: make(map[string]Binding)})
	}
	return b
}

// Bind sets the source of input port of node. Each port takes one binding.
func (b *Builder) Bind(node, port string, src Binding) *Builder {
	if b.declare("binding", node+"."+port) {
		b.bindings = append(b.bindings, binding{node: node, port: port, src: src})
	}
	return b
}

// AddOutput exposes a node output as graph output name.
func (b *Builder) AddOutput(name string, src Binding) *Builder {
	if b.err == nil && src.Kind != NodeOutputBinding {
		b.err = errors.Wrapf(ErrOutputNotOfNode, "output %q", name)
	}
	if b.declare("output", name) {
		b.outputs = append(b.outputs, Output{Name: name, Source: src})
	}
	return b
}

// Build validates the declaration and returns the frozen graph.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}

	dag := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	byName := make(map[string]*Node, len(b.nodes))
	for _, n := range b.nodes {
		if err := dag.AddVertex(n.Name); err != nil {
			return nil, errors.Wrapf(err, "unable to add node %q", n.Name)
		}
		byName[n.Name] = n
	}

	var edges []Edge
	for _, bd := range b.bindings {
		n, ok := byName[bd.node]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "binding %s.%s", bd.node, bd.port)
		}
		if err := n.Component.RequireInput(bd.port); err != nil {
			return nil, errors.Wrapf(err, "node %q", bd.node)
		}
		if err := b.checkSource(byName, bd.src); err != nil {
			return nil, errors.Wrapf(err, "binding %s.%s", bd.node, bd.port)
		}
		n.Inputs[bd.port] = bd.src

		if bd.src.Kind != NodeOutputBinding {
			continue
		}
		edges = append(edges, Edge{From: bd.src.Node, FromPort: bd.src.Port, To: bd.node, ToPort: bd.port})
		err := dag.AddEdge(bd.src.Node, bd.node, graph.EdgeAttribute(bd.port, bd.src.Port))
		switch {
		case err == nil:
		case errors.Is(err, graph.ErrEdgeAlreadyExists):
			// several ports between the same two nodes share one dependency
			if err := dag.UpdateEdge(bd.src.Node, bd.node, graph.EdgeAttribute(bd.port, bd.src.Port)); err != nil {
				return nil, errors.Wrapf(err, "unable to update edge %s -> %s", bd.src.Node, bd.node)
			}
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return nil, errors.Wrapf(ErrCycle, "%s.%s <- %s", bd.node, bd.port, bd.src)
		default:
			return nil, errors.Wrapf(err, "unable to add edge %s -> %s", bd.src.Node, bd.node)
		}
	}

	for _, n := range b.nodes {
		for _, port := range requiredInputs(n.Component) {
			if _, ok := n.Inputs[port]; !ok {
				return nil, errors.Wrapf(ErrUnboundInput, "node %q input %q", n.Name, port)
			}
		}
	}
	for _, o := range b.outputs {
		if err := b.checkSource(byName, o.Source); err != nil {
			return nil, errors.Wrapf(err, "output %q", o.Name)
		}
	}

	order, err := graph.StableTopologicalSort(dag, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "unable to order nodes")
	}
	nodes := make([]*Node, 0, len(order))
	for _, name := range order {
		nodes = append(nodes, byName[name])
	}

	return &Graph{
		inputs:  b.inputs,
		nodes:   nodes,
		outputs: b.outputs,
		edges:   edges,
	}, nil
}

func (b *Builder) checkSource(byName map[string]*Node, src Binding) error {
	switch src.Kind {
	case GraphInputBinding:
		for _, in := range b.inputs {
			if in.Name == src.Input {
				return nil
			}
		}
		return errors.Wrapf(ErrUnknownInput, "%q", src.Input)
	case NodeOutputBinding:
		n, ok := byName[src.Node]
		if !ok {
			return errors.Wrapf(ErrUnknownNode, "%q", src.Node)
		}
		return n.Component.RequireOutput(src.Port)
	default:
		return errors.Errorf("unknown binding kind %d", src.Kind)
	}
}

// requiredInputs lists the non-optional inputs without a default, sorted.
func requiredInputs(c *component.Component) []string {
	var ports []string
	for name, p := range c.Inputs {
		if !p.Optional && p.Default == nil {
			ports = append(ports, name)
		}
	}
	sort.Strings(ports)
	return ports
}
