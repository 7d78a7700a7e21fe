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

// Package component loads step templates: declarative command components
// describing one processing step's inputs, outputs and execution environment.
package component

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"aml-pipeline/pkg/config"
	"aml-pipeline/pkg/logging"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// CommandType is the only component type a pipeline node can run.
const CommandType = "command"

// Port types understood by the platform.
var portTypes = []string{
	"uri_folder", "uri_file", "mltable", "mlflow_model", "custom_model", "triton_model",
	"integer", "number", "string", "boolean",
}

// Port declares one input or output of a component.
type Port struct {
	Type        string      `yaml:"type"`
	Description string      `yaml:"description,omitempty"`
	Optional    bool        `yaml:"optional,omitempty"`
	Default     interface{} `yaml:"default,omitempty"`
	Mode        string      `yaml:"mode,omitempty"`
}

// Component is a loaded step template. It is not modified after Load returns.
type Component struct {
	Name        string          `yaml:"name"`
	Version     string          `yaml:"version"`
	DisplayName string          `yaml:"display_name"`
	Type        string          `yaml:"type"`
	Inputs      map[string]Port `yaml:"inputs"`
	Outputs     map[string]Port `yaml:"outputs"`
	Code        string          `yaml:"code"`
	Environment interface{}     `yaml:"environment"`
	Command     string          `yaml:"command"`

	// Path is the definition file the component was loaded from.
	Path string `yaml:"-"`

	raw map[string]interface{}
}

// Load reads and validates the component definition at path.
func Load(fs afero.Fs, path string) (*Component, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read component definition %q: %w", path, err)
	}
	c, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("invalid component definition %q: %w", path, err)
	}
	c.Path = path
	logging.Debug("Loaded component %q from %s", c.Name, path)
	return c, nil
}

// Parse decodes and validates a component definition.
func Parse(content []byte) (*Component, error) {
	var c Component
	if err := yaml.Unmarshal(content, &c); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(content, &c.raw); err != nil {
		return nil, err
	}
	if c.raw == nil {
		return nil, errors.New("definition is empty")
	}
	if c.Type == "" {
		c.Type = CommandType
		c.raw["type"] = CommandType
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Component) validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must be set"))
	}
	if c.Type != CommandType {
		errs = append(errs, fmt.Errorf("type %q is not supported, only %q components can be pipeline steps", c.Type, CommandType))
	}
	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("command must be set"))
	}
	if c.Environment == nil {
		errs = append(errs, errors.New("environment must be set"))
	}
	for _, kind := range []struct {
		label string
		ports map[string]Port
	}{{"input", c.Inputs}, {"output", c.Outputs}} {
		for _, name := range sortedKeys(kind.ports) {
			if err := checkPortType(kind.label, name, kind.ports[name].Type); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func checkPortType(label, name, typ string) error {
	for _, t := range portTypes {
		if typ == t {
			return nil
		}
	}
	msg := fmt.Sprintf("%s %q has unknown type %q", label, name, typ)
	if hint, ok := config.HintSpelling(typ, portTypes); ok {
		msg += fmt.Sprintf(", did you mean %q?", hint)
	}
	return errors.New(msg)
}

// RequireInput returns an error unless the component declares input name.
func (c *Component) RequireInput(name string) error {
	return requirePort(c.Name, "input", name, c.Inputs)
}

// RequireOutput returns an error unless the component declares output name.
func (c *Component) RequireOutput(name string) error {
	return requirePort(c.Name, "output", name, c.Outputs)
}

func requirePort(component, label, name string, ports map[string]Port) error {
	if _, ok := ports[name]; ok {
		return nil
	}
	msg := fmt.Sprintf("component %q has no %s %q", component, label, name)
	if hint, ok := config.HintSpelling(name, sortedKeys(ports)); ok {
		msg += fmt.Sprintf(", did you mean %q?", hint)
	}
	return errors.New(msg)
}

// LocalCodeDir returns the directory holding the component's code when code
// is a local path, resolved against the definition file's directory.
func (c *Component) LocalCodeDir() (string, bool) {
	if c.Code == "" || isRemoteRef(c.Code) {
		return "", false
	}
	return c.resolve(c.Code), true
}

// resolve makes a path written in the definition relative to the
// definition file's directory.
func (c *Component) resolve(path string) string {
	if filepath.IsAbs(path) || c.Path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.Path), path)
}

// RegistrationSpec returns the definition as the platform receives it. A
// local environment conda_file is replaced by its parsed content, and code is
// replaced by codeRef unless codeRef is empty.
func (c *Component) RegistrationSpec(fsys afero.Fs, codeRef string) (map[string]interface{}, error) {
	spec := c.Spec()
	if codeRef != "" {
		spec["code"] = codeRef
	}

	env, ok := c.raw["environment"].(map[string]interface{})
	if !ok {
		return spec, nil
	}
	condaFile, ok := env["conda_file"].(string)
	if !ok || isRemoteRef(condaFile) {
		return spec, nil
	}
	path := c.resolve(condaFile)
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conda file of component %q: %w", c.Name, err)
	}
	var conda map[string]interface{}
	if err := yaml.Unmarshal(content, &conda); err != nil {
		return nil, fmt.Errorf("invalid conda file %q: %w", path, err)
	}
	if conda == nil {
		return nil, fmt.Errorf("conda file %q is empty", path)
	}

	inlined := make(map[string]interface{}, len(env))
	for k, v := range env {
		inlined[k] = v
	}
	inlined["conda_file"] = conda
	spec["environment"] = inlined
	return spec, nil
}

func isRemoteRef(s string) bool {
	for _, prefix := range []string{"azureml:", "http://", "https://", "wasbs://", "abfss://"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Spec returns a copy of the definition as decoded from YAML, suitable as
// the componentSpec of a registration request.
func (c *Component) Spec() map[string]interface{} {
	spec := make(map[string]interface{}, len(c.raw))
	for k, v := range c.raw {
		spec[k] = v
	}
	return spec
}

func sortedKeys(ports map[string]Port) []string {
	keys := make([]string, 0, len(ports))
	for k := range ports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
