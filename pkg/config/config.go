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

// Package config holds the explicit settings a pipeline submission runs with.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"aml-pipeline/pkg/credential"
	"aml-pipeline/pkg/logging"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultComputeName    = "cluster-cpu"
	DefaultDatasetName    = "data-fashion-mnist"
	DefaultDatasetVersion = "1"
	DefaultExperimentName = "aml_pipeline_mixed"
	DefaultTrainComponent = "cloud/train.yml"
	DefaultTestComponent  = "cloud/test.yml"
	DefaultPollInterval   = 10 * time.Second
)

// Workspace identifies an Azure Machine Learning workspace.
type Workspace struct {
	SubscriptionID string `yaml:"subscription_id" json:"subscription_id"`
	ResourceGroup  string `yaml:"resource_group" json:"resource_group"`
	WorkspaceName  string `yaml:"workspace_name" json:"workspace_name"`
}

// Complete reports whether every field of the workspace is set.
func (w Workspace) Complete() bool {
	return w.SubscriptionID != "" && w.ResourceGroup != "" && w.WorkspaceName != ""
}

// Settings enumerates everything a submission needs. Nothing is read from
// the environment once Settings is built.
type Settings struct {
	CredentialSource credential.Source `yaml:"credential_source"`
	Workspace        Workspace         `yaml:"workspace"`
	ComputeName      string            `yaml:"compute_name"`
	DatasetName      string            `yaml:"dataset_name"`
	DatasetVersion   string            `yaml:"dataset_version"`
	ExperimentName   string            `yaml:"experiment_name"`
	TrainComponent   string            `yaml:"train_component"`
	TestComponent    string            `yaml:"test_component"`
	DisplayName      string            `yaml:"display_name"`
	Tags             map[string]string `yaml:"tags"`

	// StreamTimeout bounds the wait for a terminal job status. Zero waits forever.
	StreamTimeout time.Duration `yaml:"stream_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`

	// ResourceManagerEndpoint overrides the public-cloud ARM endpoint.
	ResourceManagerEndpoint string `yaml:"resource_manager_endpoint"`
}

// Defaults returns the settings used when nothing is overridden.
func Defaults() Settings {
	return Settings{
		CredentialSource: credential.Default,
		ComputeName:      DefaultComputeName,
		DatasetName:      DefaultDatasetName,
		DatasetVersion:   DefaultDatasetVersion,
		ExperimentName:   DefaultExperimentName,
		TrainComponent:   DefaultTrainComponent,
		TestComponent:    DefaultTestComponent,
		PollInterval:     DefaultPollInterval,
	}
}

// Merge overlays every non-zero field of o onto s.
func (s *Settings) Merge(o Settings) {
	if o.CredentialSource != "" {
		s.CredentialSource = o.CredentialSource
	}
	if o.Workspace.SubscriptionID != "" {
		s.Workspace.SubscriptionID = o.Workspace.SubscriptionID
	}
	if o.Workspace.ResourceGroup != "" {
		s.Workspace.ResourceGroup = o.Workspace.ResourceGroup
	}
	if o.Workspace.WorkspaceName != "" {
		s.Workspace.WorkspaceName = o.Workspace.WorkspaceName
	}
	if o.ComputeName != "" {
		s.ComputeName = o.ComputeName
	}
	if o.DatasetName != "" {
		s.DatasetName = o.DatasetName
	}
	if o.DatasetVersion != "" {
		s.DatasetVersion = o.DatasetVersion
	}
	if o.ExperimentName != "" {
		s.ExperimentName = o.ExperimentName
	}
	if o.TrainComponent != "" {
		s.TrainComponent = o.TrainComponent
	}
	if o.TestComponent != "" {
		s.TestComponent = o.TestComponent
	}
	if o.DisplayName != "" {
		s.DisplayName = o.DisplayName
	}
	for k, v := range o.Tags {
		if s.Tags == nil {
			s.Tags = make(map[string]string, len(o.Tags))
		}
		s.Tags[k] = v
	}
	if o.StreamTimeout != 0 {
		s.StreamTimeout = o.StreamTimeout
	}
	if o.PollInterval != 0 {
		s.PollInterval = o.PollInterval
	}
	if o.ResourceManagerEndpoint != "" {
		s.ResourceManagerEndpoint = o.ResourceManagerEndpoint
	}
}

// Load returns the defaults overlaid with the YAML settings file at path.
// Relative step-definition paths in the file resolve against the file's directory.
// An empty path returns the defaults.
func Load(fs afero.Fs, path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings file %q: %w", path, err)
	}

	var fromFile Settings
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fromFile); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("failed to parse settings file %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	fromFile.TrainComponent = resolveRelative(dir, fromFile.TrainComponent)
	fromFile.TestComponent = resolveRelative(dir, fromFile.TestComponent)

	s.Merge(fromFile)
	logging.Debug("Loaded settings from %s", path)
	return s, nil
}

func resolveRelative(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate returns every problem with the settings joined into one error.
func (s Settings) Validate() error {
	var errs []error
	required := []struct{ name, value string }{
		{"workspace.subscription_id", s.Workspace.SubscriptionID},
		{"workspace.resource_group", s.Workspace.ResourceGroup},
		{"workspace.workspace_name", s.Workspace.WorkspaceName},
		{"compute_name", s.ComputeName},
		{"dataset_name", s.DatasetName},
		{"dataset_version", s.DatasetVersion},
		{"experiment_name", s.ExperimentName},
		{"train_component", s.TrainComponent},
		{"test_component", s.TestComponent},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s must be set", r.name))
		}
	}

	if !isKnownSource(s.CredentialSource) {
		msg := fmt.Sprintf("unknown credential_source %q", s.CredentialSource)
		if hint, ok := HintSpelling(string(s.CredentialSource), credential.Sources()); ok {
			msg += fmt.Sprintf(", did you mean %q?", hint)
		}
		errs = append(errs, errors.New(msg))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval))
	}
	if s.StreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("stream_timeout must not be negative, got %s", s.StreamTimeout))
	}
	return errors.Join(errs...)
}

func isKnownSource(src credential.Source) bool {
	for _, known := range credential.Sources() {
		if string(src) == known {
			return true
		}
	}
	return false
}
