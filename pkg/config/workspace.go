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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"aml-pipeline/pkg/logging"

	"github.com/spf13/afero"
)

// WorkspaceConfigName is the file the Azure ML tooling writes next to a project.
const WorkspaceConfigName = "config.json"

// ErrWorkspaceConfigNotFound is returned when no config.json exists in the search path.
var ErrWorkspaceConfigNotFound = errors.New("workspace config.json not found")

// FindWorkspaceConfig looks for config.json, then .azureml/config.json, in
// startDir and each of its parents, and returns the first one found.
func FindWorkspaceConfig(fs afero.Fs, startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", startDir, err)
	}
	for {
		for _, candidate := range []string{
			filepath.Join(dir, WorkspaceConfigName),
			filepath.Join(dir, ".azureml", WorkspaceConfigName),
		} {
			exists, err := afero.Exists(fs, candidate)
			if err != nil {
				return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
			if exists {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched from %s)", ErrWorkspaceConfigNotFound, startDir)
		}
		dir = parent
	}
}

// ReadWorkspaceConfig parses a workspace config.json.
func ReadWorkspaceConfig(fs afero.Fs, path string) (Workspace, error) {
	var ws Workspace
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return ws, fmt.Errorf("failed to read workspace config %q: %w", path, err)
	}
	if err := json.Unmarshal(content, &ws); err != nil {
		return ws, fmt.Errorf("failed to parse workspace config %q: %w", path, err)
	}
	return ws, nil
}

// ResolveWorkspace fills any workspace field still unset from the nearest
// config.json. Settings whose workspace is already complete are left alone.
func (s *Settings) ResolveWorkspace(fs afero.Fs, startDir string) error {
	if s.Workspace.Complete() {
		return nil
	}
	path, err := FindWorkspaceConfig(fs, startDir)
	if err != nil {
		return err
	}
	ws, err := ReadWorkspaceConfig(fs, path)
	if err != nil {
		return err
	}
	logging.Info("Using workspace configuration from %s", path)

	merged := ws
	if s.Workspace.SubscriptionID != "" {
		merged.SubscriptionID = s.Workspace.SubscriptionID
	}
	if s.Workspace.ResourceGroup != "" {
		merged.ResourceGroup = s.Workspace.ResourceGroup
	}
	if s.Workspace.WorkspaceName != "" {
		merged.WorkspaceName = s.Workspace.WorkspaceName
	}
	s.Workspace = merged
	return nil
}
