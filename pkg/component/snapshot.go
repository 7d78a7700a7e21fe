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

package component

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"aml-pipeline/pkg/logging"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/spf13/afero"
)

// DefaultIgnorePatterns are never part of a code snapshot.
var DefaultIgnorePatterns = []string{
	".git",
	".azureml",
	".venv",
	"**/.ipynb_checkpoints",
	"**/__pycache__",
	"**/*.pyc",
	"**/.DS_Store",
}

// ignoreFiles are consulted in order; the first one present wins.
var ignoreFiles = []string{".amlignore", ".gitignore"}

// ReadIgnorePatterns builds a matcher from defaultPatterns plus the patterns
// of the first ignore file found in dir.
func ReadIgnorePatterns(fsys afero.Fs, dir string, defaultPatterns []string) (*patternmatcher.PatternMatcher, error) {
	patterns := make([]string, len(defaultPatterns))
	copy(patterns, defaultPatterns)

	for _, name := range ignoreFiles {
		ignorePath := filepath.Join(dir, name)
		exists, err := afero.Exists(fsys, ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat ignore file %q: %w", ignorePath, err)
		}
		if !exists {
			continue
		}
		file, err := fsys.Open(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ignore file %q: %w", ignorePath, err)
		}
		filePatterns, err := ignorefile.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read ignore file %q: %w", ignorePath, err)
		}
		patterns = append(patterns, filePatterns...)
		logging.Debug("Found %d patterns in %s", len(filePatterns), ignorePath)
		break
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern matcher: %w", err)
	}
	return matcher, nil
}

// SnapshotFile is one file of a code snapshot.
type SnapshotFile struct {
	// Path is where the file is read from.
	Path string
	// Name is the slash-separated path of the file inside the snapshot.
	Name string
}

// Snapshot is the content of a component's local code: every file under the
// code directory not excluded by ignore files, in walk order.
type Snapshot struct {
	Dir    string
	Files  []SnapshotFile
	Digest string
}

// CodeSnapshot collects the component's local code. It returns nil when the
// component has no local code.
func (c *Component) CodeSnapshot(fsys afero.Fs) (*Snapshot, error) {
	dir, ok := c.LocalCodeDir()
	if !ok {
		return nil, nil
	}
	files, err := walkSnapshot(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read code snapshot of component %q: %w", c.Name, err)
	}

	h := sha256.New()
	for _, f := range files {
		if err := hashFile(h, fsys, f.Path, f.Name); err != nil {
			return nil, err
		}
	}
	logging.Debug("Code snapshot %s holds %d files", dir, len(files))
	return &Snapshot{Dir: dir, Files: files, Digest: hex.EncodeToString(h.Sum(nil))[:32]}, nil
}

// AnonymousVersion returns a deterministic version for registering the
// component without a user-chosen version: a digest of its definition, with
// the conda file inlined, and of its code snapshot.
func (c *Component) AnonymousVersion(fsys afero.Fs) (string, error) {
	spec, err := c.RegistrationSpec(fsys, "")
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to encode component %q: %w", c.Name, err)
	}
	h := sha256.New()
	h.Write(encoded)

	snap, err := c.CodeSnapshot(fsys)
	if err != nil {
		return "", err
	}
	if snap != nil {
		h.Write([]byte(snap.Digest))
	}
	return hex.EncodeToString(h.Sum(nil))[:32], nil
}

func walkSnapshot(fsys afero.Fs, sourceDir string) ([]SnapshotFile, error) {
	isDir, err := afero.IsDir(fsys, sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat code directory %q: %w", sourceDir, err)
	}
	if !isDir {
		// a single code file is its own snapshot
		return []SnapshotFile{{Path: sourceDir, Name: filepath.Base(sourceDir)}}, nil
	}

	matcher, err := ReadIgnorePatterns(fsys, sourceDir, DefaultIgnorePatterns)
	if err != nil {
		return nil, err
	}
	var files []SnapshotFile
	err = afero.Walk(fsys, sourceDir, func(path string, info fs.FileInfo, errFromWalk error) error {
		included, err := processSnapshotEntry(matcher, sourceDir, path, info, errFromWalk)
		if err != nil || !included {
			return err
		}
		relPath, _ := filepath.Rel(sourceDir, path)
		files = append(files, SnapshotFile{Path: path, Name: filepath.ToSlash(relPath)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// processSnapshotEntry reports whether path is a regular file that belongs in
// the snapshot. Ignored directories are skipped entirely.
func processSnapshotEntry(matcher *patternmatcher.PatternMatcher, sourceDir, path string, info fs.FileInfo, errFromWalk error) (bool, error) {
	if errFromWalk != nil {
		return false, errFromWalk
	}

	relPath, err := filepath.Rel(sourceDir, path)
	if err != nil {
		return false, fmt.Errorf("failed to get relative path for %q: %w", path, err)
	}
	if relPath == "." {
		return false, nil
	}

	// directories need a trailing slash for patterns like "foo/" to match
	relPathSlash := filepath.ToSlash(relPath)
	if info.IsDir() && !strings.HasSuffix(relPathSlash, "/") {
		relPathSlash += "/"
	}

	ignored, err := matcher.MatchesOrParentMatches(relPathSlash)
	if err != nil {
		return false, fmt.Errorf("failed to check ignore patterns for %q: %w", path, err)
	}
	if ignored {
		if info.IsDir() {
			logging.Debug("Ignoring directory %q", relPath)
			return false, filepath.SkipDir
		}
		logging.Debug("Ignoring file %q", relPath)
		return false, nil
	}
	return info.Mode().IsRegular(), nil
}

func hashFile(h hash.Hash, fsys afero.Fs, path, name string) error {
	file, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	fmt.Fprintf(h, "%s\x00", name)
	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("failed to read file %q: %w", path, err)
	}
	h.Write([]byte{0})
	return nil
}
