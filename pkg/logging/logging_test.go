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

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetVerbose(false)

	SetVerbose(false)
	Debug("hidden %d", 1)
	Info("shown %d", 2)
	if strings.Contains(buf.String(), "hidden 1") {
		t.Errorf("debug message logged at INFO level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("info message missing: %q", buf.String())
	}

	buf.Reset()
	SetVerbose(true)
	Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug message missing at DEBUG level: %q", buf.String())
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	WithField("job", "abc").Info("submitted")
	if got := buf.String(); !strings.Contains(got, "job=abc") || !strings.Contains(got, "submitted") {
		t.Errorf("structured field missing: %q", got)
	}
}
