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

package azureml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"aml-pipeline/pkg/logging"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// streamedLogs are the log file prefixes printed while a job runs: the
// pipeline's own execution log and the user output of command steps.
var streamedLogs = []string{
	"logs/azureml/executionlogs.txt",
	"user_logs/std_log",
	"azureml-logs/70_driver_log",
}

// logStream prints what was appended to a run's log files since the last
// poll. A nil *logStream does nothing.
type logStream struct {
	c       *Client
	p       *printer
	details string
	offsets map[string]int
	message string
}

// openLogStream locates the run history of job name. It returns nil when
// the workspace does not expose it; status streaming works without logs.
func (c *Client) openLogStream(ctx context.Context, p *printer, name string) *logStream {
	history, err := c.historyEndpoint(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("Job logs are unavailable, only status changes will be shown: %v", err)
		}
		return nil
	}
	return &logStream{
		c:       c,
		p:       p,
		details: history + "/history/v1.0" + c.WorkspaceID() + "/runs/" + url.PathEscape(name) + "/details",
		offsets: make(map[string]int),
	}
}

// historyEndpoint asks the workspace's discovery service where run
// history is served.
func (c *Client) historyEndpoint(ctx context.Context) (string, error) {
	var ws resource[workspaceProperties]
	if err := c.do(ctx, "get workspace", http.MethodGet, c.WorkspaceID(), nil, &ws, http.StatusOK); err != nil {
		return "", err
	}
	if ws.Properties.DiscoveryURL == "" {
		return "", errors.New("workspace has no discovery url")
	}

	req, err := runtime.NewRequest(ctx, http.MethodGet, ws.Properties.DiscoveryURL)
	if err != nil {
		return "", fmt.Errorf("discover services: %w", err)
	}
	var services serviceEndpoints
	if err := send(c.plain, "discover services", req, nil, &services, http.StatusOK); err != nil {
		return "", err
	}
	if services.History == "" {
		return "", errors.New("workspace discovery lists no run history service")
	}
	return strings.TrimSuffix(services.History, "/"), nil
}

// poll prints new log content. Read failures are logged and retried on the
// next poll.
func (s *logStream) poll(ctx context.Context) {
	if s == nil {
		return
	}
	req, err := runtime.NewRequest(ctx, http.MethodGet, s.details)
	if err != nil {
		logging.Debug("Failed to build run details request: %v", err)
		return
	}
	var details runDetails
	if err := send(s.c.internal.Pipeline(), "get run details", req, nil, &details, http.StatusOK); err != nil {
		logging.Debug("Failed to read run details: %v", err)
		return
	}
	if details.Error != nil && details.Error.Error.Message != "" {
		s.message = details.Error.Error.Message
	}

	for _, name := range logNames(details.LogFiles) {
		if err := s.printNew(ctx, name, details.LogFiles[name]); err != nil {
			logging.Debug("Failed to read log %s: %v", name, err)
		}
	}
}

func (s *logStream) printNew(ctx context.Context, name, uri string) error {
	client, err := blob.NewClientWithNoCredential(uri, &blob.ClientOptions{ClientOptions: s.c.storage})
	if err != nil {
		return err
	}
	resp, err := client.DownloadStream(ctx, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	offset, seen := s.offsets[name]
	if !seen {
		s.p.logHeader(name)
		s.offsets[name] = 0
	}
	if len(content) <= offset {
		return nil
	}
	s.p.logContent(content[offset:])
	s.offsets[name] = len(content)
	return nil
}

// failure is the error message run history reported for the run, if any.
func (s *logStream) failure() string {
	if s == nil {
		return ""
	}
	return s.message
}

func logNames(files map[string]string) []string {
	var names []string
	for name := range files {
		for _, prefix := range streamedLogs {
			if strings.HasPrefix(name, prefix) {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}
