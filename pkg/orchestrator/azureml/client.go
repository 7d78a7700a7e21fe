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

// Package azureml implements orchestrator.Platform on the Azure Machine
// Learning workspace REST API, using the azcore ARM pipeline for
// authentication, retries and telemetry.
package azureml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"aml-pipeline/pkg/config"
	"aml-pipeline/pkg/logging"
	"aml-pipeline/pkg/orchestrator"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/spf13/afero"
)

const (
	// APIVersion is the workspace API version requested on every call.
	APIVersion = "2024-04-01"

	moduleName    = "aml-pipeline/azureml"
	moduleVersion = "v1.0.0"

	anonymousComponentName = "azureml_anonymous"
)

var _ orchestrator.Platform = (*Client)(nil)

// ClientOptions configures a Client. The zero value talks to the public
// cloud and prints stream output to stdout.
type ClientOptions struct {
	arm.ClientOptions

	// PollInterval is the delay between two status reads while streaming.
	PollInterval time.Duration
	// Out receives the streamed job status.
	Out io.Writer
	// Fs is where component code snapshots are read from.
	Fs afero.Fs
}

// Client talks to one Azure ML workspace.
type Client struct {
	internal *arm.Client
	// plain sends unauthenticated requests, such as service discovery.
	plain runtime.Pipeline
	// storage configures the blob clients used for code upload and logs.
	storage azcore.ClientOptions

	workspace    config.Workspace
	pollInterval time.Duration
	out          io.Writer
	fs           afero.Fs
}

// NewClient opens a session on workspace authenticated by cred.
func NewClient(workspace config.Workspace, cred azcore.TokenCredential, options *ClientOptions) (*Client, error) {
	if !workspace.Complete() {
		return nil, &orchestrator.Error{
			Kind: orchestrator.ErrConfiguration,
			Op:   "open workspace",
			Err:  errors.New("subscription id, resource group and workspace name are all required"),
		}
	}
	if cred == nil {
		return nil, &orchestrator.Error{Kind: orchestrator.ErrAuthentication, Op: "open workspace", Err: errors.New("no credential")}
	}

	opts := ClientOptions{}
	if options != nil {
		opts = *options
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultPollInterval
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	internal, err := arm.NewClient(moduleName, moduleVersion, authCredential{cred}, &opts.ClientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client: %w", err)
	}
	logging.Debug("Using workspace %s on %s", workspace.WorkspaceName, internal.Endpoint())
	return &Client{
		internal:     internal,
		plain:        runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{}, &opts.ClientOptions.ClientOptions),
		storage:      opts.ClientOptions.ClientOptions,
		workspace:    workspace,
		pollInterval: opts.PollInterval,
		out:          opts.Out,
		fs:           opts.Fs,
	}, nil
}

// CloudConfig returns the public cloud with its resource manager endpoint
// replaced by endpoint. An empty endpoint returns the public cloud.
func CloudConfig(endpoint string) cloud.Configuration {
	if endpoint == "" {
		return cloud.AzurePublic
	}
	return cloud.Configuration{
		ActiveDirectoryAuthorityHost: cloud.AzurePublic.ActiveDirectoryAuthorityHost,
		Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
			cloud.ResourceManager: {
				Endpoint: endpoint,
				Audience: cloud.AzurePublic.Services[cloud.ResourceManager].Audience,
			},
		},
	}
}

// authCredential marks token failures as authentication errors.
type authCredential struct {
	azcore.TokenCredential
}

func (c authCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tk, err := c.TokenCredential.GetToken(ctx, opts)
	if err != nil {
		return tk, &orchestrator.Error{Kind: orchestrator.ErrAuthentication, Op: "acquire token", Err: err}
	}
	return tk, nil
}

// WorkspaceID is the ARM resource id of the workspace.
func (c *Client) WorkspaceID() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.MachineLearningServices/workspaces/%s",
		url.PathEscape(c.workspace.SubscriptionID),
		url.PathEscape(c.workspace.ResourceGroup),
		url.PathEscape(c.workspace.WorkspaceName))
}

func (c *Client) computeID(name string) string {
	return c.WorkspaceID() + "/computes/" + url.PathEscape(name)
}

func (c *Client) dataVersionID(name, version string) string {
	return c.WorkspaceID() + "/data/" + url.PathEscape(name) + "/versions/" + url.PathEscape(version)
}

func (c *Client) componentVersionID(version string) string {
	return c.WorkspaceID() + "/components/" + anonymousComponentName + "/versions/" + url.PathEscape(version)
}

func (c *Client) codeVersionID(name, version string) string {
	return c.WorkspaceID() + "/codes/" + url.PathEscape(name) + "/versions/" + url.PathEscape(version)
}

func (c *Client) jobID(name string) string {
	return c.WorkspaceID() + "/jobs/" + url.PathEscape(name)
}

// do sends one request to the resource at id and decodes the answer into
// into when it is not nil.
func (c *Client) do(ctx context.Context, op, method, id string, body, into interface{}, ok ...int) error {
	req, err := runtime.NewRequest(ctx, method, runtime.JoinPaths(c.internal.Endpoint(), id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	q := req.Raw().URL.Query()
	q.Set("api-version", APIVersion)
	req.Raw().URL.RawQuery = q.Encode()
	return send(c.internal.Pipeline(), op, req, body, into, ok...)
}

// send encodes body as JSON, sends req through pl and decodes the answer
// into into when it is not nil.
func send(pl runtime.Pipeline, op string, req *policy.Request, body, into interface{}, ok ...int) error {
	req.Raw().Header["Accept"] = []string{"application/json"}
	if body != nil {
		if err := runtime.MarshalAsJSON(req, body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	resp, err := pl.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !runtime.HasStatusCode(resp, ok...) {
		return classify(op, resp)
	}
	if into == nil {
		return nil
	}
	if err := runtime.UnmarshalAsJSON(resp, into); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// classify turns a failed response into an error. Missing resources are
// configuration errors, refused credentials authentication errors; the rest
// is left for the caller to classify.
func classify(op string, resp *http.Response) error {
	err := runtime.NewResponseError(resp)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return &orchestrator.Error{Kind: orchestrator.ErrConfiguration, Op: op, Err: err}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &orchestrator.Error{Kind: orchestrator.ErrAuthentication, Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
