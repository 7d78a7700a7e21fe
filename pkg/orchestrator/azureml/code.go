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
	"fmt"
	"net/http"
	"net/url"

	"aml-pipeline/pkg/component"
	"aml-pipeline/pkg/logging"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/spf13/afero"
)

// uploadCode publishes snap as an anonymous code asset named after its
// digest and returns the reference a component's code field takes. A
// snapshot the workspace already holds is not uploaded again.
func (c *Client) uploadCode(ctx context.Context, snap *component.Snapshot) (string, error) {
	name := snap.Digest
	id := c.codeVersionID(name, anonymousCodeVersion)
	ref := "azureml:" + id

	var existing resource[codeVersionProperties]
	err := c.do(ctx, "get code "+name, http.MethodGet, id, nil, &existing, http.StatusOK)
	switch {
	case err == nil && existing.Properties.CodeURI != "":
		logging.Debug("Code snapshot %s is already uploaded", name)
		return ref, nil
	case err != nil && !isNotFound(err):
		return "", err
	}

	var pending pendingUploadResponse
	op := "start upload of code " + name
	req := pendingUploadRequest{PendingUploadType: temporaryBlobReference}
	if err := c.do(ctx, op, http.MethodPost, id+"/startPendingUpload", req, &pending, http.StatusOK); err != nil {
		return "", err
	}
	target := pending.BlobReferenceForConsumption
	if target.BlobURI == "" || target.Credential.SASURI == "" {
		return "", fmt.Errorf("%s: no upload location returned", op)
	}

	logging.Info("Uploading %d files of %s...", len(snap.Files), snap.Dir)
	for _, f := range snap.Files {
		if err := c.uploadBlob(ctx, target.Credential.SASURI, f); err != nil {
			return "", err
		}
	}

	body := resource[codeVersionProperties]{
		Properties: codeVersionProperties{CodeURI: target.BlobURI, IsAnonymous: true},
	}
	if err := c.do(ctx, "register code "+name, http.MethodPut, id, body, nil, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}
	return ref, nil
}

// uploadBlob writes f below the folder sasURI grants access to.
func (c *Client) uploadBlob(ctx context.Context, sasURI string, f component.SnapshotFile) error {
	folder, err := url.Parse(sasURI)
	if err != nil {
		return fmt.Errorf("invalid upload location: %w", err)
	}
	content, err := afero.ReadFile(c.fs, f.Path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", f.Path, err)
	}

	client, err := blockblob.NewClientWithNoCredential(folder.JoinPath(f.Name).String(), &blockblob.ClientOptions{ClientOptions: c.storage})
	if err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	if _, err := client.UploadBuffer(ctx, content, nil); err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	logging.Debug("Uploaded %s (%d bytes)", f.Name, len(content))
	return nil
}
