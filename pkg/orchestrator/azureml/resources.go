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

// resource is the ARM envelope around every workspace object.
type resource[T any] struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Properties T      `json:"properties"`
}

type computeProperties struct {
	ComputeType       string `json:"computeType"`
	ProvisioningState string `json:"provisioningState"`
}

type dataVersionProperties struct {
	DataType string `json:"dataType"`
	DataURI  string `json:"dataUri"`
}

type componentVersionProperties struct {
	ComponentSpec map[string]interface{} `json:"componentSpec"`
	IsAnonymous   bool                   `json:"isAnonymous"`
}

type codeVersionProperties struct {
	CodeURI     string `json:"codeUri,omitempty"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
}

type pendingUploadRequest struct {
	PendingUploadType string `json:"pendingUploadType"`
}

// pendingUploadResponse points at a temporary blob folder the caller may
// write to with the returned SAS.
type pendingUploadResponse struct {
	PendingUploadID             string        `json:"pendingUploadId"`
	BlobReferenceForConsumption blobReference `json:"blobReferenceForConsumption"`
}

type blobReference struct {
	BlobURI             string         `json:"blobUri"`
	StorageAccountArmID string         `json:"storageAccountArmId"`
	Credential          blobCredential `json:"credential"`
}

type blobCredential struct {
	CredentialType string `json:"credentialType"`
	SASURI         string `json:"sasUri"`
}

type workspaceProperties struct {
	DiscoveryURL string `json:"discoveryUrl"`
}

// serviceEndpoints is the answer of the workspace discovery URL.
type serviceEndpoints struct {
	History string `json:"history"`
}

// runDetails is what run history knows about a job's run.
type runDetails struct {
	RunID    string            `json:"runId"`
	Status   string            `json:"status"`
	LogFiles map[string]string `json:"logFiles"`
	Error    *runError         `json:"error"`
}

type runError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type jobProperties struct {
	JobType        string                 `json:"jobType"`
	DisplayName    string                 `json:"displayName,omitempty"`
	ExperimentName string                 `json:"experimentName,omitempty"`
	Status         string                 `json:"status,omitempty"`
	Tags           map[string]string      `json:"tags,omitempty"`
	Settings       map[string]interface{} `json:"settings,omitempty"`
	Inputs         map[string]jobInput    `json:"inputs,omitempty"`
	Outputs        map[string]jobOutput   `json:"outputs,omitempty"`
	Jobs           map[string]nodeJob     `json:"jobs,omitempty"`
	Services       map[string]jobService  `json:"services,omitempty"`
}

type jobInput struct {
	JobInputType string `json:"jobInputType"`
	URI          string `json:"uri"`
	Mode         string `json:"mode,omitempty"`
}

type jobOutput struct {
	JobOutputType string `json:"jobOutputType"`
	Mode          string `json:"mode,omitempty"`
}

// nodeJob is one step inside a pipeline job. Its keys are snake_case,
// unlike the rest of the resource.
type nodeJob struct {
	Type        string                `json:"type"`
	Name        string                `json:"name"`
	DisplayName string                `json:"display_name,omitempty"`
	ComponentID string                `json:"componentId"`
	Inputs      map[string]nodeInput  `json:"inputs,omitempty"`
	Outputs     map[string]nodeOutput `json:"outputs,omitempty"`
}

type nodeInput struct {
	JobInputType string `json:"job_input_type"`
	Value        string `json:"value"`
}

type nodeOutput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type jobService struct {
	Endpoint string `json:"endpoint,omitempty"`
}

const (
	pipelineJobType = "Pipeline"
	literalBinding  = "literal"
	studioService   = "Studio"
	readOnlyMount   = "ro_mount"
	readWriteMount  = "rw_mount"

	temporaryBlobReference = "TemporaryBlobReference"
	anonymousCodeVersion   = "1"
)
