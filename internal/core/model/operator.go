// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model defines the core data structures for the operator host.
// This file defines the two halves of the operator contract with the
// orchestrator:
//
//   - OperatorRequest is the status object the orchestrator passes in when it
//     invokes (or re-invokes) an operator. It carries the asset and workflow
//     identifiers, the media input reference, per-operator configuration, and
//     the metadata accumulated by earlier invocations (including remote job
//     IDs from the submitting operator).
//   - OperatorReport is the status object the operator returns. Operators
//     build it up incrementally: they stamp identifiers and job IDs into the
//     metadata map as they learn them, and update the workflow status exactly
//     once per invocation before returning.
//
// Both objects travel as JSON, either on the orchestrator's Pub/Sub topics or
// over the HTTP invocation endpoint.
package model

// MediaObject is a reference to a single object in the media bucket.
type MediaObject struct {
	Bucket   string `json:"Bucket"`             // The bucket holding the media file.
	Key      string `json:"Key"`                // The object key within the bucket.
	MIMEType string `json:"MIMEType,omitempty"` // Optional declared MIME type; operators that care sniff the bytes instead.
}

// MediaInput mirrors the orchestrator's media envelope. Exactly one of the
// slots is expected to be populated per workflow.
type MediaInput struct {
	Video *MediaObject `json:"Video,omitempty"`
	Audio *MediaObject `json:"Audio,omitempty"`
	Image *MediaObject `json:"Image,omitempty"`
	Text  *MediaObject `json:"Text,omitempty"`
}

// Object returns the populated media reference, or nil when the envelope is
// empty. The slot order matches the orchestrator's precedence rules.
func (m *MediaInput) Object() *MediaObject {
	if m == nil {
		return nil
	}
	for _, obj := range []*MediaObject{m.Video, m.Audio, m.Image, m.Text} {
		if obj != nil {
			return obj
		}
	}
	return nil
}

// OperatorRequest is the inbound status object for a single operator
// invocation.
type OperatorRequest struct {
	OperatorName        string            `json:"Name"`                    // The logical operator being invoked (e.g. "contentModeration").
	Status              WorkflowStatus    `json:"Status"`                  // The status from the previous invocation; Complete short-circuits.
	AssetID             string            `json:"AssetId"`                 // The dataplane asset this invocation operates on.
	WorkflowExecutionID string            `json:"WorkflowExecutionId"`     // The orchestrator execution that owns this step.
	Input               MediaInput        `json:"Input"`                   // The media object the workflow was started with.
	Configuration       map[string]string `json:"Configuration,omitempty"` // Per-operator configuration from the workflow definition.
	MetaData            map[string]string `json:"MetaData,omitempty"`      // Metadata accumulated by earlier invocations, including job IDs.
}

// Metadata returns the metadata value for key, or the empty string. Safe on a
// nil map.
func (r *OperatorRequest) Metadata(key string) string {
	if r.MetaData == nil {
		return ""
	}
	return r.MetaData[key]
}

// Config returns the configuration value for key, or the empty string. Safe on
// a nil map.
func (r *OperatorRequest) Config(key string) string {
	if r.Configuration == nil {
		return ""
	}
	return r.Configuration[key]
}

// OperatorReport is the outbound status object. It accumulates metadata as the
// operator works and carries the final workflow status for this invocation.
type OperatorReport struct {
	OperatorName string            `json:"OperatorName"`
	Status       WorkflowStatus    `json:"Status"`
	MetaData     map[string]string `json:"MetaData"`
}

// NewOperatorReport creates a report for the named operator in the Queued
// state with an empty metadata map.
func NewOperatorReport(operatorName string) *OperatorReport {
	return &OperatorReport{
		OperatorName: operatorName,
		Status:       StatusQueued,
		MetaData:     make(map[string]string),
	}
}

// UpdateStatus sets the workflow status the orchestrator will see.
func (o *OperatorReport) UpdateStatus(status WorkflowStatus) {
	o.Status = status
}

// AddMetadata records a metadata key for the orchestrator. Later values for
// the same key overwrite earlier ones, matching re-invocation semantics.
func (o *OperatorReport) AddMetadata(key string, value string) {
	if o.MetaData == nil {
		o.MetaData = make(map[string]string)
	}
	o.MetaData[key] = value
}

// CarryIdentifiers copies the asset and workflow identifiers from the request
// into the report metadata so the orchestrator can correlate the response
// without re-reading its own state.
func (o *OperatorReport) CarryIdentifiers(req *OperatorRequest) {
	if req.AssetID != "" {
		o.AddMetadata(MetaKeyAssetID, req.AssetID)
	}
	if req.WorkflowExecutionID != "" {
		o.AddMetadata(MetaKeyWorkflowExecutionID, req.WorkflowExecutionID)
	}
}

// Well-known metadata keys shared between operators and the orchestrator.
const (
	MetaKeyAssetID             = "AssetId"
	MetaKeyWorkflowExecutionID = "WorkflowExecutionId"
	MetaKeyError               = "OperatorError"
)
