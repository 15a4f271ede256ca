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

// Package model_test contains unit tests for the data models defined in the
// model package. This file tests the operator request/report shapes and the
// status vocabularies they are built on.
package model_test

import (
	"encoding/json"
	"testing"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// TestNewOperatorReport verifies the report constructor's initial state: the
// Queued status and an initialized metadata map.
func TestNewOperatorReport(t *testing.T) {
	report := model.NewOperatorReport("contentModeration")

	assert.Equal(t, "contentModeration", report.OperatorName)
	assert.Equal(t, model.StatusQueued, report.Status)
	assert.NotNil(t, report.MetaData)
	assert.Equal(t, 0, len(report.MetaData))
}

// TestCarryIdentifiers verifies that the asset and workflow identifiers from
// the request are copied into the report metadata, and that empty identifiers
// are not recorded at all.
func TestCarryIdentifiers(t *testing.T) {
	request := &model.OperatorRequest{
		AssetID:             "asset-0001",
		WorkflowExecutionID: "wf-exec-0001",
	}
	report := model.NewOperatorReport("transcription")
	report.CarryIdentifiers(request)

	assert.Equal(t, "asset-0001", report.MetaData[model.MetaKeyAssetID])
	assert.Equal(t, "wf-exec-0001", report.MetaData[model.MetaKeyWorkflowExecutionID])

	empty := model.NewOperatorReport("transcription")
	empty.CarryIdentifiers(&model.OperatorRequest{})
	_, hasAsset := empty.MetaData[model.MetaKeyAssetID]
	_, hasWorkflow := empty.MetaData[model.MetaKeyWorkflowExecutionID]
	assert.False(t, hasAsset)
	assert.False(t, hasWorkflow)
}

// TestAddMetadataOverwrites verifies re-invocation semantics: a later value
// for the same metadata key replaces the earlier one.
func TestAddMetadataOverwrites(t *testing.T) {
	report := model.NewOperatorReport("labelDetection")
	report.AddMetadata("LabelDetectionJobId", "job-1")
	report.AddMetadata("LabelDetectionJobId", "job-2")

	assert.Equal(t, "job-2", report.MetaData["LabelDetectionJobId"])
}

// TestRequestAccessorsSafeOnNilMaps verifies that the Metadata and Config
// accessors return empty strings instead of panicking when the underlying
// maps were never populated by the trigger JSON.
func TestRequestAccessorsSafeOnNilMaps(t *testing.T) {
	request := &model.OperatorRequest{}

	assert.Equal(t, "", request.Metadata("TranscriptionJobId"))
	assert.Equal(t, "", request.Config("Filename"))
}

// TestMediaInputObject verifies the slot precedence of the media envelope and
// that an empty envelope yields nil.
func TestMediaInputObject(t *testing.T) {
	video := &model.MediaObject{Bucket: "b", Key: "v.mp4"}
	image := &model.MediaObject{Bucket: "b", Key: "i.png"}

	input := &model.MediaInput{Video: video, Image: image}
	assert.Equal(t, video, input.Object())

	input = &model.MediaInput{Image: image}
	assert.Equal(t, image, input.Object())

	assert.Nil(t, (&model.MediaInput{}).Object())
	var nilInput *model.MediaInput
	assert.Nil(t, nilInput.Object())
}

// TestOperatorRequestUnmarshal verifies that the orchestrator's trigger JSON
// field names map onto the request struct.
func TestOperatorRequestUnmarshal(t *testing.T) {
	raw := `{
		"Name": "contentModeration",
		"Status": "Executing",
		"AssetId": "asset-0001",
		"WorkflowExecutionId": "wf-exec-0001",
		"MetaData": {"ContentModerationJobId": "op-123"},
		"Input": {"Video": {"Bucket": "media", "Key": "clip.mp4"}}
	}`

	request := &model.OperatorRequest{}
	err := json.Unmarshal([]byte(raw), request)

	assert.NoError(t, err)
	assert.Equal(t, "contentModeration", request.OperatorName)
	assert.Equal(t, model.StatusExecuting, request.Status)
	assert.Equal(t, "asset-0001", request.AssetID)
	assert.Equal(t, "wf-exec-0001", request.WorkflowExecutionID)
	assert.Equal(t, "op-123", request.Metadata("ContentModerationJobId"))
	assert.Equal(t, "clip.mp4", request.Input.Object().Key)
}

// TestWorkflowStatusTerminal verifies which statuses end an operator's
// lifecycle.
func TestWorkflowStatusTerminal(t *testing.T) {
	assert.True(t, model.StatusComplete.Terminal())
	assert.True(t, model.StatusError.Terminal())
	assert.False(t, model.StatusQueued.Terminal())
	assert.False(t, model.StatusExecuting.Terminal())
}

// TestJobStateHelpers verifies the normalized remote state vocabulary: the
// running set produces no writes, and both spellings of success are accepted.
func TestJobStateHelpers(t *testing.T) {
	assert.True(t, model.JobStateQueued.Running())
	assert.True(t, model.JobStateSubmitted.Running())
	assert.True(t, model.JobStateInProgress.Running())
	assert.False(t, model.JobStateSucceeded.Running())
	assert.False(t, model.JobStateFailed.Running())

	assert.True(t, model.JobStateSucceeded.Succeeded())
	assert.True(t, model.JobStateCompleted.Succeeded())
	assert.False(t, model.JobStateInProgress.Succeeded())
	assert.False(t, model.JobStateFailed.Succeeded())
}
