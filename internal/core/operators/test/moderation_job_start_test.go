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

// Package operators_test contains unit tests for the operator commands. This
// file tests the content moderation start operator, which sniffs the media
// container from its leading bytes and splits into the asynchronous video
// path or the synchronous image path.
package operators_test

import (
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/operators"
	"github.com/stretchr/testify/assert"
)

// aviHeader is a minimal RIFF/AVI container header the magic-number matcher
// recognizes as video.
var aviHeader = []byte("RIFF\x24\x00\x00\x00AVI LIST")

// pngHeader is the PNG signature the matcher recognizes as an image.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

// startRequest builds a fresh moderation request for the given media key.
func startRequest(key string) *model.OperatorRequest {
	return &model.OperatorRequest{
		OperatorName:        testOperator,
		Status:              model.StatusQueued,
		AssetID:             "asset-0001",
		WorkflowExecutionID: "wf-exec-0001",
		Input: model.MediaInput{
			Video: &model.MediaObject{Bucket: "media", Key: key},
		},
	}
}

func newStartCommand(objects *fakeObjectStore, submitter *fakeSubmitter, annotator *fakeAnnotator, store *fakeStore) *operators.ModerationJobStart {
	return operators.NewModerationJobStart(
		"moderation-start", testOperator, testJobIDKey, objects, submitter, annotator, store)
}

// TestModerationStartSubmitsVideoJob verifies the asynchronous path: video
// bytes start a remote job, the job ID lands in the report metadata, the
// invocation reports Executing, and nothing is written yet.
func TestModerationStartSubmitsVideoJob(t *testing.T) {
	objects := newFakeObjectStore()
	objects.put("media", "clip.avi", aviHeader)
	submitter := &fakeSubmitter{jobID: "op-123"}
	annotator := &fakeAnnotator{}
	store := newFakeStore()
	chainCtx := newChainContext(startRequest("clip.avi"))

	newStartCommand(objects, submitter, annotator, store).Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, []string{"gs://media/clip.avi"}, submitter.submitted)
	assert.Equal(t, 0, len(annotator.annotated))
	assert.Equal(t, 0, len(store.writes))

	report := reportFrom(chainCtx)
	assert.Equal(t, model.StatusExecuting, report.Status)
	assert.Equal(t, "op-123", report.MetaData[testJobIDKey])
}

// TestModerationStartAnnotatesImageSynchronously verifies the synchronous
// path: image bytes are annotated in this invocation, the verdict is
// persisted as a single page, and the report goes straight to Complete.
func TestModerationStartAnnotatesImageSynchronously(t *testing.T) {
	objects := newFakeObjectStore()
	objects.put("media", "frame.png", pngHeader)
	submitter := &fakeSubmitter{}
	annotator := &fakeAnnotator{annotation: map[string]interface{}{"Adult": "VERY_UNLIKELY"}}
	store := newFakeStore()
	chainCtx := newChainContext(startRequest("frame.png"))

	newStartCommand(objects, submitter, annotator, store).Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(submitter.submitted))
	assert.Equal(t, []string{"gs://media/frame.png"}, annotator.annotated)

	assert.Equal(t, 1, len(store.writes))
	safeSearch, ok := store.writes[0].Payload["SafeSearch"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "VERY_UNLIKELY", safeSearch["Adult"])
	assert.False(t, store.writes[0].Paginate)

	assert.Equal(t, model.StatusComplete, reportFrom(chainCtx).Status)
}

// TestModerationStartRejectsUnsupportedBytes verifies that media that is
// neither a video container nor an image fails validation with no remote
// calls.
func TestModerationStartRejectsUnsupportedBytes(t *testing.T) {
	objects := newFakeObjectStore()
	objects.put("media", "notes.txt", []byte("just some text"))
	submitter := &fakeSubmitter{}
	annotator := &fakeAnnotator{}
	store := newFakeStore()
	chainCtx := newChainContext(startRequest("notes.txt"))

	newStartCommand(objects, submitter, annotator, store).Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(submitter.submitted))
	assert.Equal(t, 0, len(annotator.annotated))
	assert.Equal(t, model.StatusError, reportFrom(chainCtx).Status)
	for _, err := range chainCtx.GetErrors() {
		assert.Equal(t, model.ErrKindInputValidation, model.KindOf(err))
	}
}

// TestModerationStartHeaderReadFailure verifies that an unreadable media
// object surfaces as a remote service error.
func TestModerationStartHeaderReadFailure(t *testing.T) {
	objects := newFakeObjectStore()
	objects.readErr = errors.New("permission denied")
	chainCtx := newChainContext(startRequest("clip.avi"))

	newStartCommand(objects, &fakeSubmitter{}, &fakeAnnotator{}, newFakeStore()).Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, model.StatusError, reportFrom(chainCtx).Status)
	for _, err := range chainCtx.GetErrors() {
		assert.Equal(t, model.ErrKindRemoteService, model.KindOf(err))
	}
}

// TestModerationStartCompletedRequestShortCircuits verifies redelivery
// semantics for an already finished step.
func TestModerationStartCompletedRequestShortCircuits(t *testing.T) {
	objects := newFakeObjectStore()
	submitter := &fakeSubmitter{}
	request := startRequest("clip.avi")
	request.Status = model.StatusComplete
	chainCtx := newChainContext(request)

	newStartCommand(objects, submitter, &fakeAnnotator{}, newFakeStore()).Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(submitter.submitted))
	assert.Equal(t, model.StatusComplete, reportFrom(chainCtx).Status)
}

// TestModerationStartMissingMediaFails verifies the empty-envelope check.
func TestModerationStartMissingMediaFails(t *testing.T) {
	request := startRequest("clip.avi")
	request.Input = model.MediaInput{}
	chainCtx := newChainContext(request)

	newStartCommand(newFakeObjectStore(), &fakeSubmitter{}, &fakeAnnotator{}, newFakeStore()).Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, model.StatusError, reportFrom(chainCtx).Status)
}
