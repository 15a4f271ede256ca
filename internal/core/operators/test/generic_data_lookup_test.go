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
// file tests the generic data lookup operator, which stores a precomputed
// sidecar document from the media bucket.
package operators_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/operators"
	"github.com/stretchr/testify/assert"
)

// lookupRequest builds a request for a media object with an optional
// Filename configuration entry.
func lookupRequest(filename string) *model.OperatorRequest {
	request := &model.OperatorRequest{
		OperatorName:        "genericDataLookup",
		Status:              model.StatusQueued,
		AssetID:             "asset-0001",
		WorkflowExecutionID: "wf-exec-0001",
		Input: model.MediaInput{
			Video: &model.MediaObject{Bucket: "media", Key: "clip.mp4"},
		},
	}
	if filename != "" {
		request.Configuration = map[string]string{operators.ConfigKeyFilename: filename}
	}
	return request
}

// TestGenericDataLookupDefaultSidecarKey verifies that without a Filename
// configuration entry the sidecar key is derived from the media key by
// swapping its extension for ".json", and the document is stored as a single
// non-paginated page.
func TestGenericDataLookupDefaultSidecarKey(t *testing.T) {
	objects := newFakeObjectStore()
	objects.put("media", "clip.json", []byte(`{"Genre": "Documentary", "Year": 2024}`))
	store := newFakeStore()
	chainCtx := newChainContext(lookupRequest(""))

	operators.NewGenericDataLookup("data-lookup", "genericDataLookup", objects, store).Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(store.writes))
	assert.Equal(t, "Documentary", store.writes[0].Payload["Genre"])
	assert.False(t, store.writes[0].Paginate)
	assert.False(t, store.writes[0].End)
	assert.Equal(t, model.StatusComplete, reportFrom(chainCtx).Status)
}

// TestGenericDataLookupConfiguredFilename verifies that a configured Filename
// entry overrides the derived sidecar key.
func TestGenericDataLookupConfiguredFilename(t *testing.T) {
	objects := newFakeObjectStore()
	objects.put("media", "metadata/extra.json", []byte(`{"Rating": "PG"}`))
	store := newFakeStore()
	chainCtx := newChainContext(lookupRequest("metadata/extra.json"))

	operators.NewGenericDataLookup("data-lookup", "genericDataLookup", objects, store).Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(store.writes))
	assert.Equal(t, "PG", store.writes[0].Payload["Rating"])
}

// TestGenericDataLookupRejectsNonObjectSidecar verifies that a sidecar that
// decodes to something other than a JSON object is an input validation error
// with no write.
func TestGenericDataLookupRejectsNonObjectSidecar(t *testing.T) {
	for label, payload := range map[string]string{
		"array":  `[1, 2, 3]`,
		"scalar": `42`,
		"broken": `{broken`,
	} {
		objects := newFakeObjectStore()
		objects.put("media", "clip.json", []byte(payload))
		store := newFakeStore()
		chainCtx := newChainContext(lookupRequest(""))

		operators.NewGenericDataLookup("data-lookup", "genericDataLookup", objects, store).Execute(chainCtx)

		assert.True(t, chainCtx.HasErrors(), label)
		assert.Equal(t, 0, len(store.writes), label)
		assert.Equal(t, model.StatusError, reportFrom(chainCtx).Status, label)
	}
}

// TestGenericDataLookupMissingSidecarFails verifies that an absent sidecar
// surfaces as a remote service error.
func TestGenericDataLookupMissingSidecarFails(t *testing.T) {
	objects := newFakeObjectStore()
	store := newFakeStore()
	chainCtx := newChainContext(lookupRequest(""))

	operators.NewGenericDataLookup("data-lookup", "genericDataLookup", objects, store).Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, model.StatusError, reportFrom(chainCtx).Status)
	for _, err := range chainCtx.GetErrors() {
		assert.Equal(t, model.ErrKindRemoteService, model.KindOf(err))
	}
}
