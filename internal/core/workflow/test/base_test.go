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

// Package workflow_test contains tests for the assembled operator pipelines.
// This file, `base_test.go`, provides the foundational setup for all tests
// within this package via the special `TestMain` function: configuration
// loading, logging, and the in-memory fakes every pipeline test builds its
// dependency bundle from. The pipelines run end to end here, from raw trigger
// JSON to published report, with only the cloud edges faked.
package workflow_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-media-insights/internal/cloud"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/workflow"
	"github.com/jaycherian/gcp-go-media-insights/internal/telemetry"
	test "github.com/jaycherian/gcp-go-media-insights/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

// Shared resources for the test suite, initialized once in TestMain.
var (
	ctx    context.Context
	config *cloud.Config
)

// Constants and global tracers/loggers for telemetry.
const tName = "cloud.google.com/media/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

// TestMain sets up the shared state for the pipeline tests: the root context,
// the test configuration, and structured logging.
//
// Inputs:
//   - m: A pointer to testing.M, which provides access to the test suite and allows
//     running the tests via m.Run().
func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from test-specific files (`.env.test.toml`).
	config = test.GetConfig()

	// Initialize structured logging.
	telemetry.SetupLogging()

	logger.Info("completed test setup")

	os.Exit(m.Run())
}

// The entity extraction prompt the test bundles use.
const testEntityPrompt = "Example: {{.Example}}\nTranscript: {{.Transcript}}"

// fakeDeps is the in-memory rendition of the production dependency bundle.
// Every collaborator records its calls so tests can assert on the pipeline's
// remote footprint.
type fakeDeps struct {
	objects   *fakeObjectStore
	store     *fakeStore
	publisher *fakePublisher
	poller    *fakePoller
	submitter *fakeSubmitter
	annotator *fakeAnnotator
	generator *fakeGenerator
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		objects:   newFakeObjectStore(),
		store:     &fakeStore{result: &model.WriteResult{Status: model.WriteStatusSuccess}},
		publisher: &fakePublisher{},
		poller:    &fakePoller{},
		submitter: &fakeSubmitter{jobID: "op-123"},
		annotator: &fakeAnnotator{annotation: map[string]interface{}{"Adult": "VERY_UNLIKELY"}},
		generator: &fakeGenerator{reply: `{"language_code": "en-US", "entities": []}`},
	}
}

// bundle converts the fakes into the workflow dependency bundle.
func (f *fakeDeps) bundle() workflow.Deps {
	return workflow.Deps{
		Objects:             f.objects,
		Store:               f.store,
		Publisher:           f.publisher,
		ModerationPoller:    f.poller,
		LabelPoller:         f.poller,
		TranscriptionPoller: f.poller,
		VideoSubmitter:      f.submitter,
		ImageAnnotator:      f.annotator,
		EntityGenerator:     f.generator,
		EntityOutputBucket:  "dataplane",
		EntityPrompt:        testEntityPrompt,
	}
}

// ---- In-memory fakes for the operator collaborator interfaces. ----

type fakePoller struct {
	pages   []*model.JobStatusPage
	err     error
	queries []model.JobQuery
}

func (f *fakePoller) Poll(_ context.Context, query model.JobQuery) (*model.JobStatusPage, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

type fakeStore struct {
	writes []*model.MetadataWrite
	result *model.WriteResult
	err    error
}

func (f *fakeStore) StoreAssetMetadata(_ context.Context, write *model.MetadataWrite) (*model.WriteResult, error) {
	f.writes = append(f.writes, write)
	if f.err != nil {
		return &model.WriteResult{Status: model.WriteStatusFailed}, f.err
	}
	return f.result, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) put(bucket string, object string, data []byte) {
	f.objects[bucket+"/"+object] = data
}

func (f *fakeObjectStore) Read(_ context.Context, bucket string, object string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("object not found: %s/%s", bucket, object)
	}
	return data, nil
}

func (f *fakeObjectStore) ReadHead(ctx context.Context, bucket string, object string, n int64) ([]byte, error) {
	data, err := f.Read(ctx, bucket, object)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > n {
		return data[:n], nil
	}
	return data, nil
}

func (f *fakeObjectStore) Write(_ context.Context, bucket string, object string, _ string, data []byte) (string, error) {
	f.objects[bucket+"/"+object] = data
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}

type fakeSubmitter struct {
	jobID     string
	submitted []string
}

func (f *fakeSubmitter) SubmitVideo(_ context.Context, gcsURI string) (string, error) {
	f.submitted = append(f.submitted, gcsURI)
	return f.jobID, nil
}

type fakeAnnotator struct {
	annotation map[string]interface{}
	annotated  []string
}

func (f *fakeAnnotator) AnnotateImage(_ context.Context, gcsURI string) (map[string]interface{}, error) {
	f.annotated = append(f.annotated, gcsURI)
	return f.annotation, nil
}

type fakePublisher struct {
	published []*model.OperatorReport
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, report *model.OperatorReport) (string, error) {
	f.published = append(f.published, report)
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakeGenerator struct {
	reply   string
	prompts []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, nil
}
