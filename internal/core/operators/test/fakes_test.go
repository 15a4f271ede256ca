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
// file provides the in-memory fakes for every collaborator interface the
// operators depend on, each one recording the calls it received so tests can
// assert on exactly what happened remotely.
package operators_test

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// newChainContext builds a chain context seeded with the given operator
// request on the piping input key, the way the trigger reader leaves it.
func newChainContext(request *model.OperatorRequest) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	if request != nil {
		chainCtx.Add(cor.CtxIn, request)
	}
	return chainCtx
}

// reportFrom extracts the operator report the command left on the piping
// output key, or nil.
func reportFrom(chainCtx cor.Context) *model.OperatorReport {
	report, _ := chainCtx.Get(cor.CtxOut).(*model.OperatorReport)
	return report
}

// fakePoller answers queued pages in order and records every query it saw.
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

// fakeStore records every metadata write and answers with a scripted result.
type fakeStore struct {
	writes []*model.MetadataWrite
	result *model.WriteResult
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{result: &model.WriteResult{Status: model.WriteStatusSuccess}}
}

func (f *fakeStore) StoreAssetMetadata(_ context.Context, write *model.MetadataWrite) (*model.WriteResult, error) {
	f.writes = append(f.writes, write)
	if f.err != nil {
		return &model.WriteResult{Status: model.WriteStatusFailed}, f.err
	}
	return f.result, nil
}

// fakeObjectStore serves objects from an in-memory map keyed by
// "bucket/object" and records writes back into the same map.
type fakeObjectStore struct {
	objects map[string][]byte
	readErr error
	written []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) put(bucket string, object string, data []byte) {
	f.objects[bucket+"/"+object] = data
}

func (f *fakeObjectStore) Read(_ context.Context, bucket string, object string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
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
	f.written = append(f.written, bucket+"/"+object)
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}

// fakeSubmitter answers a fixed job ID and records submitted URIs.
type fakeSubmitter struct {
	jobID     string
	err       error
	submitted []string
}

func (f *fakeSubmitter) SubmitVideo(_ context.Context, gcsURI string) (string, error) {
	f.submitted = append(f.submitted, gcsURI)
	if f.err != nil {
		return "", f.err
	}
	return f.jobID, nil
}

// fakeAnnotator answers a fixed safe-search verdict.
type fakeAnnotator struct {
	annotation map[string]interface{}
	err        error
	annotated  []string
}

func (f *fakeAnnotator) AnnotateImage(_ context.Context, gcsURI string) (map[string]interface{}, error) {
	f.annotated = append(f.annotated, gcsURI)
	if f.err != nil {
		return nil, f.err
	}
	return f.annotation, nil
}

// fakePublisher records published reports.
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

// fakeGenerator answers a fixed model reply and records prompts.
type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
