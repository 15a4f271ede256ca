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

// Package operators provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the media analysis
// operators. Every remote collaborator an operator touches is expressed as a
// small interface defined here and injected through the constructor, so each
// command can be exercised in tests with in-memory fakes and no cloud
// credentials.
package operators

import (
	"context"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// JobStatusPoller answers one page of status for an asynchronous analysis
// job. Implemented by the Video Intelligence and Speech wrappers.
type JobStatusPoller interface {
	Poll(ctx context.Context, query model.JobQuery) (*model.JobStatusPage, error)
}

// MetadataStore persists one page of normalized operator results.
// Implemented by the dataplane store.
type MetadataStore interface {
	StoreAssetMetadata(ctx context.Context, write *model.MetadataWrite) (*model.WriteResult, error)
}

// ObjectStore is the narrow read/write surface over bucket storage the
// operators use for sidecar files, transcripts, and header sniffing.
type ObjectStore interface {
	Read(ctx context.Context, bucket string, object string) ([]byte, error)
	ReadHead(ctx context.Context, bucket string, object string, n int64) ([]byte, error)
	Write(ctx context.Context, bucket string, object string, contentType string, data []byte) (string, error)
}

// VideoSubmitter starts an asynchronous video analysis job and returns its
// job ID.
type VideoSubmitter interface {
	SubmitVideo(ctx context.Context, gcsURI string) (string, error)
}

// ImageAnnotator analyzes a still image synchronously.
type ImageAnnotator interface {
	AnnotateImage(ctx context.Context, gcsURI string) (map[string]interface{}, error)
}

// ReportPublisher hands a finished operator report back to the orchestrator.
type ReportPublisher interface {
	Publish(ctx context.Context, report *model.OperatorReport) (string, error)
}

// TextGenerator produces a text completion for a prompt. Implemented by the
// quota-aware Gemini model adapter.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
