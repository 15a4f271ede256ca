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
// Responsibility (COR) pattern's Command interface. This file defines the
// content moderation start operator.
//
// Logic Flow:
// Moderation splits on media kind, and the declared MIME type on the trigger
// is not trusted: the operator reads the object's leading bytes and sniffs
// the real container with magic-number matching.
//
//  1. Video containers start an asynchronous Video Intelligence moderation
//     job. The job ID goes into the report metadata under the operator's job
//     ID key and the invocation reports Executing; the paired status-check
//     operator drains the results on later invocations.
//  2. Still images are annotated synchronously with Vision safe-search and
//     the result is persisted in this same invocation, reporting Complete.
//  3. Anything else (documents, audio, unrecognized bytes) is an input
//     validation error: there is nothing the moderation services could do
//     with it.
package operators

import (
	"fmt"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// sniffLength is how many leading bytes the magic-number matcher needs.
const sniffLength = 261

// ModerationJobStart is the command that begins content moderation for the
// workflow's media object.
type ModerationJobStart struct {
	cor.BaseCommand
	operatorName string
	jobIDKey     string // The metadata key the async job ID is recorded under.
	objects      ObjectStore
	submitter    VideoSubmitter
	annotator    ImageAnnotator
	store        MetadataStore
}

// NewModerationJobStart is the constructor for the ModerationJobStart command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - operatorName: The logical operator name used on reports and dataplane writes.
//   - jobIDKey: The metadata key to record the async job ID under.
//   - objects: The object store used to sniff the media header.
//   - submitter: The asynchronous video moderation service.
//   - annotator: The synchronous image moderation service.
//   - store: The metadata store image results are persisted to.
//
// Outputs:
//   - *ModerationJobStart: A pointer to the newly instantiated command.
func NewModerationJobStart(
	name string,
	operatorName string,
	jobIDKey string,
	objects ObjectStore,
	submitter VideoSubmitter,
	annotator ImageAnnotator,
	store MetadataStore,
) *ModerationJobStart {
	return &ModerationJobStart{
		BaseCommand:  *cor.NewBaseCommand(name),
		operatorName: operatorName,
		jobIDKey:     jobIDKey,
		objects:      objects,
		submitter:    submitter,
		annotator:    annotator,
		store:        store,
	}
}

// Execute starts moderation for the request on the input key and leaves an
// OperatorReport on the output key.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
func (s *ModerationJobStart) Execute(context cor.Context) {
	request, ok := context.Get(s.GetInputParam()).(*model.OperatorRequest)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), model.NewInputValidationError(s.operatorName, "input is not an operator request"))
		return
	}

	report := model.NewOperatorReport(s.operatorName)
	report.CarryIdentifiers(request)

	if request.Status == model.StatusComplete {
		report.UpdateStatus(model.StatusComplete)
		s.succeed(context, report)
		return
	}

	media := request.Input.Object()
	switch {
	case media == nil:
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request carries no media object"))
		return
	case request.AssetID == "" || request.WorkflowExecutionID == "":
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request is missing asset or workflow identifiers"))
		return
	}

	head, err := s.objects.ReadHead(context.GetContext(), media.Bucket, media.Key, sniffLength)
	if err != nil {
		s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "failed to read media header", err))
		return
	}

	switch {
	case filetype.IsVideo(head):
		jobID, err := s.submitter.SubmitVideo(context.GetContext(), gcsUri(media.Bucket, media.Key))
		if err != nil {
			s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "failed to submit moderation job", err))
			return
		}
		report.AddMetadata(s.jobIDKey, jobID)
		report.UpdateStatus(model.StatusExecuting)
		s.succeed(context, report)

	case filetype.IsImage(head):
		annotation, err := s.annotator.AnnotateImage(context.GetContext(), gcsUri(media.Bucket, media.Key))
		if err != nil {
			s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "failed to annotate image", err))
			return
		}
		if err := s.persistImageResult(context, request, annotation); err != nil {
			s.fail(context, report, err)
			return
		}
		report.UpdateStatus(model.StatusComplete)
		s.succeed(context, report)

	default:
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "media is neither a video container nor an image"))
	}
}

func (s *ModerationJobStart) persistImageResult(context cor.Context, request *model.OperatorRequest, annotation map[string]interface{}) error {
	result, err := s.store.StoreAssetMetadata(context.GetContext(), &model.MetadataWrite{
		AssetID:      request.AssetID,
		OperatorName: s.operatorName,
		WorkflowID:   request.WorkflowExecutionID,
		Payload:      map[string]interface{}{"SafeSearch": annotation},
	})
	if err != nil {
		return model.NewPersistenceError(s.operatorName, "metadata write failed", err)
	}
	if result == nil || result.Status != model.WriteStatusSuccess {
		return model.NewPersistenceError(s.operatorName, "metadata store did not confirm the write", nil)
	}
	return nil
}

func (s *ModerationJobStart) succeed(context cor.Context, report *model.OperatorReport) {
	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), report)
}

func (s *ModerationJobStart) fail(context cor.Context, report *model.OperatorReport, err error) {
	report.UpdateStatus(model.StatusError)
	report.AddMetadata(model.MetaKeyError, err.Error())
	s.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(s.GetName(), err)
	context.Add(s.GetOutputParam(), report)
}

// gcsUri formats a bucket and object key as a gs:// URI.
func gcsUri(bucket string, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}
