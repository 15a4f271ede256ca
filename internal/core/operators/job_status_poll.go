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
// Responsibility (COR) pattern's Command interface. This file defines
// JobStatusPoll, the generic status-check adapter every asynchronous operator
// is a thin configuration of.
//
// Logic Flow:
// An asynchronous analysis job was submitted by an earlier invocation, which
// recorded the remote job ID in the request metadata. Each status-check
// invocation is one step of the operator state machine
// (Queued -> Executing -> Complete | Error):
//
//  1. A request already marked Complete short-circuits: no remote call, no
//     dataplane write, the prior result stands.
//  2. The asset and workflow identifiers and the job ID metadata key are
//     validated before anything remote happens; a missing value fails the
//     invocation without a poll.
//  3. The remote job is polled. A still-running job reports Executing and
//     writes nothing; the orchestrator re-invokes later. A failed job reports
//     Error carrying the remote failure message, and writes nothing.
//  4. A succeeded job drains its result pages in a poll loop: every page is
//     persisted through the metadata store exactly once, intermediate pages
//     flagged as paginated and non-final, the last page as final. Only after
//     the final page lands does the operator report Complete, so a crash
//     mid-drain re-runs against idempotent page writes rather than losing
//     data.
//  5. Any job state outside the known set is an unknown-status error: the
//     remote contract changed and silent success would be worse than failure.
//
// The store's result shape is verified on every write: a missing result or an
// unrecognized status discriminator is a persistence error even when the call
// itself returned no error.
package operators

import (
	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// JobStatusPoll is the generic asynchronous status-check command. Concrete
// operators (content moderation, label detection, transcription) differ only
// in their name, their job ID metadata key, and the poller they are wired to.
type JobStatusPoll struct {
	cor.BaseCommand
	operatorName string          // The logical operator name reported to the orchestrator.
	jobIDKey     string          // The metadata key carrying the remote job ID.
	maxResults   int             // Page size requested from the poller; 0 uses the service default.
	poller       JobStatusPoller // The remote service wrapper.
	store        MetadataStore   // The dataplane write surface.
}

// NewJobStatusPoll is the constructor for the JobStatusPoll command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - operatorName: The logical operator name used on reports and dataplane writes.
//   - jobIDKey: The request metadata key holding the remote job ID.
//   - maxResults: The page size to request per poll; 0 for the service default.
//   - poller: The remote service wrapper to poll.
//   - store: The metadata store results are persisted to.
//
// Outputs:
//   - *JobStatusPoll: A pointer to the newly instantiated command.
func NewJobStatusPoll(
	name string,
	operatorName string,
	jobIDKey string,
	maxResults int,
	poller JobStatusPoller,
	store MetadataStore,
) *JobStatusPoll {
	return &JobStatusPoll{
		BaseCommand:  *cor.NewBaseCommand(name),
		operatorName: operatorName,
		jobIDKey:     jobIDKey,
		maxResults:   maxResults,
		poller:       poller,
		store:        store,
	}
}

// Execute runs one status-check invocation against the request on the input
// key, and always leaves an OperatorReport on the output key, Error status
// included, so the report publisher downstream can answer the orchestrator.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
func (s *JobStatusPoll) Execute(context cor.Context) {
	request, ok := context.Get(s.GetInputParam()).(*model.OperatorRequest)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), model.NewInputValidationError(s.operatorName, "input is not an operator request"))
		return
	}

	report := model.NewOperatorReport(s.operatorName)
	report.CarryIdentifiers(request)

	// A completed operator stays completed. Re-delivered triggers for a
	// finished step must not re-poll or re-write.
	if request.Status == model.StatusComplete {
		report.UpdateStatus(model.StatusComplete)
		s.succeed(context, report)
		return
	}

	jobID := request.Metadata(s.jobIDKey)
	switch {
	case request.AssetID == "":
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request is missing "+model.MetaKeyAssetID))
		return
	case request.WorkflowExecutionID == "":
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request is missing "+model.MetaKeyWorkflowExecutionID))
		return
	case jobID == "":
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request is missing "+s.jobIDKey))
		return
	}
	report.AddMetadata(s.jobIDKey, jobID)

	token := ""
	page := 0
	for {
		statusPage, err := s.poller.Poll(context.GetContext(), model.JobQuery{
			JobID:      jobID,
			MaxResults: s.maxResults,
			NextToken:  token,
		})
		if err != nil {
			s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "failed to poll job "+jobID, err))
			return
		}

		switch {
		case statusPage.State.Running():
			// Still working remotely: report progress, write nothing, and let
			// the orchestrator re-invoke.
			report.UpdateStatus(model.StatusExecuting)
			s.succeed(context, report)
			return

		case statusPage.State == model.JobStateFailed:
			s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "job "+jobID+" failed: "+statusPage.Message, nil))
			return

		case statusPage.State.Succeeded():
			paginated := token != "" || statusPage.NextToken != ""
			final := statusPage.NextToken == ""
			if err := s.persistPage(context, request, statusPage, page, paginated, final); err != nil {
				s.fail(context, report, err)
				return
			}
			if final {
				report.UpdateStatus(model.StatusComplete)
				s.succeed(context, report)
				return
			}
			token = statusPage.NextToken
			page++

		default:
			s.fail(context, report, model.NewUnknownStatusError(s.operatorName, string(statusPage.State)))
			return
		}
	}
}

// persistPage writes one result page and verifies the dataplane's answer.
func (s *JobStatusPoll) persistPage(context cor.Context, request *model.OperatorRequest, statusPage *model.JobStatusPage, page int, paginated bool, final bool) error {
	result, err := s.store.StoreAssetMetadata(context.GetContext(), &model.MetadataWrite{
		AssetID:      request.AssetID,
		OperatorName: s.operatorName,
		WorkflowID:   request.WorkflowExecutionID,
		Payload:      statusPage.Payload,
		Page:         page,
		Paginate:     paginated,
		End:          paginated && final,
	})
	if err != nil {
		return model.NewPersistenceError(s.operatorName, "metadata write failed", err)
	}
	switch {
	case result == nil:
		return model.NewPersistenceError(s.operatorName, "metadata store returned no result", nil)
	case result.Status == model.WriteStatusFailed:
		return model.NewPersistenceError(s.operatorName, "metadata store reported a failed write", nil)
	case result.Status != model.WriteStatusSuccess:
		return model.NewPersistenceError(s.operatorName, "metadata store returned an unrecognized result shape", nil)
	}
	return nil
}

func (s *JobStatusPoll) succeed(context cor.Context, report *model.OperatorReport) {
	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), report)
}

// fail stamps the report with the Error status and the failure message, and
// records the error on the chain. The report still flows to the output key so
// the publisher can tell the orchestrator what went wrong.
func (s *JobStatusPoll) fail(context cor.Context, report *model.OperatorReport, err error) {
	report.UpdateStatus(model.StatusError)
	report.AddMetadata(model.MetaKeyError, err.Error())
	s.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(s.GetName(), err)
	context.Add(s.GetOutputParam(), report)
}
