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
// This file defines the two status vocabularies the system deals with:
//
//   - WorkflowStatus is the status an operator reports back to the workflow
//     orchestrator. It is the state machine the orchestrator's step functions
//     drive on: Queued -> Executing -> {Complete, Error}.
//   - JobState is the status vocabulary of the remote analysis services.
//     Each service wrapper normalizes its native status strings into this set
//     before the polling adapter branches on them.
package model

// WorkflowStatus is the operator-level status reported to the orchestrator.
type WorkflowStatus string

const (
	// StatusQueued indicates the operator has been created but has not yet
	// contacted the remote service.
	StatusQueued WorkflowStatus = "Queued"
	// StatusExecuting indicates the remote analysis job is still running and
	// the orchestrator should re-invoke the operator later.
	StatusExecuting WorkflowStatus = "Executing"
	// StatusComplete indicates all results have been persisted to the dataplane.
	StatusComplete WorkflowStatus = "Complete"
	// StatusError indicates a terminal failure; details are carried in the
	// report metadata.
	StatusError WorkflowStatus = "Error"
)

// Terminal reports whether the status ends the operator's lifecycle. The
// orchestrator stops re-invoking an operator once it reaches a terminal state.
func (s WorkflowStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// JobState is the normalized status of an asynchronous analysis job as
// reported by a remote service. The constants cover the strings produced by
// the service wrappers in the cloud package; anything outside this set is
// treated as indeterminate by the polling adapter.
type JobState string

const (
	JobStateQueued     JobState = "QUEUED"
	JobStateSubmitted  JobState = "SUBMITTED"
	JobStateInProgress JobState = "IN_PROGRESS"
	JobStateSucceeded  JobState = "SUCCEEDED"
	JobStateCompleted  JobState = "COMPLETED"
	JobStateFailed     JobState = "FAILED"
)

// Running reports whether the job is still being worked on by the remote
// service. A running job produces no metadata writes.
func (s JobState) Running() bool {
	return s == JobStateQueued || s == JobStateSubmitted || s == JobStateInProgress
}

// Succeeded reports whether the job finished with results available. Both
// SUCCEEDED and COMPLETED are accepted because the remote services disagree on
// the spelling of success.
func (s JobState) Succeeded() bool {
	return s == JobStateSucceeded || s == JobStateCompleted
}

// WriteStatus is the discriminator returned by the dataplane for a metadata
// write. An empty value means the dataplane returned an unrecognized shape and
// callers must treat the write as failed.
type WriteStatus string

const (
	WriteStatusSuccess WriteStatus = "Success"
	WriteStatusFailed  WriteStatus = "Failed"
)
