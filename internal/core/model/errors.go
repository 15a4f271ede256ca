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
// This file defines the operator error taxonomy. Every failure an operator
// can surface falls into one of four kinds, and the kind decides how the
// orchestrator reacts (re-validate input vs. retry the whole job vs. page an
// operator). Errors are plain values carried through the chain context; no
// operator uses panics for control flow.
package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an operator failure.
type ErrorKind string

const (
	// ErrKindInputValidation covers a missing or malformed field in the
	// inbound status object. No remote call was made.
	ErrKindInputValidation ErrorKind = "InputValidation"
	// ErrKindRemoteService covers a failure status or transport error from
	// the remote analysis service.
	ErrKindRemoteService ErrorKind = "RemoteService"
	// ErrKindPersistence covers a dataplane write that failed or returned an
	// unrecognized shape.
	ErrKindPersistence ErrorKind = "Persistence"
	// ErrKindUnknownStatus covers a remote status string outside the
	// normalized JobState vocabulary.
	ErrKindUnknownStatus ErrorKind = "UnknownStatus"
)

// OperatorError is the structured failure object surfaced by operators. It
// carries the operator name so the orchestrator can attribute the failure, a
// human-readable message, and the underlying cause when one exists.
type OperatorError struct {
	Kind     ErrorKind
	Operator string
	Message  string
	Cause    error
}

func (e *OperatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Operator, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Operator, e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *OperatorError) Unwrap() error {
	return e.Cause
}

// NewInputValidationError reports a missing or malformed input field.
func NewInputValidationError(operator string, message string) *OperatorError {
	return &OperatorError{Kind: ErrKindInputValidation, Operator: operator, Message: message}
}

// NewRemoteServiceError reports a remote service failure. cause may be nil
// when the service returned a failure status rather than a transport error.
func NewRemoteServiceError(operator string, message string, cause error) *OperatorError {
	return &OperatorError{Kind: ErrKindRemoteService, Operator: operator, Message: message, Cause: cause}
}

// NewPersistenceError reports a failed or malformed dataplane write.
func NewPersistenceError(operator string, message string, cause error) *OperatorError {
	return &OperatorError{Kind: ErrKindPersistence, Operator: operator, Message: message, Cause: cause}
}

// NewUnknownStatusError reports an unmapped remote status string.
func NewUnknownStatusError(operator string, status string) *OperatorError {
	return &OperatorError{
		Kind:     ErrKindUnknownStatus,
		Operator: operator,
		Message:  fmt.Sprintf("unable to determine job status from %q", status),
	}
}

// KindOf returns the error kind when err is (or wraps) an OperatorError, and
// the empty kind otherwise.
func KindOf(err error) ErrorKind {
	var opErr *OperatorError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}
