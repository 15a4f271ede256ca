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
// first command of every operator pipeline: parsing the orchestrator's raw
// trigger message into a typed OperatorRequest.
//
// Logic Flow:
//  1. The Pub/Sub listener (or the HTTP handler) seeds the chain context with
//     the raw JSON payload of the trigger message.
//  2. This command unmarshals the payload into a `model.OperatorRequest`.
//  3. Malformed JSON or a missing operator name is an input validation error,
//     recorded on the chain context so no downstream command runs against a
//     half-parsed request.
//  4. On success the request is placed on the output key for the operator
//     command that follows.
package operators

import (
	"encoding/json"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// TriggerReader is a command that parses a raw trigger payload into an
// OperatorRequest.
type TriggerReader struct {
	cor.BaseCommand
}

// NewTriggerReader is the constructor for the TriggerReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *TriggerReader: A pointer to the newly instantiated command.
func NewTriggerReader(name string) *TriggerReader {
	return &TriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the raw payload from the input key into an OperatorRequest.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
func (t *TriggerReader) Execute(context cor.Context) {
	raw, ok := context.Get(t.GetInputParam()).(string)
	if !ok {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), model.NewInputValidationError(t.GetName(), "trigger payload is not a string"))
		return
	}

	request := &model.OperatorRequest{}
	if err := json.Unmarshal([]byte(raw), request); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), model.NewInputValidationError(t.GetName(), "failed to parse trigger payload: "+err.Error()))
		return
	}
	if request.OperatorName == "" {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), model.NewInputValidationError(t.GetName(), "trigger payload is missing the operator name"))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), request)
}
