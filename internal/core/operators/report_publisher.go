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
// final command of every operator pipeline: publishing the operator report to
// the orchestrator's status topic.
//
// The pipelines run with ContinueOnFailure so this command executes even when
// the operator command failed: the orchestrator needs the Error report to
// drive its own state machine, exactly as it needs Complete and Executing.
package operators

import (
	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// PublishReport is a command that hands the finished OperatorReport back to
// the orchestrator.
type PublishReport struct {
	cor.BaseCommand
	publisher ReportPublisher
}

// NewPublishReport is the constructor for the PublishReport command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - publisher: The publisher bound to the orchestrator's status topic.
//
// Outputs:
//   - *PublishReport: A pointer to the newly instantiated command.
func NewPublishReport(name string, publisher ReportPublisher) *PublishReport {
	return &PublishReport{BaseCommand: *cor.NewBaseCommand(name), publisher: publisher}
}

// IsExecutable requires a report on the input key. When an upstream command
// failed before producing one there is nothing to publish.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
//
// Outputs:
//   - bool: True if an OperatorReport is present on the input key.
func (p *PublishReport) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(p.GetInputParam()).(*model.OperatorReport)
	return ok
}

// Execute publishes the report and passes it through to the output key so the
// HTTP invocation path can return it to the caller.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
func (p *PublishReport) Execute(context cor.Context) {
	report := context.Get(p.GetInputParam()).(*model.OperatorReport)

	if _, err := p.publisher.Publish(context.GetContext(), report); err != nil {
		p.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(p.GetName(), model.NewRemoteServiceError(report.OperatorName, "failed to publish report", err))
		// The report itself is still the pipeline's answer.
		context.Add(p.GetOutputParam(), report)
		return
	}

	p.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(p.GetOutputParam(), report)
}
