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
// file tests the trigger reader, the first command of every pipeline, and the
// report publisher, the last.
package operators_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/operators"
	"github.com/stretchr/testify/assert"
)

// TestTriggerReaderParsesRequest verifies that a well-formed trigger payload
// becomes a typed request on the output key.
func TestTriggerReaderParsesRequest(t *testing.T) {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, `{
		"Name": "transcription",
		"Status": "Executing",
		"AssetId": "asset-0001",
		"WorkflowExecutionId": "wf-exec-0001",
		"MetaData": {"TranscriptionJobId": "op-77"}
	}`)

	operators.NewTriggerReader("trigger-reader").Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	request, ok := chainCtx.Get(cor.CtxOut).(*model.OperatorRequest)
	assert.True(t, ok)
	assert.Equal(t, "transcription", request.OperatorName)
	assert.Equal(t, "op-77", request.Metadata("TranscriptionJobId"))
}

// TestTriggerReaderRejectsMalformedPayloads verifies that malformed JSON, a
// missing operator name, and a non-string input all record input validation
// errors and produce no request.
func TestTriggerReaderRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]interface{}{
		"not json":     `{not valid`,
		"missing name": `{"Status": "Queued"}`,
		"not a string": 42,
	}
	for label, payload := range cases {
		chainCtx := cor.NewBaseContext()
		chainCtx.SetContext(context.Background())
		chainCtx.Add(cor.CtxIn, payload)

		operators.NewTriggerReader("trigger-reader").Execute(chainCtx)

		assert.True(t, chainCtx.HasErrors(), label)
		assert.Nil(t, chainCtx.Get(cor.CtxOut), label)
		for _, err := range chainCtx.GetErrors() {
			assert.Equal(t, model.ErrKindInputValidation, model.KindOf(err), label)
		}
	}
}

// TestPublishReportDeliversReport verifies that the publisher receives the
// report and that it also flows to the output key for the HTTP path.
func TestPublishReportDeliversReport(t *testing.T) {
	publisher := &fakePublisher{}
	report := model.NewOperatorReport("labelDetection")
	report.UpdateStatus(model.StatusComplete)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, report)

	command := operators.NewPublishReport("publish-report", publisher)
	assert.True(t, command.IsExecutable(chainCtx))
	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(publisher.published))
	assert.Equal(t, report, publisher.published[0])
	assert.Equal(t, report, chainCtx.Get(cor.CtxOut))
}

// TestPublishReportFailureStillOutputsReport verifies that a publish failure
// records an error but leaves the report on the output key: the report is
// still the pipeline's answer.
func TestPublishReportFailureStillOutputsReport(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("topic gone")}
	report := model.NewOperatorReport("labelDetection")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, report)

	operators.NewPublishReport("publish-report", publisher).Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, report, chainCtx.Get(cor.CtxOut))
}

// TestPublishReportNotExecutableWithoutReport verifies the precondition: with
// no report on the input key there is nothing to publish.
func TestPublishReportNotExecutableWithoutReport(t *testing.T) {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "not a report")

	command := operators.NewPublishReport("publish-report", &fakePublisher{})
	assert.False(t, command.IsExecutable(chainCtx))
}
