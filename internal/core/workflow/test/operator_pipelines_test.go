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
// This file runs the assembled chains end to end: raw trigger JSON in,
// published operator report out, with the cloud edges faked.
package workflow_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-media-insights/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// runPipeline seeds a chain context with raw trigger JSON, the way the
// Pub/Sub listener does, and executes the pipeline under a test span.
func runPipeline(t *testing.T, pipeline cor.Command, trigger string) cor.Context {
	traceContext, span := tracer.Start(ctx, t.Name())
	defer span.End()

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceContext)
	chainCtx.Add(cor.CtxIn, trigger)

	assert.True(t, pipeline.IsExecutable(chainCtx))
	pipeline.Execute(chainCtx)
	return chainCtx
}

// TestBuildAllRegistersEveryPipeline verifies the pipeline registry contains
// every operator under its documented name.
func TestBuildAllRegistersEveryPipeline(t *testing.T) {
	pipelines, err := workflow.BuildAll(config, newFakeDeps().bundle())

	assert.NoError(t, err)
	for _, name := range []string{
		workflow.PipelineModerationStart,
		workflow.PipelineModerationStatus,
		workflow.PipelineLabelStatus,
		workflow.PipelineTranscription,
		workflow.PipelineEntityDetection,
		workflow.PipelineGenericDataLookup,
	} {
		_, ok := pipelines[name]
		assert.True(t, ok, name)
	}
	assert.Equal(t, 6, len(pipelines))
}

// TestStatusCheckPipelineEndToEnd drives the moderation status-check pipeline
// from trigger JSON to a published Complete report: the trigger reader parses
// the payload, the poll drains one succeeded page into the store, and the
// publisher delivers the report.
func TestStatusCheckPipelineEndToEnd(t *testing.T) {
	deps := newFakeDeps()
	deps.poller.pages = []*model.JobStatusPage{{
		State:   model.JobStateSucceeded,
		Payload: map[string]interface{}{"Frames": []interface{}{}},
	}}
	pipeline := workflow.NewModerationStatusPipeline(config, deps.bundle())

	chainCtx := runPipeline(t, pipeline, test.GetTestStatusCheckTriggerText())

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(deps.poller.queries))
	assert.Equal(t, 1, len(deps.store.writes))
	assert.Equal(t, workflow.OperatorContentModeration, deps.store.writes[0].OperatorName)

	assert.Equal(t, 1, len(deps.publisher.published))
	report := deps.publisher.published[0]
	assert.Equal(t, model.StatusComplete, report.Status)
	assert.Equal(t, "asset-0001", report.MetaData[model.MetaKeyAssetID])

	// The published report is also the chain's final answer for the HTTP path.
	assert.Equal(t, report, chainCtx.Get(cor.CtxIn))
}

// TestPipelinePublishesErrorReport verifies the lenient chain wiring: when
// the operator command fails, the publisher still runs and delivers the Error
// report so the orchestrator is never left waiting.
func TestPipelinePublishesErrorReport(t *testing.T) {
	deps := newFakeDeps()
	pipeline := workflow.NewModerationStatusPipeline(config, deps.bundle())

	// A status-check trigger without the job ID metadata key.
	trigger := `{
		"Name": "contentModeration",
		"Status": "Executing",
		"AssetId": "asset-0001",
		"WorkflowExecutionId": "wf-exec-0001"
	}`
	chainCtx := runPipeline(t, pipeline, trigger)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(deps.poller.queries))
	assert.Equal(t, 1, len(deps.publisher.published))
	assert.Equal(t, model.StatusError, deps.publisher.published[0].Status)
	logger.Info("error report delivered", "metadata", deps.publisher.published[0].MetaData)
}

// TestModerationStartPipelineEndToEnd drives the start pipeline for a video
// trigger: the media header is sniffed, the remote job submitted, and an
// Executing report carrying the job ID is published.
func TestModerationStartPipelineEndToEnd(t *testing.T) {
	deps := newFakeDeps()
	deps.objects.put("media_test_resources", "test-trailer-001.mp4", []byte("RIFF\x24\x00\x00\x00AVI LIST"))
	pipeline := workflow.NewModerationStartPipeline(deps.bundle())

	chainCtx := runPipeline(t, pipeline, test.GetTestVideoStartTriggerText())

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, []string{"gs://media_test_resources/test-trailer-001.mp4"}, deps.submitter.submitted)

	assert.Equal(t, 1, len(deps.publisher.published))
	report := deps.publisher.published[0]
	assert.Equal(t, model.StatusExecuting, report.Status)
	assert.Equal(t, "op-123", report.MetaData[workflow.KeyContentModerationJobID])
}

// TestEntityDetectionPipelineEndToEnd drives the entity pipeline from a text
// trigger to a Complete report with the archived output URI.
func TestEntityDetectionPipelineEndToEnd(t *testing.T) {
	deps := newFakeDeps()
	deps.objects.put("media", "transcript.txt", []byte("Ada Lovelace in London."))
	pipeline, err := workflow.NewEntityDetectionPipeline(deps.bundle())
	assert.NoError(t, err)

	trigger := `{
		"Name": "entityDetection",
		"Status": "Queued",
		"AssetId": "asset-0001",
		"WorkflowExecutionId": "wf-exec-0001",
		"Input": {"Text": {"Bucket": "media", "Key": "transcript.txt"}}
	}`
	chainCtx := runPipeline(t, pipeline, trigger)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(deps.generator.prompts))
	assert.Contains(t, deps.generator.prompts[0], "Ada Lovelace in London.")

	report := deps.publisher.published[0]
	assert.Equal(t, model.StatusComplete, report.Status)
	assert.NotEmpty(t, report.MetaData["EntityOutputUri"])
}

// TestGenericDataLookupPipelineEndToEnd drives the sidecar lookup pipeline.
func TestGenericDataLookupPipelineEndToEnd(t *testing.T) {
	deps := newFakeDeps()
	deps.objects.put("media", "clip.json", []byte(`{"Genre": "Documentary"}`))
	pipeline := workflow.NewGenericDataLookupPipeline(deps.bundle())

	trigger := `{
		"Name": "genericDataLookup",
		"Status": "Queued",
		"AssetId": "asset-0001",
		"WorkflowExecutionId": "wf-exec-0001",
		"Input": {"Video": {"Bucket": "media", "Key": "clip.mp4"}}
	}`
	chainCtx := runPipeline(t, pipeline, trigger)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(deps.store.writes))
	assert.Equal(t, "Documentary", deps.store.writes[0].Payload["Genre"])
	assert.Equal(t, model.StatusComplete, deps.publisher.published[0].Status)
}

// TestMalformedTriggerStillFailsChain verifies that unparseable trigger JSON
// marks the chain failed so the listener does not ack the message; no report
// exists because there was never a request to report on.
func TestMalformedTriggerStillFailsChain(t *testing.T) {
	deps := newFakeDeps()
	pipeline := workflow.NewGenericDataLookupPipeline(deps.bundle())

	chainCtx := runPipeline(t, pipeline, `{broken`)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(deps.publisher.published))
}
