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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. Every operator pipeline has the
// same three-step shape: parse the trigger into a request, run the operator,
// publish the report. The chains run with ContinueOnFailure so the report
// publisher still answers the orchestrator when the operator step failed.
//
// Factories take a Deps bundle of the operator-facing interfaces rather than
// concrete clients, so tests assemble pipelines around in-memory fakes while
// the server wires them to real Google Cloud services via NewCloudDeps.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-media-insights/internal/cloud"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/dataplane"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/operators"
)

// Logical operator names reported to the orchestrator.
const (
	OperatorContentModeration = "contentModeration"
	OperatorLabelDetection    = "labelDetection"
	OperatorTranscription     = "transcription"
	OperatorEntityDetection   = "entityDetection"
	OperatorGenericDataLookup = "genericDataLookup"
)

// Pipeline registry names. Start and status-check stages of the same logical
// operator are separate pipelines with separate triggers.
const (
	PipelineModerationStart   = "contentModerationStart"
	PipelineModerationStatus  = "contentModeration"
	PipelineLabelStatus       = "labelDetection"
	PipelineTranscription     = "transcription"
	PipelineEntityDetection   = "entityDetection"
	PipelineGenericDataLookup = "genericDataLookup"
)

// EntityAgentModelName is the agent model configuration key the entity
// detection pipeline uses.
const EntityAgentModelName = "entity-extractor"

// Metadata keys carrying remote job IDs between the start and status-check
// stages.
const (
	KeyContentModerationJobID = "ContentModerationJobId"
	KeyLabelDetectionJobID    = "LabelDetectionJobId"
	KeyTranscriptionJobID     = "TranscriptionJobId"
)

// Deps bundles every interface the operator pipelines consume.
type Deps struct {
	Objects             operators.ObjectStore
	Store               operators.MetadataStore
	Publisher           operators.ReportPublisher
	ModerationPoller    operators.JobStatusPoller
	LabelPoller         operators.JobStatusPoller
	TranscriptionPoller operators.JobStatusPoller
	VideoSubmitter      operators.VideoSubmitter
	ImageAnnotator      operators.ImageAnnotator
	EntityGenerator     operators.TextGenerator
	EntityOutputBucket  string // Bucket raw entity model replies are archived to.
	EntityPrompt        string // Entity extraction prompt template text.
}

// NewCloudDeps builds the production dependency bundle from the initialized
// service clients. The dataplane store is assembled here: BigQuery inserter
// for rows, GCS for payload archives, and the IAM signer when a signer
// service account is configured.
func NewCloudDeps(config *cloud.Config, clients *cloud.ServiceClients) Deps {
	objects := cloud.NewGCSObjectStore(clients.StorageClient)

	var signer dataplane.URLSigner
	if config.Application.SignerServiceAccountEmail != "" {
		signer = dataplane.NewIAMURLSigner(clients.StorageClient, clients.IAMClient, config.Application.SignerServiceAccountEmail)
	}
	inserter := clients.BigQueryClient.
		Dataset(config.BigQueryDataSource.DatasetName).
		Table(config.BigQueryDataSource.MetadataTable).
		Inserter()
	store := dataplane.NewStore(inserter, objects, signer, config.Storage.DataplaneBucket, nil)

	var generator operators.TextGenerator
	if model, ok := clients.AgentModels[EntityAgentModelName]; ok {
		generator = cloud.NewAgentTextGenerator(EntityAgentModelName, model)
	}

	return Deps{
		Objects:             objects,
		Store:               store,
		Publisher:           cloud.NewStatusTopicPublisher(clients.PubsubClient, config.Application.StatusTopic),
		ModerationPoller:    cloud.NewVideoModerationService(clients.VideoClient, config.OperatorSettings(OperatorContentModeration)),
		LabelPoller:         cloud.NewVideoLabelService(clients.VideoClient, config.OperatorSettings(OperatorLabelDetection)),
		TranscriptionPoller: cloud.NewTranscriptionService(clients.SpeechClient, config.OperatorSettings(OperatorTranscription)),
		VideoSubmitter:      cloud.NewVideoModerationService(clients.VideoClient, config.OperatorSettings(OperatorContentModeration)),
		ImageAnnotator:      cloud.NewImageModerationService(clients.VisionClient),
		EntityGenerator:     generator,
		EntityOutputBucket:  config.Storage.DataplaneBucket,
		EntityPrompt:        config.PromptTemplates.EntityPrompt,
	}
}

// OperatorWorkflow is the common pipeline shape: trigger reader, operator
// command, report publisher.
type OperatorWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the pipeline by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (w *OperatorWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// newOperatorWorkflow assembles the three-step chain around the given
// operator command.
func newOperatorWorkflow(name string, operatorCommand cor.Command, publisher operators.ReportPublisher) *OperatorWorkflow {
	chain := cor.NewBaseChain(name).ContinueOnFailure(true)
	chain.AddCommand(operators.NewTriggerReader(fmt.Sprintf("%s-trigger-reader", name)))
	chain.AddCommand(operatorCommand)
	chain.AddCommand(operators.NewPublishReport(fmt.Sprintf("%s-publish-report", name), publisher))

	return &OperatorWorkflow{
		BaseCommand: *cor.NewBaseCommand(name),
		chain:       chain,
	}
}

// NewModerationStartPipeline builds the pipeline that begins content
// moderation: async job submission for videos, synchronous annotation for
// images.
func NewModerationStartPipeline(deps Deps) *OperatorWorkflow {
	start := operators.NewModerationJobStart(
		"moderation-job-start",
		OperatorContentModeration,
		KeyContentModerationJobID,
		deps.Objects,
		deps.VideoSubmitter,
		deps.ImageAnnotator,
		deps.Store,
	)
	return newOperatorWorkflow(PipelineModerationStart, start, deps.Publisher)
}

// NewModerationStatusPipeline builds the status-check pipeline for content
// moderation jobs.
func NewModerationStatusPipeline(config *cloud.Config, deps Deps) *OperatorWorkflow {
	poll := operators.NewJobStatusPoll(
		"moderation-status-check",
		OperatorContentModeration,
		KeyContentModerationJobID,
		config.OperatorSettings(OperatorContentModeration).PageSize,
		deps.ModerationPoller,
		deps.Store,
	)
	return newOperatorWorkflow(PipelineModerationStatus, poll, deps.Publisher)
}

// NewLabelStatusPipeline builds the status-check pipeline for label detection
// jobs.
func NewLabelStatusPipeline(config *cloud.Config, deps Deps) *OperatorWorkflow {
	poll := operators.NewJobStatusPoll(
		"label-status-check",
		OperatorLabelDetection,
		KeyLabelDetectionJobID,
		config.OperatorSettings(OperatorLabelDetection).PageSize,
		deps.LabelPoller,
		deps.Store,
	)
	return newOperatorWorkflow(PipelineLabelStatus, poll, deps.Publisher)
}

// NewTranscriptionStatusPipeline builds the status-check pipeline for
// transcription jobs.
func NewTranscriptionStatusPipeline(config *cloud.Config, deps Deps) *OperatorWorkflow {
	poll := operators.NewJobStatusPoll(
		"transcription-status-check",
		OperatorTranscription,
		KeyTranscriptionJobID,
		config.OperatorSettings(OperatorTranscription).PageSize,
		deps.TranscriptionPoller,
		deps.Store,
	)
	return newOperatorWorkflow(PipelineTranscription, poll, deps.Publisher)
}

// NewEntityDetectionPipeline builds the entity extraction pipeline. It fails
// fast when the prompt template does not parse, since the pipeline could
// never produce a valid prompt at runtime.
func NewEntityDetectionPipeline(deps Deps) (*OperatorWorkflow, error) {
	detect, err := operators.NewEntityDetection(
		"entity-detection",
		OperatorEntityDetection,
		deps.EntityPrompt,
		deps.EntityOutputBucket,
		deps.Objects,
		deps.EntityGenerator,
		deps.Store,
	)
	if err != nil {
		return nil, err
	}
	return newOperatorWorkflow(PipelineEntityDetection, detect, deps.Publisher), nil
}

// NewGenericDataLookupPipeline builds the sidecar metadata lookup pipeline.
func NewGenericDataLookupPipeline(deps Deps) *OperatorWorkflow {
	lookup := operators.NewGenericDataLookup(
		"generic-data-lookup",
		OperatorGenericDataLookup,
		deps.Objects,
		deps.Store,
	)
	return newOperatorWorkflow(PipelineGenericDataLookup, lookup, deps.Publisher)
}

// BuildAll assembles every operator pipeline, keyed by its registry name.
// The HTTP API and the Pub/Sub listener wiring both consume this map.
func BuildAll(config *cloud.Config, deps Deps) (map[string]cor.Command, error) {
	entity, err := NewEntityDetectionPipeline(deps)
	if err != nil {
		return nil, err
	}
	return map[string]cor.Command{
		PipelineModerationStart:   NewModerationStartPipeline(deps),
		PipelineModerationStatus:  NewModerationStatusPipeline(config, deps),
		PipelineLabelStatus:       NewLabelStatusPipeline(config, deps),
		PipelineTranscription:     NewTranscriptionStatusPipeline(config, deps),
		PipelineEntityDetection:   entity,
		PipelineGenericDataLookup: NewGenericDataLookupPipeline(deps),
	}, nil
}
