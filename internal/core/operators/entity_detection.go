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
// entity detection operator, which extracts named entities from a workflow's
// transcript with a generative model.
//
// Logic Flow:
//  1. The transcript object is read from the bucket. Transcripts produced by
//     batch pipelines often arrive gzip-compressed, so the reader sniffs the
//     gzip magic bytes and decompresses transparently.
//  2. The prompt is rendered from a configurable template, embedding the
//     transcript and a fully populated example result document. The few-shot
//     example keeps the model's JSON on-contract far more reliably than
//     schema prose.
//  3. The rate-limited model generates the reply, which must parse as an
//     EntityResult. A reply that doesn't parse is a remote service error; the
//     model is a remote collaborator like any other.
//  4. The raw reply is archived next to the dataplane payloads and its URI
//     reported under the EntityOutputUri metadata key; the parsed result is
//     persisted as a single non-paginated page.
package operators

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// MetaKeyEntityOutputURI is the metadata key carrying the archived raw model
// reply.
const MetaKeyEntityOutputURI = "EntityOutputUri"

// entityPromptData is the template context for the entity extraction prompt.
type entityPromptData struct {
	Example    string // A marshaled example EntityResult document.
	Transcript string // The transcript text to analyze.
}

// EntityDetection is the command that extracts named entities from a
// transcript.
type EntityDetection struct {
	cor.BaseCommand
	operatorName string
	outputBucket string // Bucket the raw model reply is archived to.
	promptTmpl   *template.Template
	objects      ObjectStore
	generator    TextGenerator
	store        MetadataStore
}

// NewEntityDetection is the constructor for the EntityDetection command. The
// prompt template must reference `{{.Transcript}}` and may reference
// `{{.Example}}`.
//
// Inputs:
//   - name: A string name for this command instance.
//   - operatorName: The logical operator name used on reports and dataplane writes.
//   - promptTemplate: The entity extraction prompt template text.
//   - outputBucket: The bucket raw model replies are archived to.
//   - objects: The object store for transcript reads and reply archiving.
//   - generator: The rate-limited generative model.
//   - store: The metadata store results are persisted to.
//
// Outputs:
//   - *EntityDetection: A pointer to the newly instantiated command.
//   - error: An error if the prompt template does not parse.
func NewEntityDetection(
	name string,
	operatorName string,
	promptTemplate string,
	outputBucket string,
	objects ObjectStore,
	generator TextGenerator,
	store MetadataStore,
) (*EntityDetection, error) {
	tmpl, err := template.New(name).Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entity prompt template: %w", err)
	}
	return &EntityDetection{
		BaseCommand:  *cor.NewBaseCommand(name),
		operatorName: operatorName,
		outputBucket: outputBucket,
		promptTmpl:   tmpl,
		objects:      objects,
		generator:    generator,
		store:        store,
	}, nil
}

// Execute extracts entities for the request on the input key and leaves an
// OperatorReport on the output key.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
func (s *EntityDetection) Execute(context cor.Context) {
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
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request carries no transcript object"))
		return
	case request.AssetID == "" || request.WorkflowExecutionID == "":
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "request is missing asset or workflow identifiers"))
		return
	}

	transcript, err := s.readTranscript(context, media)
	if err != nil {
		s.fail(context, report, err)
		return
	}

	prompt, err := s.renderPrompt(transcript)
	if err != nil {
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "failed to render entity prompt: "+err.Error()))
		return
	}

	reply, err := s.generator.GenerateText(context.GetContext(), prompt)
	if err != nil {
		s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "entity extraction model call failed", err))
		return
	}

	result := &model.EntityResult{}
	if err := json.Unmarshal([]byte(reply), result); err != nil {
		s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "entity extraction reply is not valid JSON", err))
		return
	}

	outputObject := fmt.Sprintf("%s/%s/%s/entities.json", request.AssetID, s.operatorName, request.WorkflowExecutionID)
	outputURI, err := s.objects.Write(context.GetContext(), s.outputBucket, outputObject, "application/json", []byte(reply))
	if err != nil {
		s.fail(context, report, model.NewPersistenceError(s.operatorName, "failed to archive entity output", err))
		return
	}

	writeResult, err := s.store.StoreAssetMetadata(context.GetContext(), &model.MetadataWrite{
		AssetID:      request.AssetID,
		OperatorName: s.operatorName,
		WorkflowID:   request.WorkflowExecutionID,
		Payload: map[string]interface{}{
			"LanguageCode": result.LanguageCode,
			"Entities":     result.Entities,
		},
	})
	if err != nil {
		s.fail(context, report, model.NewPersistenceError(s.operatorName, "metadata write failed", err))
		return
	}
	if writeResult == nil || writeResult.Status != model.WriteStatusSuccess {
		s.fail(context, report, model.NewPersistenceError(s.operatorName, "metadata store did not confirm the write", nil))
		return
	}

	report.AddMetadata(MetaKeyEntityOutputURI, outputURI)
	report.UpdateStatus(model.StatusComplete)
	s.succeed(context, report)
}

// readTranscript loads the transcript object, decompressing when the payload
// carries the gzip magic bytes.
func (s *EntityDetection) readTranscript(context cor.Context, media *model.MediaObject) (string, error) {
	data, err := s.objects.Read(context.GetContext(), media.Bucket, media.Key)
	if err != nil {
		return "", model.NewRemoteServiceError(s.operatorName, "failed to read transcript "+media.Key, err)
	}

	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", model.NewInputValidationError(s.operatorName, "transcript "+media.Key+" has a corrupt gzip header")
		}
		defer func() { _ = reader.Close() }()
		data, err = io.ReadAll(reader)
		if err != nil {
			return "", model.NewInputValidationError(s.operatorName, "failed to decompress transcript "+media.Key)
		}
	}
	if len(data) == 0 {
		return "", model.NewInputValidationError(s.operatorName, "transcript "+media.Key+" is empty")
	}
	return string(data), nil
}

func (s *EntityDetection) renderPrompt(transcript string) (string, error) {
	example, err := json.Marshal(model.GetExampleEntityResult())
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = s.promptTmpl.Execute(&buf, entityPromptData{
		Example:    string(example),
		Transcript: transcript,
	})
	return buf.String(), err
}

func (s *EntityDetection) succeed(context cor.Context, report *model.OperatorReport) {
	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), report)
}

func (s *EntityDetection) fail(context cor.Context, report *model.OperatorReport, err error) {
	report.UpdateStatus(model.StatusError)
	report.AddMetadata(model.MetaKeyError, err.Error())
	s.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(s.GetName(), err)
	context.Add(s.GetOutputParam(), report)
}
