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
// generic data lookup operator: the escape hatch for metadata that was
// computed outside the workflow entirely.
//
// Logic Flow:
// A sidecar JSON document rides next to the media object in the bucket. The
// operator reads it, verifies it decodes to a JSON object (the dataplane
// persists keyed documents, not bare arrays or scalars), and stores it as a
// single non-paginated page. The sidecar's key comes from the operator
// configuration's "Filename" entry, or defaults to the media key with its
// extension replaced by ".json".
package operators

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// ConfigKeyFilename is the operator configuration entry naming the sidecar
// object.
const ConfigKeyFilename = "Filename"

// GenericDataLookup is the command that stores a precomputed metadata sidecar.
type GenericDataLookup struct {
	cor.BaseCommand
	operatorName string
	objects      ObjectStore
	store        MetadataStore
}

// NewGenericDataLookup is the constructor for the GenericDataLookup command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - operatorName: The logical operator name used on reports and dataplane writes.
//   - objects: The object store the sidecar is read from.
//   - store: The metadata store the document is persisted to.
//
// Outputs:
//   - *GenericDataLookup: A pointer to the newly instantiated command.
func NewGenericDataLookup(name string, operatorName string, objects ObjectStore, store MetadataStore) *GenericDataLookup {
	return &GenericDataLookup{
		BaseCommand:  *cor.NewBaseCommand(name),
		operatorName: operatorName,
		objects:      objects,
		store:        store,
	}
}

// Execute reads the sidecar document for the request on the input key, stores
// it, and leaves an OperatorReport on the output key.
//
// Inputs:
//   - context: The shared `cor.Context` for this pipeline execution.
func (s *GenericDataLookup) Execute(context cor.Context) {
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

	sidecarKey := request.Config(ConfigKeyFilename)
	if sidecarKey == "" {
		sidecarKey = sidecarKeyFor(media.Key)
	}

	data, err := s.objects.Read(context.GetContext(), media.Bucket, sidecarKey)
	if err != nil {
		s.fail(context, report, model.NewRemoteServiceError(s.operatorName, "failed to read sidecar "+sidecarKey, err))
		return
	}

	document := map[string]interface{}{}
	if err := json.Unmarshal(data, &document); err != nil {
		s.fail(context, report, model.NewInputValidationError(s.operatorName, "sidecar "+sidecarKey+" must decode to a JSON object"))
		return
	}

	result, err := s.store.StoreAssetMetadata(context.GetContext(), &model.MetadataWrite{
		AssetID:      request.AssetID,
		OperatorName: s.operatorName,
		WorkflowID:   request.WorkflowExecutionID,
		Payload:      document,
	})
	if err != nil {
		s.fail(context, report, model.NewPersistenceError(s.operatorName, "metadata write failed", err))
		return
	}
	if result == nil || result.Status != model.WriteStatusSuccess {
		s.fail(context, report, model.NewPersistenceError(s.operatorName, "metadata store did not confirm the write", nil))
		return
	}

	report.UpdateStatus(model.StatusComplete)
	s.succeed(context, report)
}

func (s *GenericDataLookup) succeed(context cor.Context, report *model.OperatorReport) {
	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), report)
}

func (s *GenericDataLookup) fail(context cor.Context, report *model.OperatorReport, err error) {
	report.UpdateStatus(model.StatusError)
	report.AddMetadata(model.MetaKeyError, err.Error())
	s.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(s.GetName(), err)
	context.Add(s.GetOutputParam(), report)
}

// sidecarKeyFor swaps the media key's extension for ".json".
func sidecarKeyFor(mediaKey string) string {
	return strings.TrimSuffix(mediaKey, path.Ext(mediaKey)) + ".json"
}
