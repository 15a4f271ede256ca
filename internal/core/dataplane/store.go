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

// Package dataplane implements the metadata persistence layer the operators
// write their normalized results to. Each write is one page of one operator's
// results for one asset.
//
// Logic Flow:
//  1. The payload is archived as a JSON object in the dataplane bucket under
//     `<asset>/<operator>/<workflow>/page-<n>.json`. The raw analysis output
//     can be arbitrarily large, so it lives in GCS rather than in the table.
//  2. When a URL signer is configured, a time-limited signed URL for the
//     archived object is generated so downstream consumers can fetch the
//     payload without GCS credentials. Signing failures degrade to an
//     unsigned row rather than failing the write.
//  3. A narrow row referencing the archived object is streamed into the
//     BigQuery metadata table. Row identity is derived from the page
//     coordinates, so redelivered trigger messages overwrite rather than
//     duplicate.
//
// Structs:
//   - Store: The dataplane write surface handed to the operators.
//
// Interfaces:
//   - RowPutter, ObjectWriter, URLSigner: The narrow seams the store is built
//     on, satisfied in production by the BigQuery inserter, the GCS object
//     store, and the IAM-backed signer.
package dataplane

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// SignedURLTTL is how long dataplane payload URLs stay valid.
const SignedURLTTL = 12 * time.Hour

// RowPutter streams rows into a table. *bigquery.Inserter satisfies this.
type RowPutter interface {
	Put(ctx context.Context, src any) error
}

// ObjectWriter archives a payload object and returns its URI.
type ObjectWriter interface {
	Write(ctx context.Context, bucket string, object string, contentType string, data []byte) (string, error)
}

// URLSigner produces a time-limited URL for a stored object.
type URLSigner interface {
	SignURL(ctx context.Context, bucket string, object string, expires time.Duration) (string, error)
}

// Store is the dataplane write surface. Operators treat it as a black box:
// they hand over one page of results and get back a write status.
type Store struct {
	rows    RowPutter
	objects ObjectWriter
	signer  URLSigner // Optional; nil disables signed URLs.
	bucket  string
	logger  *slog.Logger
}

// NewStore creates a dataplane store that archives payloads to the given
// bucket. Pass a nil signer to persist rows without signed URLs.
func NewStore(rows RowPutter, objects ObjectWriter, signer URLSigner, bucket string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		rows:    rows,
		objects: objects,
		signer:  signer,
		bucket:  bucket,
		logger:  logger,
	}
}

// StoreAssetMetadata persists one page of operator results. The returned
// WriteResult mirrors the dataplane wire contract: callers must check its
// Status discriminator rather than relying on the error alone.
func (s *Store) StoreAssetMetadata(ctx context.Context, write *model.MetadataWrite) (*model.WriteResult, error) {
	if write == nil || write.AssetID == "" || write.OperatorName == "" || write.WorkflowID == "" {
		return failed(), model.NewInputValidationError(writeOperator(write), "metadata write requires asset, operator, and workflow identifiers")
	}
	if write.Payload == nil {
		return failed(), model.NewInputValidationError(write.OperatorName, "metadata write requires a payload")
	}

	data, err := json.Marshal(write.Payload)
	if err != nil {
		return failed(), model.NewPersistenceError(write.OperatorName, "failed to serialize payload", err)
	}

	object := fmt.Sprintf("%s/%s/%s/page-%d.json", write.AssetID, write.OperatorName, write.WorkflowID, write.Page)
	uri, err := s.objects.Write(ctx, s.bucket, object, "application/json", data)
	if err != nil {
		return failed(), model.NewPersistenceError(write.OperatorName, "failed to archive payload", err)
	}

	record := model.NewMetadataRecord(write, uri)
	if s.signer != nil {
		signedURL, err := s.signer.SignURL(ctx, s.bucket, object, SignedURLTTL)
		if err != nil {
			// The archived object and the row remain usable without a signed
			// URL, so log and continue.
			s.logger.WarnContext(ctx, "failed to sign payload URL",
				slog.String("object", object), slog.String("error", err.Error()))
		} else {
			record.SignedURL = signedURL
		}
	}

	if err := s.rows.Put(ctx, record); err != nil {
		return failed(), model.NewPersistenceError(write.OperatorName, "failed to insert metadata row", err)
	}

	return &model.WriteResult{Status: model.WriteStatusSuccess}, nil
}

func failed() *model.WriteResult {
	return &model.WriteResult{Status: model.WriteStatusFailed}
}

func writeOperator(write *model.MetadataWrite) string {
	if write == nil {
		return "dataplane"
	}
	return write.OperatorName
}
