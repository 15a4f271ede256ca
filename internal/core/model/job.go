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
// This file defines the normalized wire shapes exchanged with the remote
// analysis services and the dataplane:
//
//   - JobQuery / JobStatusPage form the polling contract. Every remote
//     service wrapper, regardless of whether the underlying API paginates
//     natively, answers a JobQuery with one JobStatusPage and an optional
//     continuation token.
//   - MetadataWrite / WriteResult form the dataplane write contract, carrying
//     the paginate and end flags the dataplane uses to stitch multi-page
//     results back together.
//   - MetadataRecord is the BigQuery row the dataplane persists for each
//     page.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobQuery identifies one page of status for an asynchronous analysis job.
type JobQuery struct {
	JobID      string // The opaque job identifier returned at submission.
	MaxResults int    // Upper bound on result items per page; 0 means service default.
	NextToken  string // Continuation token from the previous page, empty for the first.
}

// JobStatusPage is one page of a job's status as reported by a remote
// service wrapper.
type JobStatusPage struct {
	State     JobState               // Normalized job state.
	Message   string                 // Failure detail when State is FAILED.
	Payload   map[string]interface{} // The page of analysis results when the job succeeded.
	NextToken string                 // Continuation token; empty on the final page.
}

// MetadataWrite is one dataplane write request: a single page of operator
// results for an asset.
type MetadataWrite struct {
	AssetID      string
	OperatorName string
	WorkflowID   string
	Payload      map[string]interface{}
	Page         int  // Zero-based page index within the result set.
	Paginate     bool // True when this write belongs to a multi-page result set.
	End          bool // True on the final page of a paginated set.
}

// WriteResult is the dataplane's answer to a metadata write. Callers must
// check the Status discriminator; a zero-value result means the dataplane
// returned an unrecognized shape and the write cannot be trusted.
type WriteResult struct {
	Status WriteStatus `json:"Status"`
}

// MetadataRecord is the BigQuery row persisted for each metadata page. The
// payload itself is archived as a JSON object in the dataplane bucket and the
// row carries its URI, keeping the table narrow while the raw analysis output
// can be arbitrarily large.
type MetadataRecord struct {
	ID           string    `bigquery:"id" json:"id"`
	AssetID      string    `bigquery:"asset_id" json:"asset_id"`
	OperatorName string    `bigquery:"operator_name" json:"operator_name"`
	WorkflowID   string    `bigquery:"workflow_id" json:"workflow_id"`
	PayloadURI   string    `bigquery:"payload_uri" json:"payload_uri"`
	SignedURL    string    `bigquery:"signed_url" json:"signed_url,omitempty"`
	Page         int       `bigquery:"page" json:"page"`
	Paginate     bool      `bigquery:"paginate" json:"paginate"`
	End          bool      `bigquery:"is_end" json:"is_end"`
	CreateDate   time.Time `bigquery:"create_date" json:"create_date"`
}

// NewMetadataRecord builds the row for one page of a metadata write. The row
// ID is a UUIDv5 hash of (asset, operator, workflow, page), so re-running the
// same page write produces the same row identity instead of a duplicate.
func NewMetadataRecord(write *MetadataWrite, payloadURI string) *MetadataRecord {
	name := fmt.Sprintf("%s/%s/%s/%d", write.AssetID, write.OperatorName, write.WorkflowID, write.Page)
	return &MetadataRecord{
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String(),
		AssetID:      write.AssetID,
		OperatorName: write.OperatorName,
		WorkflowID:   write.WorkflowID,
		PayloadURI:   payloadURI,
		Page:         write.Page,
		Paginate:     write.Paginate,
		End:          write.End,
		CreateDate:   time.Now(),
	}
}
