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

// Package cloud provides components for interacting with Google Cloud services.
// This file wraps the Video Intelligence API behind the submit/poll surface the
// asynchronous operators are built on.
//
// Logic Flow:
//  1. A start operator calls `SubmitVideo` with a gs:// URI. The wrapper kicks
//     off a long-running annotate operation for its configured feature and
//     returns the operation name as the job ID.
//  2. A status-check operator later calls `Poll` with that job ID. The wrapper
//     resumes the operation by name and maps its state onto the job states the
//     status adapter understands: still running, failed with a message, or
//     succeeded with a normalized result page.
//  3. The API returns the complete annotation in one response, so the wrapper
//     paginates client-side: results are flattened to a stable item list and
//     sliced by an integer offset carried in the continuation token. This
//     keeps large annotation sets within the dataplane's page-sized writes.
//
// Structs:
//   - VideoAnnotationService: The wrapper; one instance per feature (explicit
//     content moderation or label detection).
//
// Functions:
//   - NewVideoModerationService, NewVideoLabelService: Feature-bound constructors.
//   - SubmitVideo: Starts the annotate operation.
//   - Poll: Resumes the operation and returns one normalized result page.
package cloud

import (
	"context"
	"fmt"
	"strconv"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"golang.org/x/time/rate"
)

// VideoAnnotationService adapts one Video Intelligence feature to the
// submit/poll surface used by the asynchronous operators.
type VideoAnnotationService struct {
	client   *videointelligence.Client // The underlying Video Intelligence client.
	feature  videointelligencepb.Feature
	pageSize int           // Default number of items per result page.
	limiter  *rate.Limiter // Caps status polls against the operations API quota.
}

// NewVideoModerationService creates a wrapper bound to explicit content
// detection.
func NewVideoModerationService(client *videointelligence.Client, settings Operator) *VideoAnnotationService {
	return newVideoAnnotationService(client, videointelligencepb.Feature_EXPLICIT_CONTENT_DETECTION, settings)
}

// NewVideoLabelService creates a wrapper bound to label detection.
func NewVideoLabelService(client *videointelligence.Client, settings Operator) *VideoAnnotationService {
	return newVideoAnnotationService(client, videointelligencepb.Feature_LABEL_DETECTION, settings)
}

func newVideoAnnotationService(client *videointelligence.Client, feature videointelligencepb.Feature, settings Operator) *VideoAnnotationService {
	return &VideoAnnotationService{
		client:   client,
		feature:  feature,
		pageSize: settings.PageSize,
		limiter:  rate.NewLimiter(rate.Limit(settings.MaxPollsPerSecond), settings.MaxPollsPerSecond),
	}
}

// SubmitVideo starts a long-running annotate operation for the service's
// feature and returns the operation name, which callers carry as the job ID.
//
// Inputs:
//   - ctx: The context for the request.
//   - gcsURI: The gs:// URI of the video to annotate.
//
// Outputs:
//   - string: The operation name used to poll for results.
//   - error: An error if the operation could not be started.
func (s *VideoAnnotationService) SubmitVideo(ctx context.Context, gcsURI string) (string, error) {
	op, err := s.client.AnnotateVideo(ctx, &videointelligencepb.AnnotateVideoRequest{
		InputUri: gcsURI,
		Features: []videointelligencepb.Feature{s.feature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start video annotation for %s: %w", gcsURI, err)
	}
	return op.Name(), nil
}

// Poll resumes the annotate operation named by the query's job ID and returns
// one page of its current state.
//
// Outputs:
//   - *model.JobStatusPage: IN_PROGRESS while the operation runs, FAILED with
//     the service message when it errored, or SUCCEEDED with a page of
//     normalized items and a continuation token when more items remain.
//   - error: A transport-level error reaching the operations API.
func (s *VideoAnnotationService) Poll(ctx context.Context, query model.JobQuery) (*model.JobStatusPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	op := s.client.AnnotateVideoOperation(query.JobID)
	resp, err := op.Poll(ctx)
	if err != nil {
		if op.Done() {
			// The operation itself completed with an error: the job failed,
			// the poll did not.
			return &model.JobStatusPage{State: model.JobStateFailed, Message: err.Error()}, nil
		}
		return nil, fmt.Errorf("failed to poll operation %s: %w", query.JobID, err)
	}
	if !op.Done() {
		return &model.JobStatusPage{State: model.JobStateInProgress}, nil
	}

	items, payloadKey := s.normalize(resp)
	window, nextToken, err := paginateItems(items, query.NextToken, s.effectivePageSize(query))
	if err != nil {
		return nil, err
	}

	return &model.JobStatusPage{
		State:     model.JobStateSucceeded,
		Payload:   map[string]interface{}{payloadKey: window},
		NextToken: nextToken,
	}, nil
}

func (s *VideoAnnotationService) effectivePageSize(query model.JobQuery) int {
	if query.MaxResults > 0 {
		return query.MaxResults
	}
	return s.pageSize
}

// normalize flattens the annotation response into a stable, ordered item list
// plus the payload key the items are stored under.
func (s *VideoAnnotationService) normalize(resp *videointelligencepb.AnnotateVideoResponse) ([]map[string]interface{}, string) {
	if s.feature == videointelligencepb.Feature_EXPLICIT_CONTENT_DETECTION {
		return normalizeExplicitFrames(resp), "Frames"
	}
	return normalizeLabels(resp), "Labels"
}

func normalizeExplicitFrames(resp *videointelligencepb.AnnotateVideoResponse) []map[string]interface{} {
	items := make([]map[string]interface{}, 0)
	for _, result := range resp.GetAnnotationResults() {
		for _, frame := range result.GetExplicitAnnotation().GetFrames() {
			items = append(items, map[string]interface{}{
				"TimeOffsetSeconds": frame.GetTimeOffset().AsDuration().Seconds(),
				"Likelihood":        frame.GetPornographyLikelihood().String(),
			})
		}
	}
	return items
}

func normalizeLabels(resp *videointelligencepb.AnnotateVideoResponse) []map[string]interface{} {
	items := make([]map[string]interface{}, 0)
	for _, result := range resp.GetAnnotationResults() {
		// Segment labels describe the whole video, shot labels individual
		// shots. Both are useful downstream, so both are emitted.
		for _, annotation := range result.GetSegmentLabelAnnotations() {
			items = append(items, normalizeLabelAnnotation(annotation, "SEGMENT"))
		}
		for _, annotation := range result.GetShotLabelAnnotations() {
			items = append(items, normalizeLabelAnnotation(annotation, "SHOT"))
		}
	}
	return items
}

func normalizeLabelAnnotation(annotation *videointelligencepb.LabelAnnotation, scope string) map[string]interface{} {
	segments := make([]map[string]interface{}, 0, len(annotation.GetSegments()))
	for _, segment := range annotation.GetSegments() {
		segments = append(segments, map[string]interface{}{
			"StartSeconds": segment.GetSegment().GetStartTimeOffset().AsDuration().Seconds(),
			"EndSeconds":   segment.GetSegment().GetEndTimeOffset().AsDuration().Seconds(),
			"Confidence":   float64(segment.GetConfidence()),
		})
	}

	categories := make([]string, 0, len(annotation.GetCategoryEntities()))
	for _, category := range annotation.GetCategoryEntities() {
		categories = append(categories, category.GetDescription())
	}

	return map[string]interface{}{
		"Label":      annotation.GetEntity().GetDescription(),
		"Scope":      scope,
		"Categories": categories,
		"Segments":   segments,
	}
}

// paginateItems slices the item list by the integer offset carried in the
// continuation token. An empty token starts at the beginning; the returned
// token is empty on the final page.
func paginateItems(items []map[string]interface{}, token string, pageSize int) ([]map[string]interface{}, string, error) {
	offset := 0
	if token != "" {
		parsed, err := strconv.Atoi(token)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid continuation token %q", token)
		}
		offset = parsed
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if offset >= len(items) {
		return []map[string]interface{}{}, "", nil
	}

	end := offset + pageSize
	nextToken := ""
	if end >= len(items) {
		end = len(items)
	} else {
		nextToken = strconv.Itoa(end)
	}
	return items[offset:end], nextToken, nil
}
