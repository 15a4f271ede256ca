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
// This file wraps the Speech-to-Text API behind the same submit/poll surface
// the video annotation wrapper exposes, so the transcription operators reuse
// the generic status adapter unchanged.
package cloud

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
	"golang.org/x/time/rate"
)

// TranscriptionService adapts long-running speech recognition to the
// submit/poll surface used by the asynchronous operators.
type TranscriptionService struct {
	client   *speech.Client
	pageSize int
	limiter  *rate.Limiter
}

// NewTranscriptionService creates a wrapper around the Speech-to-Text client.
func NewTranscriptionService(client *speech.Client, settings Operator) *TranscriptionService {
	return &TranscriptionService{
		client:   client,
		pageSize: settings.PageSize,
		limiter:  rate.NewLimiter(rate.Limit(settings.MaxPollsPerSecond), settings.MaxPollsPerSecond),
	}
}

// SubmitAudio starts a long-running recognize operation for the audio at the
// given gs:// URI and returns the operation name as the job ID.
func (s *TranscriptionService) SubmitAudio(ctx context.Context, gcsURI string, languageCode string) (string, error) {
	if languageCode == "" {
		languageCode = "en-US"
	}
	op, err := s.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:          languageCode,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gcsURI},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start transcription for %s: %w", gcsURI, err)
	}
	return op.Name(), nil
}

// Poll resumes the recognize operation named by the query's job ID and
// returns one page of its current state. Result pagination follows the same
// offset-token scheme as the video wrapper.
func (s *TranscriptionService) Poll(ctx context.Context, query model.JobQuery) (*model.JobStatusPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	op := s.client.LongRunningRecognizeOperation(query.JobID)
	resp, err := op.Poll(ctx)
	if err != nil {
		if op.Done() {
			return &model.JobStatusPage{State: model.JobStateFailed, Message: err.Error()}, nil
		}
		return nil, fmt.Errorf("failed to poll operation %s: %w", query.JobID, err)
	}
	if !op.Done() {
		return &model.JobStatusPage{State: model.JobStateInProgress}, nil
	}

	items := normalizeRecognitionResults(resp)
	pageSize := s.pageSize
	if query.MaxResults > 0 {
		pageSize = query.MaxResults
	}
	window, nextToken, err := paginateItems(items, query.NextToken, pageSize)
	if err != nil {
		return nil, err
	}

	return &model.JobStatusPage{
		State:     model.JobStateSucceeded,
		Payload:   map[string]interface{}{"Results": window},
		NextToken: nextToken,
	}, nil
}

// normalizeRecognitionResults flattens the recognition response, keeping the
// top alternative of each result.
func normalizeRecognitionResults(resp *speechpb.LongRunningRecognizeResponse) []map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		items = append(items, map[string]interface{}{
			"Transcript":   alternatives[0].GetTranscript(),
			"Confidence":   float64(alternatives[0].GetConfidence()),
			"LanguageCode": result.GetLanguageCode(),
		})
	}
	return items
}
