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
// This file wraps the Vision API's safe-search annotation. Unlike video
// moderation, image moderation is synchronous: the start operator calls
// AnnotateImage and persists the result in the same invocation instead of
// submitting a job and polling for it later.
package cloud

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"
)

// ImageModerationService annotates still images with safe-search likelihoods.
type ImageModerationService struct {
	client *vision.ImageAnnotatorClient
}

// NewImageModerationService creates a wrapper around the image annotator.
func NewImageModerationService(client *vision.ImageAnnotatorClient) *ImageModerationService {
	return &ImageModerationService{client: client}
}

// AnnotateImage runs safe-search detection on the image at the given gs://
// URI and returns the likelihood of each moderation category.
func (s *ImageModerationService) AnnotateImage(ctx context.Context, gcsURI string) (map[string]interface{}, error) {
	annotation, err := s.client.DetectSafeSearch(ctx, vision.NewImageFromURI(gcsURI), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate image %s: %w", gcsURI, err)
	}

	return map[string]interface{}{
		"Adult":    annotation.GetAdult().String(),
		"Spoof":    annotation.GetSpoof().String(),
		"Medical":  annotation.GetMedical().String(),
		"Violence": annotation.GetViolence().String(),
		"Racy":     annotation.GetRacy().String(),
	}, nil
}
