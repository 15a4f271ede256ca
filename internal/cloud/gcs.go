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
// This file implements the GCS-backed object store the operators and the
// dataplane use: sidecar JSON files and transcripts are read from the media
// bucket, and normalized metadata payloads are archived to the dataplane
// bucket.
package cloud

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GcsUri formats a bucket and object name as a gs:// URI.
func GcsUri(bucket string, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// GCSObjectStore wraps a storage client with the small read/write surface the
// operators need. Keeping the surface narrow lets tests substitute an
// in-memory implementation.
type GCSObjectStore struct {
	client *storage.Client
}

// NewGCSObjectStore creates an object store backed by the given client.
func NewGCSObjectStore(client *storage.Client) *GCSObjectStore {
	return &GCSObjectStore{client: client}
}

// Read returns the full contents of the object.
func (s *GCSObjectStore) Read(ctx context.Context, bucket string, object string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", GcsUri(bucket, object), err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GcsUri(bucket, object), err)
	}
	return data, nil
}

// ReadHead returns up to the first n bytes of the object. The media type
// sniffer only needs the magic-number prefix, so a ranged read avoids pulling
// whole video files.
func (s *GCSObjectStore) ReadHead(ctx context.Context, bucket string, object string, n int64) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewRangeReader(ctx, 0, n)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", GcsUri(bucket, object), err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GcsUri(bucket, object), err)
	}
	return data, nil
}

// Write stores data under the given bucket and object name and returns the
// resulting gs:// URI.
func (s *GCSObjectStore) Write(ctx context.Context, bucket string, object string, contentType string, data []byte) (string, error) {
	writer := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write %s: %w", GcsUri(bucket, object), err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", GcsUri(bucket, object), err)
	}
	return GcsUri(bucket, object), nil
}
