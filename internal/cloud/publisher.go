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
// This file implements the Pub/Sub publisher the report publisher command uses
// to hand operator completion reports back to the workflow orchestrator.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// StatusTopicPublisher publishes operator reports to the status topic the
// orchestrator listens on.
type StatusTopicPublisher struct {
	topic *pubsub.Topic
}

// NewStatusTopicPublisher creates a publisher bound to the named topic.
func NewStatusTopicPublisher(client *pubsub.Client, topicName string) *StatusTopicPublisher {
	return &StatusTopicPublisher{topic: client.Topic(topicName)}
}

// Publish serializes the report as JSON, publishes it, and blocks until the
// service confirms delivery.
//
// Outputs:
//   - string: The server-assigned message ID.
//   - error: An error if serialization or publishing failed.
func (p *StatusTopicPublisher) Publish(ctx context.Context, report *model.OperatorReport) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report for %s: %w", report.OperatorName, err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish report for %s: %w", report.OperatorName, err)
	}
	return id, nil
}
