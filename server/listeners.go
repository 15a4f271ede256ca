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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners. Each operator pipeline is driven by the orchestrator's
// trigger messages on its own topic; the listener hands every message to the
// pipeline and acks only when the pipeline runs clean.
//
// Functions:
//   - SetupListeners: Attaches each assembled pipeline to the listener of the
//     identically named topic subscription and starts it.
package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-insights/internal/cloud"
)

// SetupListeners configures and starts the background Pub/Sub listeners.
// Topic subscriptions in the configuration are keyed by pipeline name, so the
// wiring is a straight lookup: a pipeline with no configured subscription is
// HTTP-only, and a subscription with no pipeline is a configuration mistake
// worth logging.
//
// Inputs:
//   - config: The application's configuration, containing the subscription definitions.
//   - cloudClients: A struct containing all the initialized Google Cloud service clients.
//   - ctx: The application's root context, used to manage the lifecycle of the listeners.
//
// Outputs:
//   - This function does not return any value. It starts the listeners as background goroutines.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	for name := range config.TopicSubscriptions {
		listener, ok := cloudClients.PubSubListeners[name]
		if !ok {
			continue
		}
		pipeline, ok := state.pipelines[name]
		if !ok {
			slog.Warn("topic subscription has no matching operator pipeline", "subscription", name)
			continue
		}
		listener.SetCommand(pipeline)
		listener.Listen(ctx)
		slog.Info("operator listener started", "pipeline", name)
	}
}
