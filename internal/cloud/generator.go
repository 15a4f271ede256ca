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
// This file adapts the quota-aware generative model to the plain text-in,
// text-out surface the entity detection operator consumes, carrying the token
// and retry counters the generate helper reports into.
package cloud

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AgentTextGenerator wraps a QuotaAwareGenerativeAIModel as a simple prompt
// executor with token accounting.
type AgentTextGenerator struct {
	model              *QuotaAwareGenerativeAIModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewAgentTextGenerator creates a generator for the named agent, registering
// its token and retry counters under that name.
func NewAgentTextGenerator(name string, model *QuotaAwareGenerativeAIModel) *AgentTextGenerator {
	meter := otel.Meter(name)

	inputTokens, err := meter.Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	if err != nil {
		log.Printf("error creating input token counter for agent '%s': %v\n", name, err)
	}
	outputTokens, err := meter.Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	if err != nil {
		log.Printf("error creating output token counter for agent '%s': %v\n", name, err)
	}
	retries, err := meter.Int64Counter(fmt.Sprintf("%s.counter.retries", name))
	if err != nil {
		log.Printf("error creating retry counter for agent '%s': %v\n", name, err)
	}

	return &AgentTextGenerator{
		model:              model,
		inputTokenCounter:  inputTokens,
		outputTokenCounter: outputTokens,
		retryCounter:       retries,
	}
}

// GenerateText executes the prompt against the wrapped model and returns the
// reply text.
func (g *AgentTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return GenerateTextResponse(ctx, g.inputTokenCounter, g.outputTokenCounter, g.retryCounter, g.model, NewTextPart(prompt))
}
