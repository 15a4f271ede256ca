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
// This file defines the entity-extraction result shapes produced by the
// entity detection operator, plus a canned example used for few-shot
// prompting of the generative model. Providing a complete example document in
// the prompt keeps the model's JSON output on-contract far more reliably than
// schema prose alone.
package model

// Entity is a single named entity found in a transcript.
type Entity struct {
	Text        string  `json:"text"`         // The surface form as it appears in the transcript.
	Type        string  `json:"type"`         // Entity class: PERSON, LOCATION, ORGANIZATION, EVENT, WORK_OF_ART, OTHER.
	Score       float64 `json:"score"`        // Model confidence in [0, 1].
	BeginOffset int     `json:"begin_offset"` // Byte offset of the first character within the transcript.
	EndOffset   int     `json:"end_offset"`   // Byte offset one past the last character.
}

// EntityResult is the payload the entity detection operator persists to the
// dataplane.
type EntityResult struct {
	LanguageCode string    `json:"language_code"`
	Entities     []*Entity `json:"entities"`
}

// GetExampleEntityResult returns a small, fully populated result document
// that the entity extraction prompt embeds as its output example.
func GetExampleEntityResult() *EntityResult {
	return &EntityResult{
		LanguageCode: "en-US",
		Entities: []*Entity{
			{Text: "Ada Lovelace", Type: "PERSON", Score: 0.97, BeginOffset: 12, EndOffset: 24},
			{Text: "London", Type: "LOCATION", Score: 0.92, BeginOffset: 41, EndOffset: 47},
			{Text: "Analytical Engine", Type: "WORK_OF_ART", Score: 0.88, BeginOffset: 63, EndOffset: 80},
		},
	}
}
