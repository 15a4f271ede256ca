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

// Package main contains the HTTP API for invoking operator pipelines directly.
// The primary trigger path is Pub/Sub; this API exists for integration
// testing, debugging a single operator against a live workflow, and manual
// backfills. The request body is the same trigger JSON the orchestrator
// publishes, and the response is the operator report the orchestrator would
// receive on the status topic.
//
// Functions:
//   - OperatorRouter: Registers the operator listing and invocation routes.
package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-media-insights/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-insights/internal/core/model"
)

// OperatorRouter sets up the API routes for operator pipelines.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the operator routes will be added. This
//     allows nesting routes under a common path prefix (e.g., "/api/v1").
//
// Outputs:
//   - This function does not return any values. It modifies the provided
//     *gin.RouterGroup by adding new route handlers.
//
// This function defines the following endpoints:
//   - GET /operators: Lists the names of the registered operator pipelines.
//   - POST /operators/:name: Runs the named pipeline synchronously against the
//     trigger JSON in the request body and returns the resulting report.
func OperatorRouter(r *gin.RouterGroup) {
	// Group all operator routes under the "/operators" path.
	ops := r.Group("/operators")
	{
		// Handler for GET /operators
		ops.GET("", func(c *gin.Context) {
			names := make([]string, 0, len(state.pipelines))
			for name := range state.pipelines {
				names = append(names, name)
			}
			sort.Strings(names)
			c.JSON(http.StatusOK, gin.H{"operators": names})
		})

		// Handler for POST /operators/:name
		ops.POST("/:name", func(c *gin.Context) {
			name := c.Param("name")
			pipeline, ok := state.pipelines[name]
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown operator"})
				return
			}

			// Read the raw trigger body. The pipeline's trigger reader does
			// the real parsing; here we only reject bodies that are not JSON
			// at all, so callers get a 400 instead of an error report.
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
				return
			}
			if !json.Valid(body) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid JSON"})
				return
			}

			// Seed a fresh chain context with the trigger payload and run the
			// pipeline synchronously, the same way the Pub/Sub listener does.
			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(c.Request.Context())
			chainCtx.Add(cor.CtxIn, string(body))
			pipeline.Execute(chainCtx)

			// The report publisher leaves the final report on the pipe key.
			report, ok := chainCtx.Get(cor.CtxIn).(*model.OperatorReport)
			if !ok {
				slog.Error("pipeline produced no report", "operator", name, "errors", chainCtx.GetErrors())
				c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline produced no report"})
				return
			}

			if report.Status == model.StatusError {
				c.JSON(http.StatusUnprocessableEntity, report)
				return
			}
			c.JSON(http.StatusOK, report)
		})
	}
}
