// Copyright 2025 Atomforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/atomforge/atomforge/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// QualityChecker implements ai.QualityChecker using OpenAI-compatible chat APIs.
type QualityChecker struct {
	client    llms.Model
	threshold float64
	logger    *slog.Logger
}

// verdict is an internal type used for JSON unmarshaling.
type verdict struct {
	Accuracy    float64 `json:"accuracy"`
	Specificity float64 `json:"specificity"`
	Grounding   float64 `json:"grounding"`
	Reason      string  `json:"reason"`
}

// newQualityChecker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQualityChecker(config *ai.Config) (*QualityChecker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CheckerHost),
		openai.WithToken("none"),
		openai.WithModel(config.CheckerModel),
	)
	if err != nil {
		return nil, err
	}

	return &QualityChecker{
		client:    client,
		threshold: config.QualityThreshold,
		logger:    slog.Default().With("component", "openai-checker"),
	}, nil
}

// NewQualityChecker creates a new quality checker using the provided configuration.
//
// Returns ai.QualityChecker interface to enforce abstraction.
func NewQualityChecker(config *ai.Config) (ai.QualityChecker, error) {
	return newQualityChecker(config)
}

// CheckAtom scores one candidate atom and applies the configured threshold.
// The overall score is the mean of the per-criterion scores.
func (q *QualityChecker) CheckAtom(ctx context.Context, can ai.CandidateAtom) (ai.CheckResult, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildCheckPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Subject: " + can.Subject + "\n\n" + can.Content),
			},
		},
	}

	var result verdict
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := q.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			q.logger.Error("failed to check atom", "attempt", attempt+1, "err", err)
			return ai.CheckResult{}, err
		}

		if len(response.Choices) < 1 {
			q.logger.Debug("no choices returned from model")
			return ai.CheckResult{Pass: false, Reason: "empty checker response"}, nil
		}

		responseText := stripFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			q.logger.Warn("error parsing checker response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		q.logger.Error("failed to parse checker response after retries", "err", lastErr)
		return ai.CheckResult{}, lastErr
	}

	score := (result.Accuracy + result.Specificity + result.Grounding) / 3
	check := ai.CheckResult{
		Pass:  score >= q.threshold,
		Score: score,
		Breakdown: map[string]float64{
			"accuracy":    result.Accuracy,
			"specificity": result.Specificity,
			"grounding":   result.Grounding,
		},
	}
	if !check.Pass {
		check.Reason = result.Reason
		if check.Reason == "" {
			check.Reason = "score below threshold"
		}
	}

	q.logger.Debug("checked atom", "score", score, "pass", check.Pass)
	return check, nil
}
