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

package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// GeneratorHost is the base URL for the atom-generation chat API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	GeneratorHost string

	// CheckerHost is the base URL for the quality-check chat API.
	CheckerHost string

	// EmbeddingHost is the base URL for the embedding service API.
	EmbeddingHost string

	// GeneratorModel is the model identifier for atom generation.
	// Example: "qwen2.5:7b", "gpt-4o-mini"
	GeneratorModel string

	// CheckerModel is the model identifier for quality checks.
	CheckerModel string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// QualityThreshold is the minimum quality score (0-100) a candidate atom
	// must reach to pass. Default: 70
	QualityThreshold float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets one host URL for all three services.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.GeneratorHost = host
		c.CheckerHost = host
		c.EmbeddingHost = host
	}
}

// WithGeneratorHost sets the generation service host URL.
func WithGeneratorHost(host string) ConfigOption {
	return func(c *Config) {
		c.GeneratorHost = host
	}
}

// WithCheckerHost sets the quality-check service host URL.
func WithCheckerHost(host string) ConfigOption {
	return func(c *Config) {
		c.CheckerHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGeneratorModel sets the generation model identifier.
func WithGeneratorModel(model string) ConfigOption {
	return func(c *Config) {
		c.GeneratorModel = model
	}
}

// WithCheckerModel sets the quality-check model identifier.
func WithCheckerModel(model string) ConfigOption {
	return func(c *Config) {
		c.CheckerModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithQualityThreshold sets the minimum passing quality score.
func WithQualityThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.QualityThreshold = threshold
	}
}

// DefaultConfig returns a config targeting a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		GeneratorHost:    "http://localhost:11434/v1",
		CheckerHost:      "http://localhost:11434/v1",
		EmbeddingHost:    "http://localhost:11434/v1",
		GeneratorModel:   "qwen2.5:7b",
		CheckerModel:     "qwen2.5:3b",
		EmbeddingModel:   "embeddinggemma",
		QualityThreshold: 70,
	}
}

// NewConfig creates a config from defaults plus options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.GeneratorHost = normalizeHost(c.GeneratorHost)
	c.CheckerHost = normalizeHost(c.CheckerHost)
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.GeneratorHost == "" {
		return errors.New("ai config: GeneratorHost is required")
	}
	if c.CheckerHost == "" {
		return errors.New("ai config: CheckerHost is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GeneratorModel == "" {
		return errors.New("ai config: GeneratorModel is required")
	}
	if c.CheckerModel == "" {
		return errors.New("ai config: CheckerModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 100 {
		return errors.New("ai config: QualityThreshold must be between 0 and 100")
	}
	return nil
}
