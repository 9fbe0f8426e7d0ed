// Copyright 2025 Poiesic Systems
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
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	// ProviderOpenAI selects any OpenAI-compatible endpoint (OpenAI, Ollama, vLLM, LocalAI).
	ProviderOpenAI = "openai"
	// ProviderGemini selects Google Gemini through the genai SDK.
	ProviderGemini = "gemini"
)

// DefaultTimeout bounds a single request to a model service.
const DefaultTimeout = 2 * time.Minute

// Config holds configuration for AI service providers.
type Config struct {
	// Provider selects the backend: ProviderOpenAI or ProviderGemini.
	Provider string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server.
	// Ignored by the Gemini provider.
	EmbeddingHost string

	// ReasoningHost is the base URL for the planning and report model.
	// Ignored by the Gemini provider.
	ReasoningHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small", "text-embedding-004"
	EmbeddingModel string

	// ReasoningModel is the model used to plan research and write reports.
	// Example: "qwen2.5:7b", "gpt-4o-mini", "gemini-2.0-flash"
	ReasoningModel string

	// APIKey authenticates against hosted providers.
	// Local OpenAI-compatible servers accept an empty key.
	APIKey string

	// Timeout bounds each HTTP request to the provider. Zero means no bound.
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithReasoningHost sets the reasoning service host URL.
func WithReasoningHost(host string) ConfigOption {
	return func(c *Config) {
		c.ReasoningHost = host
	}
}

// WithHost sets both embedding and reasoning hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ReasoningHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithReasoningModel sets the reasoning model identifier.
func WithReasoningModel(model string) ConfigOption {
	return func(c *Config) {
		c.ReasoningModel = model
	}
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTimeout bounds each HTTP request to the provider.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and reasoning use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Provider:       ProviderOpenAI,
		EmbeddingHost:  defaultHost,
		ReasoningHost:  defaultHost,
		EmbeddingModel: "embeddinggemma",
		ReasoningModel: "qwen2.5:7b",
		Timeout:        DefaultTimeout,
	}
}

// DefaultGeminiConfig returns a Config for Google Gemini. The API key must still be supplied.
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		EmbeddingModel: "text-embedding-004",
		ReasoningModel: "gemini-2.0-flash",
		Timeout:        DefaultTimeout,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// For the OpenAI provider it adds the /v1 suffix to hosts if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Provider != ProviderOpenAI {
		return
	}
	c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
	c.ReasoningHost = withV1Suffix(c.ReasoningHost)
}

func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
		}
		if c.ReasoningHost == "" {
			return fmt.Errorf("%w: ReasoningHost is required", ErrInvalidConfig)
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: %w: gemini provider needs GEMINI_API_KEY or GOOGLE_API_KEY", ErrInvalidConfig, ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownProvider, c.Provider)
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	if c.ReasoningModel == "" {
		return fmt.Errorf("%w: ReasoningModel is required", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: Timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// HTTPClient returns a client whose requests are bounded by Timeout.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.Timeout}
}
