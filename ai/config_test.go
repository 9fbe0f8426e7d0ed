package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ReasoningHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:7b", cfg.ReasoningModel)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultTimeout, cfg.HTTPClient().Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultGeminiConfig(t *testing.T) {
	cfg := DefaultGeminiConfig()
	assert.Equal(t, ProviderGemini, cfg.Provider)

	// No key yet
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ReasoningHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithReasoningHost("http://reason:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://reason:9090/v1", cfg.ReasoningHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderGemini),
			WithEmbeddingModel("custom-embed"),
			WithReasoningModel("custom-reason"),
			WithAPIKey("k"),
		)

		assert.Equal(t, ProviderGemini, cfg.Provider)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-reason", cfg.ReasoningModel)
		assert.Equal(t, "k", cfg.APIKey)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name              string
		embeddingHost     string
		reasoningHost     string
		expectedEmbedding string
		expectedReasoning string
	}{
		{
			name:              "already has /v1",
			embeddingHost:     "http://localhost:11434/v1",
			reasoningHost:     "http://localhost:11434/v1",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedReasoning: "http://localhost:11434/v1",
		},
		{
			name:              "missing /v1",
			embeddingHost:     "http://localhost:11434",
			reasoningHost:     "http://localhost:11434",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedReasoning: "http://localhost:11434/v1",
		},
		{
			name:              "has trailing slash",
			embeddingHost:     "http://localhost:11434/",
			reasoningHost:     "http://localhost:11434/",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedReasoning: "http://localhost:11434/v1",
		},
		{
			name:              "empty hosts",
			embeddingHost:     "",
			reasoningHost:     "",
			expectedEmbedding: "",
			expectedReasoning: "",
		},
		{
			name:              "different formats",
			embeddingHost:     "http://embed:8080",
			reasoningHost:     "http://reason:9090/v1",
			expectedEmbedding: "http://embed:8080/v1",
			expectedReasoning: "http://reason:9090/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost: tt.embeddingHost,
				ReasoningHost: tt.reasoningHost,
			}

			cfg.Normalize()

			assert.Equal(t, ProviderOpenAI, cfg.Provider)
			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedReasoning, cfg.ReasoningHost)
		})
	}
}

func TestConfigNormalize_GeminiLeavesHostsAlone(t *testing.T) {
	cfg := &Config{Provider: " Gemini ", EmbeddingHost: "http://x"}
	cfg.Normalize()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "http://x", cfg.EmbeddingHost)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:  "http://localhost:11434",
			ReasoningHost:  "http://localhost:11434",
			EmbeddingModel: "embeddinggemma",
			ReasoningModel: "qwen2.5:7b",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ReasoningHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
		wantErr error
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost", ErrInvalidConfig},
		{"missing reasoning host", func(c *Config) { c.ReasoningHost = "" }, "ReasoningHost", ErrInvalidConfig},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel", ErrInvalidConfig},
		{"missing reasoning model", func(c *Config) { c.ReasoningModel = "" }, "ReasoningModel", ErrInvalidConfig},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, "anthropic", ErrUnknownProvider},
		{"gemini without key", func(c *Config) { c.Provider = ProviderGemini }, "GEMINI_API_KEY", ErrMissingAPIKey},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "Timeout", ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
