// Package config loads newsdesk settings from an optional YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables, then whatever the caller (usually CLI flags) sets afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"gopkg.in/yaml.v3"
)

// Search connectors selectable for the pipeline's Search stage.
const (
	SearchWeb    = "tavily"
	SearchNews   = "newsapi"
	SearchEvents = "gdelt"
)

// Config holds every newsdesk setting.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	AI         AIConfig         `yaml:"ai"`
	Connectors ConnectorsConfig `yaml:"connectors"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Workers    WorkersConfig    `yaml:"workers"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig locates the BadgerDB database.
type StorageConfig struct {
	DataDir    string `yaml:"data_dir"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// AIConfig mirrors ai.Config in YAML form.
type AIConfig struct {
	Provider        string `yaml:"provider"` // openai, gemini
	EmbeddingHost   string `yaml:"embedding_host"`
	ReasoningHost   string `yaml:"reasoning_host"`
	EmbeddingModel  string `yaml:"embedding_model"`
	ReasoningModel  string `yaml:"reasoning_model"`
	APIKey          string `yaml:"api_key"`
	CacheEmbeddings *bool  `yaml:"cache_embeddings"` // default true
	TimeoutSec      int    `yaml:"timeout_sec"`      // per request to the model service
}

// CacheEnabled reports whether embeddings are cached in the store.
func (a AIConfig) CacheEnabled() bool {
	return a.CacheEmbeddings == nil || *a.CacheEmbeddings
}

// ConnectorsConfig holds source credentials and the Search stage connector.
type ConnectorsConfig struct {
	NewsAPIKey      string   `yaml:"newsapi_key"`
	TavilyAPIKey    string   `yaml:"tavily_api_key"`
	SearchConnector string   `yaml:"search_connector"` // tavily, newsapi, gdelt
	Feeds           []string `yaml:"feeds"`
	TimeoutSec      int      `yaml:"timeout_sec"`
}

// RetrievalConfig holds the evidence window.
type RetrievalConfig struct {
	WindowDays int `yaml:"window_days"`
	TopK       int `yaml:"top_k"`
}

// PipelineConfig bounds research runs.
type PipelineConfig struct {
	StageTimeoutSec int `yaml:"stage_timeout_sec"`
}

// WorkersConfig sizes the shared worker pool. Zero picks a size from the CPU count.
type WorkersConfig struct {
	Size int `yaml:"size"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads path (if non-empty), applies the process environment and defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Connectors.NewsAPIKey, "NEWSAPI_KEY")
	str(&c.Connectors.TavilyAPIKey, "TAVILY_API_KEY")
	str(&c.Connectors.SearchConnector, "NEWSDESK_SEARCH_CONNECTOR")
	str(&c.Storage.DataDir, "NEWSDESK_DATA_DIR")
	str(&c.AI.Provider, "NEWSDESK_PROVIDER")
	str(&c.AI.EmbeddingModel, "NEWSDESK_EMBEDDING_MODEL")
	str(&c.AI.ReasoningModel, "NEWSDESK_REASONING_MODEL")
	str(&c.HTTP.Addr, "NEWSDESK_HTTP_ADDR")
	str(&c.Logging.Level, "NEWSDESK_LOG_LEVEL")

	var host string
	str(&host, "NEWSDESK_AI_HOST")
	if host != "" {
		c.AI.EmbeddingHost = host
		c.AI.ReasoningHost = host
	}

	if v, ok := lookup("NEWSDESK_FEEDS"); ok && strings.TrimSpace(v) != "" {
		c.Connectors.Feeds = splitList(v)
	}
	if v, ok := lookup("NEWSDESK_WORKERS"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Workers.Size = n
		}
	}

	c.applyKeyEnv(lookup)
}

// The credential variable depends on the provider in effect.
func (c *Config) applyKeyEnv(lookup func(string) (string, bool)) {
	keys := []string{"OPENAI_API_KEY"}
	if strings.EqualFold(strings.TrimSpace(c.AI.Provider), ai.ProviderGemini) {
		keys = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, k := range keys {
		if v, ok := lookup(k); ok && v != "" {
			c.AI.APIKey = v
			return
		}
	}
}

// UseProvider switches the AI provider after loading. Models, hosts and the
// credential are reset to that provider's defaults and environment.
func (c *Config) UseProvider(provider string, lookup func(string) (string, bool)) {
	if strings.EqualFold(strings.TrimSpace(provider), strings.TrimSpace(c.AI.Provider)) {
		return
	}
	c.AI = AIConfig{Provider: provider, CacheEmbeddings: c.AI.CacheEmbeddings, TimeoutSec: c.AI.TimeoutSec}
	c.applyKeyEnv(lookup)
	c.ApplyDefaults()
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = ai.ProviderOpenAI
	}

	var base *ai.Config
	if c.AI.Provider == ai.ProviderGemini {
		base = ai.DefaultGeminiConfig()
	} else {
		base = ai.DefaultConfig()
	}
	if c.AI.EmbeddingHost == "" {
		c.AI.EmbeddingHost = base.EmbeddingHost
	}
	if c.AI.ReasoningHost == "" {
		c.AI.ReasoningHost = base.ReasoningHost
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = base.EmbeddingModel
	}
	if c.AI.ReasoningModel == "" {
		c.AI.ReasoningModel = base.ReasoningModel
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = int(base.Timeout / time.Second)
	}

	if c.Storage.DataDir == "" && !c.Storage.InMemory {
		c.Storage.DataDir = "newsdesk_data"
	}
	c.Connectors.SearchConnector = strings.ToLower(strings.TrimSpace(c.Connectors.SearchConnector))
	if c.Connectors.SearchConnector == "" {
		c.Connectors.SearchConnector = SearchWeb
	}
	if c.Connectors.TimeoutSec <= 0 {
		c.Connectors.TimeoutSec = 30
	}
	if c.Pipeline.StageTimeoutSec <= 0 {
		c.Pipeline.StageTimeoutSec = 120
	}
	if c.Retrieval.WindowDays <= 0 {
		c.Retrieval.WindowDays = 30
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 8
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Ask runs a full pipeline and can take a while.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Connectors.SearchConnector {
	case SearchWeb, SearchNews, SearchEvents:
	default:
		return fmt.Errorf("%w: connectors.search_connector must be one of %s, %s, %s, got %q",
			ErrInvalidConfig, SearchWeb, SearchNews, SearchEvents, c.Connectors.SearchConnector)
	}
	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("%w: storage.data_dir is required", ErrInvalidConfig)
	}
	if c.Connectors.TimeoutSec <= 0 {
		return fmt.Errorf("%w: connectors.timeout_sec must be positive, got %d", ErrInvalidConfig, c.Connectors.TimeoutSec)
	}
	if c.AI.TimeoutSec <= 0 {
		return fmt.Errorf("%w: ai.timeout_sec must be positive, got %d", ErrInvalidConfig, c.AI.TimeoutSec)
	}
	if c.Pipeline.StageTimeoutSec <= 0 {
		return fmt.Errorf("%w: pipeline.stage_timeout_sec must be positive, got %d", ErrInvalidConfig, c.Pipeline.StageTimeoutSec)
	}
	if c.Workers.Size < 0 {
		return fmt.Errorf("%w: workers.size must not be negative, got %d", ErrInvalidConfig, c.Workers.Size)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q", ErrInvalidConfig, c.Logging.Level)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig builds the provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.AI.Provider),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithReasoningHost(c.AI.ReasoningHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithReasoningModel(c.AI.ReasoningModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTimeout(time.Duration(c.AI.TimeoutSec)*time.Second),
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
