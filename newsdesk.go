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

// Package newsdesk wires storage, AI providers, connectors and the research
// pipeline into a single handle.
package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/ai/embcache"
	"github.com/poiesic/newsdesk/ai/gemini"
	"github.com/poiesic/newsdesk/ai/openai"
	"github.com/poiesic/newsdesk/config"
	"github.com/poiesic/newsdesk/connectors"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/poiesic/newsdesk/orchestrator"
	"github.com/poiesic/newsdesk/reembed"
	"github.com/poiesic/newsdesk/retrieval"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/poiesic/newsdesk/workers"
)

// Newsdesk owns every long-lived component. It is safe for concurrent use.
type Newsdesk struct {
	cfg          *config.Config
	repos        *badger.Repositories
	provider     ai.AIProvider
	embedder     ai.Embedder
	pipeline     *ingestion.Pipeline
	news         *connectors.NewsAPI
	events       *connectors.GDELT
	feeds        *connectors.Feed
	web          *connectors.WebSearch
	quotes       *connectors.MarketQuote
	retriever    *retrieval.Retriever
	orchestrator *orchestrator.Orchestrator
	pool         *workers.Pool
	logger       *slog.Logger
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	provider      ai.AIProvider
	logger        *slog.Logger
	connectorOpts []connectors.Option
}

// WithProvider uses provider instead of building one from the configuration.
// The Newsdesk takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *openOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConnectorOptions appends options applied to every connector.
func WithConnectorOptions(opts ...connectors.Option) Option {
	return func(o *openOptions) {
		o.connectorOpts = append(o.connectorOpts, opts...)
	}
}

// Open fills unset fields of cfg with defaults, validates it and builds a Newsdesk on it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Newsdesk, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &openOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger

	repos, err := badger.Open(cfg.Storage.DataDir, cfg.Storage.InMemory,
		badger.WithBackendLogger(logger.With("component", "badger")),
		badger.WithSyncWrites(cfg.Storage.SyncWrites))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := o.provider
	if provider == nil {
		provider, err = newProvider(ctx, cfg.AIConfig(), logger)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	nd, err := assemble(cfg, repos, provider, logger, o.connectorOpts)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}
	return nd, nil
}

func newProvider(ctx context.Context, cfg *ai.Config, logger *slog.Logger) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderGemini:
		return gemini.NewProvider(ctx, cfg,
			gemini.WithHTTPClient(cfg.HTTPClient()),
			gemini.WithLogger(logger.With("component", "gemini-provider")))
	default:
		return openai.NewProvider(cfg)
	}
}

func assemble(cfg *config.Config, repos *badger.Repositories, provider ai.AIProvider, logger *slog.Logger, extra []connectors.Option) (*Newsdesk, error) {
	embedder := provider.Embedder()
	if cfg.AI.CacheEnabled() {
		embedder = embcache.New(embedder, repos.Embeddings, cfg.AI.EmbeddingModel,
			embcache.WithLogger(logger.With("component", "embcache")))
	}

	pipeline, err := ingestion.NewPipeline(repos.Documents, embedder,
		ingestion.WithLogger(logger.With("component", "ingestion")))
	if err != nil {
		return nil, err
	}

	retriever, err := retrieval.NewRetriever(repos.Documents, embedder,
		retrieval.WithLogger(logger.With("component", "retrieval")))
	if err != nil {
		return nil, err
	}

	pool, err := workers.NewPool(cfg.Workers.Size, workers.WithLogger(logger.With("component", "workers")))
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: time.Duration(cfg.Connectors.TimeoutSec) * time.Second}
	connOpts := func(name string) []connectors.Option {
		base := []connectors.Option{
			connectors.WithHTTPClient(client),
			connectors.WithLogger(logger.With("component", "connector", "connector", name)),
		}
		return append(base, extra...)
	}

	nd := &Newsdesk{
		cfg:       cfg,
		repos:     repos,
		provider:  provider,
		embedder:  embedder,
		pipeline:  pipeline,
		news:      connectors.NewNewsAPI(cfg.Connectors.NewsAPIKey, pipeline, connOpts(connectors.NewsAPIName)...),
		events:    connectors.NewGDELT(pipeline, connOpts(connectors.GDELTName)...),
		feeds:     connectors.NewFeed(pipeline, connOpts(connectors.FeedName)...),
		web:       connectors.NewWebSearch(cfg.Connectors.TavilyAPIKey, pipeline, connOpts(connectors.WebSearchName)...),
		quotes:    connectors.NewMarketQuote(connOpts(connectors.QuoteName)...),
		retriever: retriever,
		pool:      pool,
		logger:    logger,
	}

	nd.orchestrator, err = orchestrator.New(provider.Planner(), nd.searcher(cfg.Connectors.SearchConnector),
		retriever, nd.quotes, provider.ReportWriter(),
		orchestrator.WithPool(pool),
		orchestrator.WithRetrievalWindow(cfg.Retrieval.WindowDays, cfg.Retrieval.TopK),
		orchestrator.WithStageTimeout(time.Duration(cfg.Pipeline.StageTimeoutSec)*time.Second),
		orchestrator.WithLogger(logger.With("component", "orchestrator")))
	if err != nil {
		pool.Release()
		return nil, err
	}
	return nd, nil
}

// searcher maps a config.Search* name to its connector.
func (nd *Newsdesk) searcher(name string) connectors.Searcher {
	switch name {
	case config.SearchNews:
		return nd.news
	case config.SearchEvents:
		return nd.events
	default:
		return nd.web
	}
}

// Close releases the worker pool, the provider and the store.
func (nd *Newsdesk) Close() error {
	nd.pool.Release()
	var errs []error
	if err := nd.provider.Close(); err != nil {
		nd.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := nd.repos.Close(); err != nil {
		nd.logger.Error("error closing store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Config returns the configuration the Newsdesk was opened with.
func (nd *Newsdesk) Config() *config.Config {
	return nd.cfg
}

// Ask runs the research pipeline and returns the final report.
func (nd *Newsdesk) Ask(ctx context.Context, query string) string {
	return nd.orchestrator.Ask(ctx, query)
}

// Run runs the research pipeline and returns the finished state.
func (nd *Newsdesk) Run(ctx context.Context, query string) core.PipelineState {
	return nd.orchestrator.Run(ctx, query)
}

// IngestNews loads NewsAPI articles from the last 29 days matching query.
func (nd *Newsdesk) IngestNews(ctx context.Context, query string) connectors.Result {
	return nd.news.SearchRecent(ctx, query)
}

// IngestGlobalEvents loads GDELT articles matching query.
func (nd *Newsdesk) IngestGlobalEvents(ctx context.Context, query string) connectors.Result {
	return nd.events.Search(ctx, query)
}

// ImportFeed loads the newest entries of one feed.
func (nd *Newsdesk) ImportFeed(ctx context.Context, feedURL string) connectors.Result {
	return nd.feeds.Import(ctx, feedURL)
}

// ImportFeeds loads several feeds concurrently. With no URLs the configured feeds are used.
func (nd *Newsdesk) ImportFeeds(ctx context.Context, feedURLs ...string) []connectors.Result {
	if len(feedURLs) == 0 {
		feedURLs = nd.cfg.Connectors.Feeds
	}
	return nd.feeds.ImportAll(ctx, nd.pool, feedURLs)
}

// WebSearch loads Tavily results for query.
func (nd *Newsdesk) WebSearch(ctx context.Context, query string) connectors.Result {
	return nd.web.Search(ctx, query)
}

// Ingest runs one of the ingesting connectors by name: newsapi, gdelt, tavily or feed.
func (nd *Newsdesk) Ingest(ctx context.Context, connector, input string) (connectors.Result, error) {
	switch connector {
	case connectors.NewsAPIName, string(core.SourceNews):
		return nd.IngestNews(ctx, input), nil
	case connectors.GDELTName, string(core.SourceGlobalEvents):
		return nd.IngestGlobalEvents(ctx, input), nil
	case connectors.WebSearchName, string(core.SourceWebSearch):
		return nd.WebSearch(ctx, input), nil
	case connectors.FeedName:
		return nd.ImportFeed(ctx, input), nil
	default:
		return connectors.Result{}, fmt.Errorf("%w: %q", ErrUnknownConnector, connector)
	}
}

// Quote looks up market data for ticker. Nothing is stored.
func (nd *Newsdesk) Quote(ctx context.Context, ticker string) connectors.QuoteResult {
	return nd.quotes.Lookup(ctx, ticker)
}

// Retrieve returns the evidence block for query. Non-positive arguments use the configured defaults.
func (nd *Newsdesk) Retrieve(ctx context.Context, query string, windowDays, k int) (string, error) {
	windowDays, k = nd.window(windowDays, k)
	return nd.retriever.Retrieve(ctx, query, windowDays, k)
}

// Search returns the raw ranked hits for query.
func (nd *Newsdesk) Search(ctx context.Context, query string, windowDays, k int) ([]*core.SearchResult, error) {
	windowDays, k = nd.window(windowDays, k)
	return nd.retriever.Search(ctx, query, windowDays, k)
}

// SearchWithMonitor is Search with a monitor observing each step.
func (nd *Newsdesk) SearchWithMonitor(ctx context.Context, query string, windowDays, k int, monitor retrieval.Monitor) ([]*core.SearchResult, error) {
	windowDays, k = nd.window(windowDays, k)
	return nd.retriever.SearchWithMonitor(ctx, query, windowDays, k, monitor)
}

func (nd *Newsdesk) window(windowDays, k int) (int, int) {
	if windowDays <= 0 {
		windowDays = nd.cfg.Retrieval.WindowDays
	}
	if k <= 0 {
		k = nd.cfg.Retrieval.TopK
	}
	return windowDays, k
}

// Store writes items directly, bypassing the connectors.
func (nd *Newsdesk) Store(ctx context.Context, items ...ingestion.Item) ([]*core.Document, error) {
	return nd.pipeline.UpsertItems(ctx, items...)
}

// Count returns the number of stored documents.
func (nd *Newsdesk) Count(ctx context.Context) (int, error) {
	return nd.repos.Documents.CountDocuments(ctx)
}

// Reembedder returns a reembedder over the store that checkpoints its progress.
// It embeds through the provider directly, bypassing the embedding cache.
func (nd *Newsdesk) Reembedder(opts ...reembed.Option) (*reembed.Reembedder, error) {
	base := []reembed.Option{
		reembed.WithCheckpoints(nd.repos.Checkpoints),
		reembed.WithLogger(nd.logger.With("component", "reembed")),
	}
	return reembed.NewReembedder(nd.repos.Documents, nd.provider.Embedder(), append(base, opts...)...)
}
