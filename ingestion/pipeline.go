package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// Item is one raw source record awaiting ingestion.
type Item struct {
	Text   string
	URL    string
	Date   core.DateInput
	Source core.Source
}

// Pipeline writes source items into the document store.
// It is safe for concurrent use.
type Pipeline struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default() tagged with the component name.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithClock overrides the time source used when an item has no usable date.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		p.now = now
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		now:        time.Now,
		logger:     slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Upsert stores a single item and returns the written document.
// An item that fails validation is returned as an error.
func (p *Pipeline) Upsert(ctx context.Context, text, url string, date core.DateInput, source core.Source) (*core.Document, error) {
	doc, err := p.prepare(Item{Text: text, URL: url, Date: date, Source: source}, p.now())
	if err != nil {
		return nil, err
	}
	docs, err := p.write(ctx, []*core.Document{doc})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// UpsertItems stores items as documents using one embedding batch and one write.
// Items that fail validation are logged and skipped; the returned slice holds
// only the documents that were written, so len(items)-len(docs) were dropped.
func (p *Pipeline) UpsertItems(ctx context.Context, items ...Item) ([]*core.Document, error) {
	if len(items) == 0 {
		return nil, nil
	}

	docs := make([]*core.Document, 0, len(items))
	now := p.now()
	for i, item := range items {
		doc, err := p.prepare(item, now)
		if err != nil {
			p.logger.Warn("skipping invalid item", "index", i, "url", item.URL, "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return p.write(ctx, docs)
}

func (p *Pipeline) prepare(item Item, now time.Time) (*core.Document, error) {
	dateString, ts := core.NormalizeDateAt(item.Date, now)
	doc := &core.Document{
		Text:       item.Text,
		URL:        item.URL,
		DateString: dateString,
		Timestamp:  ts,
		Source:     item.Source,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// write embeds docs in one batch and stores them in one write.
func (p *Pipeline) write(ctx context.Context, docs []*core.Document) ([]*core.Document, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	p.logger.Debug("embedding documents", "count", len(texts))
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: expected %d embeddings, received %d", ErrEmbeddingFailed, len(docs), len(vectors))
	}
	for i := range docs {
		docs[i].Vector = core.NormalizeVector(vectors[i])
	}

	added, err := p.repository.AddDocuments(ctx, docs...)
	if err != nil {
		p.logger.Error("error writing documents", "count", len(docs), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return added, nil
}
