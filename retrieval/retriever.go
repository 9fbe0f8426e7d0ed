package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

const (
	// DefaultWindowDays is the recency window used when none is given.
	DefaultWindowDays = 30

	// DefaultK is the number of documents retrieved when none is given.
	DefaultK = 8

	// NoResults is returned by Retrieve when nothing matches. The report
	// prompt relies on this exact text to admit missing information.
	NoResults = "No relevant documents were found in the local vector store. Use other tools to load information first."

	notAvailable = "N/A"
)

// Retriever runs time-windowed similarity search over stored documents.
type Retriever struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithClock overrides the time source used to compute the cutoff.
func WithClock(now func() time.Time) Option {
	return func(r *Retriever) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		r.now = now
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(repository storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		repository: repository,
		embedder:   embedder,
		now:        time.Now,
		logger:     slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Cutoff returns the unix time before which documents are ignored.
// Non-positive windowDays use DefaultWindowDays.
func (r *Retriever) Cutoff(windowDays int) int64 {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return r.now().Add(-time.Duration(windowDays) * 24 * time.Hour).Unix()
}

// Search returns up to k documents newer than the window, best match first.
// Non-positive arguments use the defaults.
func (r *Retriever) Search(ctx context.Context, query string, windowDays, k int) ([]*core.SearchResult, error) {
	return r.SearchWithMonitor(ctx, query, windowDays, k, nil)
}

// SearchWithMonitor is Search with progress callbacks.
func (r *Retriever) SearchWithMonitor(ctx context.Context, query string, windowDays, k int, monitor Monitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = noopMonitor{}
	}
	if k <= 0 {
		k = DefaultK
	}
	cutoff := r.Cutoff(windowDays)
	monitor.Start(query, cutoff)

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vector = core.NormalizeVector(vector)
	monitor.AfterEmbedding(len(vector))

	results, err := r.repository.FindSimilarSince(ctx, vector, cutoff, k)
	if err != nil {
		r.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}
	monitor.AfterSearch(results)

	r.logger.Debug("retrieved documents", "query", query, "count", len(results), "cutoff", cutoff)
	return results, nil
}

// Retrieve returns the evidence block for query, or NoResults when nothing
// in the window matches.
func (r *Retriever) Retrieve(ctx context.Context, query string, windowDays, k int) (string, error) {
	results, err := r.Search(ctx, query, windowDays, k)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoResults, nil
	}
	return FormatEvidence(results), nil
}

// FormatEvidence renders each hit as a three-line block, blocks separated by a blank line:
//
//	Source: news (2025-05-30)
//	Content: ...
//	URL: https://...
func FormatEvidence(results []*core.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, res := range results {
		if res == nil || res.Document == nil {
			continue
		}
		doc := res.Document
		blocks = append(blocks, fmt.Sprintf("Source: %s (%s)\nContent: %s\nURL: %s",
			orNA(string(doc.Source)), orNA(doc.DateString), orNA(doc.Text), orNA(doc.URL)))
	}
	return strings.Join(blocks, "\n\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
