package connectors

import (
	"context"
	"fmt"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/poiesic/newsdesk/metrics"
)

// Kind classifies a connector outcome.
type Kind int

const (
	// KindOK means the request succeeded; Count documents were written.
	KindOK Kind = iota
	// KindNotConfigured means a required credential or parameter is missing. No request was made.
	KindNotConfigured
	// KindTransport means the request could not be completed.
	KindTransport
	// KindProvider means the provider answered with an explicit error status.
	KindProvider
	// KindMalformed means the input or the provider's response could not be parsed.
	KindMalformed
	// KindEmpty means the provider answered successfully with nothing to ingest.
	KindEmpty
	// KindStorage means documents were fetched but could not be written.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return metrics.OutcomeOK
	case KindNotConfigured:
		return metrics.OutcomeNotConfigured
	case KindTransport:
		return metrics.OutcomeTransport
	case KindProvider:
		return metrics.OutcomeProvider
	case KindMalformed:
		return metrics.OutcomeMalformed
	case KindEmpty:
		return metrics.OutcomeEmpty
	case KindStorage:
		return metrics.OutcomeStorage
	default:
		return "unknown"
	}
}

// Result is the outcome of one connector call.
type Result struct {
	Connector string
	Kind      Kind
	Count     int // documents written
	Skipped   int // items without usable content or rejected by the sink
	Message   string
	Err       error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// Summary renders the result for people and for the reasoning engine.
func (r Result) Summary() string {
	if r.Message != "" {
		return r.Message
	}
	if r.Err != nil {
		return r.Connector + ": " + r.Kind.String() + ": " + r.Err.Error()
	}
	return r.Connector + ": " + r.Kind.String()
}

// Sink receives mapped items. *ingestion.Pipeline satisfies it.
type Sink interface {
	UpsertItems(ctx context.Context, items ...ingestion.Item) ([]*core.Document, error)
}

// Searcher is a connector that ingests documents for a free-text query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) Result
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string) Result

// Name implements Searcher.
func (f SearcherFunc) Name() string { return "func" }

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, query string) Result { return f(ctx, query) }

// record counts a finished call.
func record(r Result) {
	metrics.ConnectorRequestsTotal.WithLabelValues(r.Connector, r.Kind.String()).Inc()
	if r.Count > 0 {
		metrics.ConnectorDocumentsTotal.WithLabelValues(r.Connector).Add(float64(r.Count))
	}
}

// store writes items through sink and builds the success or storage result.
func store(ctx context.Context, sink Sink, name string, items []ingestion.Item, skipped int, loaded func(n int) string) Result {
	docs, err := sink.UpsertItems(ctx, items...)
	if err != nil {
		return Result{
			Connector: name,
			Kind:      KindStorage,
			Skipped:   skipped,
			Err:       err,
			Message:   fmt.Sprintf("Failed to store documents from %s: %v", name, err),
		}
	}
	// The sink drops items that fail validation.
	skipped += len(items) - len(docs)
	return Result{
		Connector: name,
		Kind:      KindOK,
		Count:     len(docs),
		Skipped:   skipped,
		Message:   loaded(len(docs)),
	}
}
