package ai

import (
	"context"

	"github.com/poiesic/newsdesk/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Planner turns a user query into a structured research plan.
// Implementations must be thread-safe for concurrent use.
type Planner interface {
	// Plan asks the reasoning engine for search queries and stock tickers.
	// The returned plan is already normalized.
	// Returns an error if the engine fails or its output cannot be decoded.
	Plan(ctx context.Context, query string) (*core.ResearchPlan, error)
}

// ReportRequest carries everything the analyst prompt is rendered from.
type ReportRequest struct {
	Query        string
	NewsContext  string
	StockContext string
}

// ReportWriter synthesizes the final answer from gathered evidence.
// Implementations must be thread-safe for concurrent use.
type ReportWriter interface {
	// WriteReport renders the analyst prompt for req and returns the model's text.
	WriteReport(ctx context.Context, req ReportRequest) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates the embedder and the reasoning services so they share
// configuration and clients.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Planner returns the research planning service.
	Planner() Planner

	// ReportWriter returns the report synthesis service.
	ReportWriter() ReportWriter

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
