package storage

import (
	"context"

	"github.com/poiesic/newsdesk/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository is the time-indexed vector store.
type DocumentRepository interface {
	Repository

	// AddDocuments appends documents to storage.
	// Every document receives a fresh ID from the sequence; nothing is deduplicated.
	// InsertedAt is set to the current time.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments rewrites existing documents in place.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentsByDateRange retrieves documents where start <= Timestamp < end,
	// ordered by timestamp. Both bounds are unix seconds.
	GetDocumentsByDateRange(ctx context.Context, start, end int64) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// FindSimilarSince returns up to limit documents with Timestamp > since,
	// ordered by similarity to vector (highest first), ties broken by ID ascending.
	FindSimilarSince(ctx context.Context, vector []float32, since int64, limit int) ([]*core.SearchResult, error)
}

// EmbeddingCache persists embeddings keyed by a content hash.
type EmbeddingCache interface {
	// GetEmbedding returns the cached vector for key. The bool reports a hit.
	GetEmbedding(ctx context.Context, key core.ID) ([]float32, bool, error)

	// PutEmbedding stores vector under key, replacing any previous value.
	PutEmbedding(ctx context.Context, key core.ID, vector []float32) error
}

// CheckpointRepository persists progress markers for batch jobs.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, stamping UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the named checkpoint, or nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the named checkpoint. Missing checkpoints are not an error.
	ClearCheckpoint(ctx context.Context, name string) error
}
