package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingFailed wraps failures from the embedding service.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrWriteFailed wraps failures from the document store.
	ErrWriteFailed = errors.New("document write failed")
)
