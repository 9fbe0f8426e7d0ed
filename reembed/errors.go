package reembed

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidAttempts is returned when a backoff policy allows no attempts.
	ErrInvalidAttempts = errors.New("attempts must be greater than 0")

	// ErrCountMismatch is returned when the embedder returns the wrong number of vectors.
	ErrCountMismatch = errors.New("embedding count mismatch")
)
