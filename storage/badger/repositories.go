package badger

import "errors"

// Repositories bundles every repository sharing one backend.
type Repositories struct {
	Backend     *Backend
	Documents   *DocumentRepository
	Embeddings  *EmbeddingCache
	Checkpoints *CheckpointRepository
}

// Open opens a backend at path and builds all repositories on it.
func Open(path string, inMemory bool, opts ...BackendOption) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory, opts...)
	if err != nil {
		return nil, err
	}

	docs, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Backend:     backend,
		Documents:   docs,
		Embeddings:  NewEmbeddingCache(backend),
		Checkpoints: NewCheckpointRepository(backend),
	}, nil
}

// Close releases the ID sequence and then closes the backend.
func (r *Repositories) Close() error {
	return errors.Join(r.Documents.Close(), r.Backend.Close())
}
