package badger

import (
	"bytes"
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments appends documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}

			nextID, err := r.nextID()
			if err != nil {
				return err
			}
			doc.Id = nextID
			doc.InsertedAt = time.Now().UTC().Truncate(time.Microsecond)

			if err := writeDocument(tx, doc); err != nil {
				return err
			}

			dateKey := makeDocumentDateKey(doc.Timestamp, doc.Id)
			if err := tx.Set(dateKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments rewrites existing documents in place.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			old, err := readDocument(tx, makeDocumentKey(doc.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.InsertedAt = old.InsertedAt
			if err := writeDocument(tx, doc); err != nil {
				return err
			}

			// Move the index entry if the timestamp changed
			if old.Timestamp != doc.Timestamp {
				if err := tx.Delete(makeDocumentDateKey(old.Timestamp, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeDocumentDateKey(doc.Timestamp, doc.Id), storage.MarshalID(doc.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByDateRange retrieves documents where start <= Timestamp < end.
func (r *DocumentRepository) GetDocumentsByDateRange(ctx context.Context, start, end int64) ([]*core.Document, error) {
	if end <= start {
		return nil, nil
	}

	var results []*core.Document
	err := r.scanIndex(ctx, start, func(tx *badger.Txn, ts int64, id core.ID) (bool, error) {
		if ts >= end {
			return false, nil
		}
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return false, err
		}
		if doc != nil {
			results = append(results, doc)
		}
		return true, nil
	})
	return results, err
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentDatePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindSimilarSince scores every document newer than since against vector.
// The timestamp index bounds the scan, so older documents are never decoded.
func (r *DocumentRepository) FindSimilarSince(ctx context.Context, vector []float32, since int64, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult
	err := r.scanIndex(ctx, since+1, func(tx *badger.Txn, ts int64, id core.ID) (bool, error) {
		if ts <= since {
			return true, nil
		}
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return false, err
		}
		// Skip documents without embeddings
		if doc == nil || len(doc.Vector) == 0 {
			return true, nil
		}
		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    dotProduct(vector, doc.Vector),
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	// Score descending, then ID ascending, so a fixed snapshot always ranks the same way
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.Id, b.Document.Id)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scanIndex walks the timestamp index from start upwards, calling fn for
// each entry until fn returns false or an error.
func (r *DocumentRepository) scanIndex(ctx context.Context, start int64, fn func(tx *badger.Txn, ts int64, id core.ID) (bool, error)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(documentDatePrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makePartialDocumentDateKey(start)); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ts, id, ok := parseDocumentDateKey(iter.Item().Key())
			if !ok {
				continue
			}
			more, err := fn(tx, ts, id)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
		return nil
	}, false)
}

func (r *DocumentRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// Helper functions

func parseDocumentDateKey(key []byte) (int64, core.ID, bool) {
	rest, ok := bytes.CutPrefix(key, []byte(documentDatePrefix))
	if !ok || len(rest) != 16 {
		return 0, 0, false
	}
	ts := binary.BigEndian.Uint64(rest[:8])
	id := binary.BigEndian.Uint64(rest[8:])
	return int64(ts), core.ID(id), true
}

func writeDocument(tx *badger.Txn, doc *core.Document) error {
	return tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc))
}

// readDocument reads a document from the transaction.
// Returns nil, nil if the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
