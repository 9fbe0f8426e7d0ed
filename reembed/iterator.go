package reembed

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// DefaultBatchSize is the number of documents embedded per call.
const DefaultBatchSize = 100

// DocumentIterator walks every stored document in ID order.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates an iterator. Non-positive batch sizes use DefaultBatchSize.
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &DocumentIterator{repo: repo, batchSize: batchSize}
}

// ForEach calls fn with consecutive batches of documents whose ID is greater
// than afterID. It stops at the first error from fn or when ctx is done.
func (it *DocumentIterator) ForEach(ctx context.Context, afterID core.ID, fn func([]*core.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := it.repo.GetDocumentsByDateRange(ctx, 0, math.MaxInt64)
	if err != nil {
		return err
	}
	// The index is ordered by timestamp; checkpoints need a stable ID order.
	slices.SortFunc(docs, func(a, b *core.Document) int { return cmp.Compare(a.Id, b.Id) })
	docs = slices.DeleteFunc(docs, func(d *core.Document) bool { return d.Id <= afterID })

	for batch := range slices.Chunk(docs, it.batchSize) {
		if err := fn(batch); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
