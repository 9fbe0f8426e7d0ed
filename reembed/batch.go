package reembed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// BatchProcessor embeds one batch of documents and writes the new vectors back.
type BatchProcessor struct {
	repo     storage.DocumentRepository
	embedder ai.Embedder
	backoff  Backoff
	logger   *slog.Logger
}

// NewBatchProcessor creates a processor retrying embedding calls under backoff.
func NewBatchProcessor(repo storage.DocumentRepository, embedder ai.Embedder, backoff Backoff, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{repo: repo, embedder: embedder, backoff: backoff, logger: logger}
}

// Process replaces the vector of every document in docs. Vectors are stored unit-length.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	var vectors [][]float32
	err := bp.backoff.Do(ctx, bp.logger, func(ctx context.Context) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("embed batch after %d attempts: %w", bp.backoff.Attempts, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, len(docs), len(vectors))
	}

	for i, d := range docs {
		d.Vector = core.NormalizeVector(vectors[i])
	}
	if _, err := bp.repo.UpdateDocuments(ctx, docs...); err != nil {
		return fmt.Errorf("update documents: %w", err)
	}
	return nil
}
