// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// DefaultCheckpointName identifies the re-embedding checkpoint.
const DefaultCheckpointName = "reembed"

// Config holds tuning for a re-embedding run.
type Config struct {
	// BatchSize is the number of documents per embedding call.
	BatchSize int

	// ReportInterval is how many documents pass between progress lines.
	ReportInterval int

	// Backoff governs retries of failed embedding calls.
	Backoff Backoff

	// CheckpointName keys the saved progress.
	CheckpointName string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		Backoff:        Backoff{Attempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
		CheckpointName: DefaultCheckpointName,
	}
}

// Stats summarizes a finished run.
type Stats struct {
	Total     int           // documents in the store
	Processed int           // documents re-embedded by this run
	Resumed   int           // documents already done by an earlier, interrupted run
	Elapsed   time.Duration // wall time of this run
}

// Reembedder re-embeds every document in a repository.
type Reembedder struct {
	repo        storage.DocumentRepository
	embedder    ai.Embedder
	checkpoints storage.CheckpointRepository
	config      Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithProgress writes human-readable progress to w, typically os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(r *Reembedder) error {
		if w == nil {
			w = io.Discard
		}
		r.progress = w
		return nil
	}
}

// WithCheckpoints saves progress after every batch so interrupted runs resume.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(r *Reembedder) error {
		r.checkpoints = repo
		return nil
	}
}

// WithConfig replaces the tuning. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(r *Reembedder) error {
		if cfg.BatchSize > 0 {
			r.config.BatchSize = cfg.BatchSize
		}
		if cfg.ReportInterval > 0 {
			r.config.ReportInterval = cfg.ReportInterval
		}
		if cfg.Backoff.Attempts > 0 {
			r.config.Backoff = cfg.Backoff
		}
		if cfg.CheckpointName != "" {
			r.config.CheckpointName = cfg.CheckpointName
		}
		return nil
	}
}

// NewReembedder creates a reembedder over repo using embedder.
func NewReembedder(repo storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default().With("component", "reembed"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run re-embeds every document not covered by a saved checkpoint.
// On failure the checkpoint of the last completed batch is kept.
func (r *Reembedder) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	total, err := r.repo.CountDocuments(ctx)
	if err != nil {
		return stats, fmt.Errorf("count documents: %w", err)
	}
	stats.Total = total
	if total == 0 {
		fmt.Fprintln(r.progress, "No documents found in the store.")
		return stats, nil
	}

	var afterID core.ID
	if r.checkpoints != nil {
		cp, err := r.checkpoints.LoadCheckpoint(ctx, r.config.CheckpointName)
		if err != nil {
			return stats, fmt.Errorf("load checkpoint: %w", err)
		}
		if cp != nil {
			afterID = cp.LastID
			stats.Resumed = cp.Processed
			r.logger.Info("resuming re-embedding", "after_id", uint64(afterID), "done", cp.Processed)
		}
	}

	fmt.Fprintf(r.progress, "Re-embedding %d documents (batch size: %d)\n", total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()
	tracker.Update(stats.Resumed)

	processor := NewBatchProcessor(r.repo, r.embedder, r.config.Backoff, r.logger)
	iterator := NewDocumentIterator(r.repo, r.config.BatchSize)

	err = iterator.ForEach(ctx, afterID, func(batch []*core.Document) error {
		if err := processor.Process(ctx, batch); err != nil {
			return err
		}
		stats.Processed += len(batch)
		done := stats.Resumed + stats.Processed
		tracker.Update(done)

		if r.checkpoints == nil {
			return nil
		}
		return r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
			Name:      r.config.CheckpointName,
			LastID:    batch[len(batch)-1].Id,
			Processed: done,
		})
	})
	stats.Elapsed = time.Since(start)
	if err != nil {
		r.logger.Error("re-embedding stopped", "processed", stats.Processed, "err", err)
		return stats, err
	}

	tracker.Finish()
	if r.checkpoints != nil {
		if err := r.checkpoints.ClearCheckpoint(ctx, r.config.CheckpointName); err != nil {
			return stats, fmt.Errorf("clear checkpoint: %w", err)
		}
	}

	rate := float64(stats.Processed) / max(stats.Elapsed.Seconds(), 1e-9)
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d documents in %v (%.1f docs/sec)\n",
		stats.Processed, stats.Elapsed.Round(time.Millisecond), rate)
	return stats, nil
}
