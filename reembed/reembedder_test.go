package reembed

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReembedder_Requires(t *testing.T) {
	repos := setupRepos(t)

	_, err := NewReembedder(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReembedder(repos.Documents, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestReembedder_EmptyStore(t *testing.T) {
	repos := setupRepos(t)
	var out bytes.Buffer
	e := mock.NewMockEmbedder()

	r, err := NewReembedder(repos.Documents, e, WithProgress(&out))
	require.NoError(t, err)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Contains(t, out.String(), "No documents found")
	assert.Equal(t, 0, e.CallCount())
}

func TestReembedder_Run(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 5)
	ctx := context.Background()
	var out bytes.Buffer

	r, err := NewReembedder(repos.Documents, constantEmbedder([]float32{3, 4, 0}),
		WithProgress(&out),
		WithCheckpoints(repos.Checkpoints),
		WithConfig(Config{BatchSize: 2, ReportInterval: 1, Backoff: fastBackoff}),
	)
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 0, stats.Resumed)

	for _, d := range added {
		got, err := repos.Documents.GetDocument(ctx, d.Id)
		require.NoError(t, err)
		assert.InDelta(t, 0.6, got.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, got.Vector[1], 1e-6)
	}

	cp, err := repos.Checkpoints.LoadCheckpoint(ctx, DefaultCheckpointName)
	require.NoError(t, err)
	assert.Nil(t, cp, "checkpoint is cleared after a complete run")

	assert.Contains(t, out.String(), "Re-embedding 5 documents (batch size: 2)")
	assert.Contains(t, out.String(), "Re-embedding complete. Processed 5 documents")
}

func TestReembedder_ResumesFromCheckpoint(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 5)
	ctx := context.Background()
	cfg := Config{BatchSize: 2, Backoff: fastBackoff}

	// First run dies on the second batch
	calls := 0
	failing := mock.NewMockEmbedder()
	failing.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("embedding server went away")
		}
		return [][]float32{{0, 1, 0}, {0, 1, 0}}, nil
	}
	r, err := NewReembedder(repos.Documents, failing, WithCheckpoints(repos.Checkpoints), WithConfig(cfg))
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, stats.Processed)

	cp, err := repos.Checkpoints.LoadCheckpoint(ctx, DefaultCheckpointName)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, added[1].Id, cp.LastID)
	assert.Equal(t, 2, cp.Processed)

	// Second run picks up after the checkpoint
	healthy := constantEmbedder([]float32{0, 0, 1})
	r, err = NewReembedder(repos.Documents, healthy, WithCheckpoints(repos.Checkpoints), WithConfig(cfg))
	require.NoError(t, err)

	stats, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Resumed)
	assert.Equal(t, 3, stats.Processed)

	texts := healthy.Texts()
	slices.Sort(texts)
	assert.Equal(t, []string{"story 2", "story 3", "story 4"}, texts)

	first, err := repos.Documents.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, first.Vector)
	last, err := repos.Documents.GetDocument(ctx, added[4].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, last.Vector)
}

func TestReembedder_WithoutCheckpointsStartsOver(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, 3)
	ctx := context.Background()

	require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Name: DefaultCheckpointName, LastID: 2, Processed: 2}))

	e := constantEmbedder([]float32{1, 0, 0})
	r, err := NewReembedder(repos.Documents, e)
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Len(t, e.Texts(), 3)
}
