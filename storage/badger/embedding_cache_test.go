package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	key := core.IDFromContent("model\x00text")

	_, ok, err := repos.Embeddings.GetEmbedding(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repos.Embeddings.PutEmbedding(ctx, key, []float32{0.25, -0.5}))

	vector, ok, err := repos.Embeddings.GetEmbedding(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.25, -0.5}, vector)

	// Cache entries are not documents
	count, err := repos.Documents.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCheckpointRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	cp, err := repos.Checkpoints.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Name: "reembed", LastID: 12, Processed: 3}))

	cp, err = repos.Checkpoints.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, core.ID(12), cp.LastID)
	assert.Equal(t, 3, cp.Processed)
	assert.WithinDuration(t, time.Now(), cp.UpdatedAt, time.Minute)

	require.NoError(t, repos.Checkpoints.ClearCheckpoint(ctx, "reembed"))
	cp, err = repos.Checkpoints.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, cp)

	// Clearing twice is fine
	require.NoError(t, repos.Checkpoints.ClearCheckpoint(ctx, "reembed"))
}
