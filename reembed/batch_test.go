package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastBackoff = Backoff{Attempts: 3, BaseDelay: time.Millisecond}

func constantEmbedder(v []float32) *mock.MockEmbedder {
	e := mock.NewMockEmbedder()
	e.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = append([]float32(nil), v...)
		}
		return out, nil
	}
	return e
}

func TestBatchProcessor_Process(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 2)
	ctx := context.Background()

	p := NewBatchProcessor(repos.Documents, constantEmbedder([]float32{0, 3, 4}), fastBackoff, nil)
	require.NoError(t, p.Process(ctx, added))

	for _, d := range added {
		got, err := repos.Documents.GetDocument(ctx, d.Id)
		require.NoError(t, err)
		require.Len(t, got.Vector, 3)
		assert.InDelta(t, 0.6, got.Vector[1], 1e-6)
		assert.InDelta(t, 0.8, got.Vector[2], 1e-6)
		assert.Equal(t, d.Text, got.Text)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repos := setupRepos(t)
	e := mock.NewMockEmbedder()
	p := NewBatchProcessor(repos.Documents, e, fastBackoff, nil)

	require.NoError(t, p.Process(context.Background(), nil))
	assert.Equal(t, 0, e.CallCount())
}

func TestBatchProcessor_RetriesTransientFailures(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 1)

	calls := 0
	e := mock.NewMockEmbedder()
	e.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("503")
		}
		return [][]float32{{1, 1, 0}}, nil
	}

	p := NewBatchProcessor(repos.Documents, e, fastBackoff, nil)
	require.NoError(t, p.Process(context.Background(), added))
	assert.Equal(t, 3, calls)
}

func TestBatchProcessor_GivesUp(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 1)
	ctx := context.Background()

	e := mock.NewMockEmbedder()
	e.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("model not loaded")
	}

	p := NewBatchProcessor(repos.Documents, e, fastBackoff, nil)
	err := p.Process(ctx, added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")

	// The stored vector is untouched
	got, err := repos.Documents.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 2)

	e := mock.NewMockEmbedder()
	e.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0, 0}}, nil
	}

	p := NewBatchProcessor(repos.Documents, e, fastBackoff, nil)
	assert.ErrorIs(t, p.Process(context.Background(), added), ErrCountMismatch)
}

func TestBatchProcessor_UpdateMissingDocument(t *testing.T) {
	repos := setupRepos(t)
	ghost := []*core.Document{{Id: 999, Text: "gone"}}

	p := NewBatchProcessor(repos.Documents, constantEmbedder([]float32{1, 0, 0}), fastBackoff, nil)
	err := p.Process(context.Background(), ghost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update documents")
}
