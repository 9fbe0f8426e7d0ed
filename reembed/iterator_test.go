package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seed stores n documents. Timestamps run backwards so index order differs from ID order.
func seed(t *testing.T, repos *badger.Repositories, n int) []*core.Document {
	t.Helper()
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{
			Text:       fmt.Sprintf("story %d", i),
			URL:        fmt.Sprintf("https://example.com/%d", i),
			DateString: "2025-05-01",
			Timestamp:  1746057600 - int64(i)*60,
			Source:     core.SourceNews,
			Vector:     []float32{1, 0, 0},
		}
	}
	added, err := repos.Documents.AddDocuments(context.Background(), docs...)
	require.NoError(t, err)
	return added
}

func TestDocumentIterator_BatchesInIDOrder(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 7)

	var batches [][]core.ID
	err := NewDocumentIterator(repos.Documents, 3).ForEach(context.Background(), 0, func(docs []*core.Document) error {
		var ids []core.ID
		for _, d := range docs {
			ids = append(ids, d.Id)
		}
		batches = append(batches, ids)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[2], 1)
	assert.Equal(t, added[0].Id, batches[0][0])
	assert.Equal(t, added[6].Id, batches[2][0])
}

func TestDocumentIterator_SkipsThroughAfterID(t *testing.T) {
	repos := setupRepos(t)
	added := seed(t, repos, 5)

	var seen []core.ID
	err := NewDocumentIterator(repos.Documents, 10).ForEach(context.Background(), added[2].Id, func(docs []*core.Document) error {
		for _, d := range docs {
			seen = append(seen, d.Id)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{added[3].Id, added[4].Id}, seen)
}

func TestDocumentIterator_Empty(t *testing.T) {
	repos := setupRepos(t)
	called := false
	err := NewDocumentIterator(repos.Documents, 0).ForEach(context.Background(), 0, func([]*core.Document) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDocumentIterator_StopsOnError(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, 6)

	boom := errors.New("boom")
	calls := 0
	err := NewDocumentIterator(repos.Documents, 2).ForEach(context.Background(), 0, func([]*core.Document) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDocumentIterator_StopsOnCancel(t *testing.T) {
	repos := setupRepos(t)
	seed(t, repos, 6)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewDocumentIterator(repos.Documents, 2).ForEach(ctx, 0, func([]*core.Document) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
