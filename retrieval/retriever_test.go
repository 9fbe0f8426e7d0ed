package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func daysAgo(d int) time.Time {
	return now.Add(-time.Duration(d) * 24 * time.Hour)
}

func setup(t *testing.T) (*badger.Repositories, *mock.MockEmbedder) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	embedder := mock.NewMockEmbedder()
	// Every query points along the first axis
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return []float32{2, 0, 0}, nil
	}
	return repos, embedder
}

func addDoc(t *testing.T, repos *badger.Repositories, text string, at time.Time, vector ...float32) *core.Document {
	t.Helper()
	date, ts := core.NormalizeDateAt(core.DateFromTime(at), now)
	docs, err := repos.Documents.AddDocuments(context.Background(), &core.Document{
		Text:       text,
		URL:        "https://example.com/" + text,
		DateString: date,
		Timestamp:  ts,
		Source:     core.SourceNews,
		Vector:     core.NormalizeVector(vector),
	})
	require.NoError(t, err)
	return docs[0]
}

func TestNewRetriever(t *testing.T) {
	repos, embedder := setup(t)

	_, err := NewRetriever(nil, embedder)
	assert.Equal(t, ErrRepositoryRequired, err)

	_, err = NewRetriever(repos.Documents, nil)
	assert.Equal(t, ErrEmbedderRequired, err)

	_, err = NewRetriever(repos.Documents, embedder, WithClock(nil))
	assert.Error(t, err)

	r, err := NewRetriever(repos.Documents, embedder, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestCutoff(t *testing.T) {
	repos, embedder := setup(t)
	r, err := NewRetriever(repos.Documents, embedder, WithClock(clock))
	require.NoError(t, err)

	assert.Equal(t, daysAgo(30).Unix(), r.Cutoff(0))
	assert.Equal(t, daysAgo(30).Unix(), r.Cutoff(-1))
	assert.Equal(t, daysAgo(7).Unix(), r.Cutoff(7))
}

func TestRetrieve_EmptyStoreReturnsSentinel(t *testing.T) {
	repos, embedder := setup(t)
	r, err := NewRetriever(repos.Documents, embedder, WithClock(clock))
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), "anything", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, NoResults, got)
}

func TestRetrieve_WindowExcludesOldDocuments(t *testing.T) {
	repos, embedder := setup(t)
	addDoc(t, repos, "ancient", daysAgo(45), 1, 0, 0)
	addDoc(t, repos, "recent", daysAgo(3), 1, 0, 0)

	r, err := NewRetriever(repos.Documents, embedder, WithClock(clock))
	require.NoError(t, err)

	results, err := r.Search(context.Background(), "q", 30, 8)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "recent", results[0].Document.Text)

	got, err := r.Retrieve(context.Background(), "q", 1, 8)
	require.NoError(t, err)
	assert.Equal(t, NoResults, got)
}

func TestRetrieve_BoundaryIsExclusive(t *testing.T) {
	repos, embedder := setup(t)
	addDoc(t, repos, "exactly-at-cutoff", daysAgo(30), 1, 0, 0)

	r, err := NewRetriever(repos.Documents, embedder, WithClock(clock))
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), "q", 30, 8)
	require.NoError(t, err)
	assert.Equal(t, NoResults, got)
}

func TestRetrieve_RanksAndLimits(t *testing.T) {
	repos, embedder := setup(t)
	addDoc(t, repos, "close", daysAgo(1), 0.9, 0.1, 0)
	addDoc(t, repos, "exact", daysAgo(2), 1, 0, 0)
	addDoc(t, repos, "far", daysAgo(1), 0, 0, 1)

	r, err := NewRetriever(repos.Documents, embedder, WithClock(clock))
	require.NoError(t, err)

	results, err := r.Search(context.Background(), "q", 30, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Document.Text)
	assert.Equal(t, "close", results[1].Document.Text)

	got, err := r.Retrieve(context.Background(), "q", 30, 1)
	require.NoError(t, err)
	assert.Equal(t, "Source: news (2025-05-30)\nContent: exact\nURL: https://example.com/exact", got)
}

func TestRetrieve_EmbeddingError(t *testing.T) {
	repos, embedder := setup(t)
	boom := errors.New("embedder offline")
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) { return nil, boom }

	r, err := NewRetriever(repos.Documents, embedder, WithLogger(slog.Default()))
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "q", 0, 0)
	assert.ErrorIs(t, err, boom)
}

func TestFormatEvidence(t *testing.T) {
	results := []*core.SearchResult{
		{Document: &core.Document{Source: core.SourceFeed, DateString: "2025-05-01", Text: "first", URL: "https://a"}},
		nil,
		{Document: &core.Document{Text: "no metadata"}},
	}

	want := "Source: feed (2025-05-01)\nContent: first\nURL: https://a\n\n" +
		"Source: N/A (N/A)\nContent: no metadata\nURL: N/A"
	assert.Equal(t, want, FormatEvidence(results))
	assert.Empty(t, FormatEvidence(nil))
}

type recordingMonitor struct {
	query   string
	cutoff  int64
	dims    int
	results int
}

func (m *recordingMonitor) Start(query string, cutoff int64)          { m.query, m.cutoff = query, cutoff }
func (m *recordingMonitor) AfterEmbedding(dims int)                  { m.dims = dims }
func (m *recordingMonitor) AfterSearch(results []*core.SearchResult) { m.results = len(results) }

func TestSearchWithMonitor(t *testing.T) {
	repos, embedder := setup(t)
	addDoc(t, repos, "one", daysAgo(1), 1, 0, 0)

	r, err := NewRetriever(repos.Documents, embedder, WithClock(clock))
	require.NoError(t, err)

	m := &recordingMonitor{}
	_, err = r.SearchWithMonitor(context.Background(), "rates", 10, 5, m)
	require.NoError(t, err)

	assert.Equal(t, "rates", m.query)
	assert.Equal(t, daysAgo(10).Unix(), m.cutoff)
	assert.Equal(t, 3, m.dims)
	assert.Equal(t, 1, m.results)
}
