package connectors

import (
	"context"
	"net/http"
	"testing"

	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsAPIOK = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {"title": "Fed holds rates", "description": "Policy unchanged", "url": "https://n.example/1", "publishedAt": "2025-05-30T14:30:00Z"},
    {"title": "", "description": "", "url": "https://n.example/2", "publishedAt": "2025-05-30T15:00:00Z"},
    {"title": "Oil rises", "description": null, "url": "https://n.example/3", "publishedAt": "not a date"}
  ]
}`

func TestNewsAPI_Search(t *testing.T) {
	var gotPath, gotKey string
	var gotQuery map[string]string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(newsAPIOK))
	})

	sink := &recordingSink{}
	n := NewNewsAPI("key-123", sink, WithBaseURL(srv.URL), WithClock(testClock))
	res := n.Search(context.Background(), "interest rates")

	require.Equal(t, KindOK, res.Kind, res.Summary())
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "Loaded 2 articles from NewsAPI into the vector store.", res.Summary())

	assert.Equal(t, "/v2/everything", gotPath)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, map[string]string{
		"q":        "interest rates",
		"from":     "2025-05-03",
		"sortBy":   "publishedAt",
		"language": "en",
		"pageSize": "30",
	}, gotQuery)

	items := sink.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Fed holds rates – Policy unchanged", items[0].Text)
	assert.Equal(t, core.SourceNews, items[0].Source)
	assert.Equal(t, "2025-05-30", normalized(items[0].Date))
	assert.Equal(t, "Oil rises – ", items[1].Text)
	// Unparseable dates fall back to now
	assert.Equal(t, "2025-06-01", normalized(items[1].Date))
}

func TestNewsAPI_NotConfigured(t *testing.T) {
	called := false
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	res := NewNewsAPI("  ", &recordingSink{}, WithBaseURL(srv.URL)).Search(context.Background(), "q")

	assert.Equal(t, KindNotConfigured, res.Kind)
	assert.Equal(t, "NEWSAPI_KEY environment variable not set. Cannot use this tool.", res.Summary())
	assert.False(t, called)
}

func TestNewsAPI_ProviderError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error on 401", http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`, "Error from NewsAPI: Your API key is invalid."},
		{"error on 200", http.StatusOK, `{"status":"error","code":"rateLimited"}`, "Error from NewsAPI: Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			sink := &recordingSink{}
			res := NewNewsAPI("k", sink, WithBaseURL(srv.URL)).SearchFrom(context.Background(), "q", "2025-05-01")

			assert.Equal(t, KindProvider, res.Kind)
			assert.Equal(t, tt.want, res.Summary())
			assert.Empty(t, sink.Items())
		})
	}
}

func TestNewsAPI_TransportAndMalformed(t *testing.T) {
	res := NewNewsAPI("k", &recordingSink{}, WithBaseURL(deadURL(t))).Search(context.Background(), "q")
	assert.Equal(t, KindTransport, res.Kind)
	assert.Contains(t, res.Summary(), "Failed to connect to NewsAPI:")

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	res = NewNewsAPI("k", &recordingSink{}, WithBaseURL(srv.URL)).Search(context.Background(), "q")
	assert.Equal(t, KindTransport, res.Kind)

	srv = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	res = NewNewsAPI("k", &recordingSink{}, WithBaseURL(srv.URL)).Search(context.Background(), "q")
	assert.Equal(t, KindMalformed, res.Kind)
}

func TestNewsAPI_StorageFailure(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(newsAPIOK))
	})
	res := NewNewsAPI("k", &recordingSink{err: errDiskFull}, WithBaseURL(srv.URL)).Search(context.Background(), "q")

	assert.Equal(t, KindStorage, res.Kind)
	assert.ErrorIs(t, res.Err, errDiskFull)
	assert.Zero(t, res.Count)
	assert.Equal(t, "Failed to store documents from newsapi: disk full", res.Summary())
}
