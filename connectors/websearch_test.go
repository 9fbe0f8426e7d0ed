package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSearch_Search(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, tavilyRequest{Query: "chip export rules", SearchDepth: "advanced", MaxResults: 7}, req)

		_, _ = w.Write([]byte(`{"results":[
			{"title":"A","url":"https://w.example/a","content":"New export rules announced.","score":0.9},
			{"title":"B","url":"https://w.example/b","content":"","score":0.5}
		]}`))
	})

	sink := &recordingSink{}
	res := NewWebSearch("tvly-key", sink, WithBaseURL(srv.URL), WithClock(testClock)).Search(context.Background(), "chip export rules")

	require.Equal(t, KindOK, res.Kind, res.Summary())
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "Loaded 1 search results from Tavily into the vector store.", res.Summary())

	items := sink.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "New export rules announced.", items[0].Text)
	assert.Equal(t, core.SourceWebSearch, items[0].Source)
	assert.Equal(t, "2025-06-01", normalized(items[0].Date))
}

func TestWebSearch_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		summary string
	}{
		{"no results", http.StatusOK, `{"results":[]}`, KindEmpty, "Tavily search returned no results."},
		{"bad key", http.StatusUnauthorized, `{"detail":{"error":"Unauthorized: missing or invalid API key."}}`, KindProvider, "An error occurred during the Tavily search: unexpected status 401 Unauthorized: Unauthorized: missing or invalid API key."},
		{"garbage", http.StatusOK, `<html>`, KindMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			res := NewWebSearch("k", &recordingSink{}, WithBaseURL(srv.URL)).Search(context.Background(), "q")
			assert.Equal(t, tt.kind, res.Kind)
			if tt.summary != "" {
				assert.Equal(t, tt.summary, res.Summary())
			}
		})
	}
}

func TestWebSearch_NotConfigured(t *testing.T) {
	res := NewWebSearch("", &recordingSink{}, WithBaseURL(deadURL(t))).Search(context.Background(), "q")
	assert.Equal(t, KindNotConfigured, res.Kind)
	assert.Equal(t, "TAVILY_API_KEY environment variable not set. Cannot use this tool.", res.Summary())
}

func TestWebSearch_Transport(t *testing.T) {
	res := NewWebSearch("k", &recordingSink{}, WithBaseURL(deadURL(t))).Search(context.Background(), "q")
	assert.Equal(t, KindTransport, res.Kind)
	assert.Contains(t, res.Summary(), "An error occurred during the Tavily search:")
}
