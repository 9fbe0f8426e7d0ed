package connectors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// recordingSink captures items and assigns fake IDs.
type recordingSink struct {
	mu    sync.Mutex
	items []ingestion.Item
	err   error
}

func (s *recordingSink) UpsertItems(_ context.Context, items ...ingestion.Item) ([]*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	docs := make([]*core.Document, len(items))
	for i, item := range items {
		s.items = append(s.items, item)
		docs[i] = &core.Document{Id: core.ID(len(s.items)), Text: item.Text, URL: item.URL, Source: item.Source}
	}
	return docs, nil
}

func (s *recordingSink) Items() []ingestion.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingestion.Item(nil), s.items...)
}

var errDiskFull = errors.New("disk full")

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// deadURL returns the URL of a server that has already been shut down.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func normalized(d core.DateInput) string {
	s, _ := core.NormalizeDateAt(d, testNow)
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
