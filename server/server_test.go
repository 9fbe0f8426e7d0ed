package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/connectors"
	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu         sync.Mutex
	ingestArgs []string
	retrieveK  int
	window     int
	countErr   error
}

func (f *fakeService) Run(_ context.Context, query string) core.PipelineState {
	s := core.NewPipelineState(query)
	s = s.WithPlan(&core.ResearchPlan{SearchQueries: []string{"q1"}, StockTickers: []string{"AAPL"}})
	s = s.WithSearchSummary("Loaded 2 search results from Tavily into the vector store.")
	return s.WithFinalReport("report for " + query)
}

func (f *fakeService) Ingest(_ context.Context, connector, input string) (connectors.Result, error) {
	f.mu.Lock()
	f.ingestArgs = []string{connector, input}
	f.mu.Unlock()
	switch connector {
	case "gdelt":
		return connectors.Result{Connector: "gdelt", Kind: connectors.KindOK, Count: 3, Message: "Loaded 3 articles from GDELT into the vector store."}, nil
	case "newsapi":
		return connectors.Result{Connector: "newsapi", Kind: connectors.KindNotConfigured, Message: "NEWSAPI_KEY environment variable not set. Cannot use this tool."}, nil
	case "tavily":
		return connectors.Result{Connector: "tavily", Kind: connectors.KindTransport, Err: errors.New("dial tcp: refused")}, nil
	case "boom":
		return connectors.Result{}, errors.New("boom")
	default:
		return connectors.Result{}, newsdesk.ErrUnknownConnector
	}
}

func (f *fakeService) Quote(_ context.Context, ticker string) connectors.QuoteResult {
	if ticker == "ZZZZ" {
		return connectors.QuoteResult{Ticker: ticker, Kind: connectors.KindEmpty,
			Message: "Could not find data for ticker: ZZZZ. It may be delisted or invalid."}
	}
	return connectors.QuoteResult{Ticker: ticker, Kind: connectors.KindOK,
		Quote: &connectors.Quote{Ticker: ticker, Currency: "USD", Close: 11.5, PreviousClose: 9.5, Change: 2, Volume: 300}}
}

func (f *fakeService) Retrieve(_ context.Context, query string, windowDays, k int) (string, error) {
	f.mu.Lock()
	f.window, f.retrieveK = windowDays, k
	f.mu.Unlock()
	if query == "fail" {
		return "", errors.New("store closed")
	}
	return "Source: R (news)\nContent: " + query + "\nURL: N/A", nil
}

func (f *fakeService) Count(context.Context) (int, error) {
	return 42, f.countErr
}

func newTestServer(t *testing.T, svc Service) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(svc, WithLogger(logger)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestAsk(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/ask", `{"query":"How is Apple doing?"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "How is Apple doing?", body["query"])
	assert.Equal(t, "report for How is Apple doing?", body["report"])
	assert.Equal(t, "Loaded 2 search results from Tavily into the vector store.", body["search_summary"])
	assert.NotEmpty(t, body["run_id"])
	plan := body["plan"].(map[string]any)
	assert.Equal(t, []any{"AAPL"}, plan["stock_tickers"])
}

func TestAsk_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	tests := []struct {
		name string
		body string
	}{
		{"blank query", `{"query":"  "}`},
		{"not json", `query=x`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/v1/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestIngest(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	tests := []struct {
		connector string
		status    int
		outcome   string
	}{
		{"gdelt", http.StatusOK, "ok"},
		{"newsapi", http.StatusServiceUnavailable, "not_configured"},
		{"tavily", http.StatusBadGateway, "transport"},
	}
	for _, tt := range tests {
		t.Run(tt.connector, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/v1/ingest/"+tt.connector, `{"input":"elections"}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.outcome, body["outcome"])
			assert.NotEmpty(t, body["message"])
		})
	}

	svc.mu.Lock()
	assert.Equal(t, []string{"tavily", "elections"}, svc.ingestArgs)
	svc.mu.Unlock()
}

func TestIngest_Errors(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/ingest/bing", `{"input":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/ingest/boom", `{"input":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/ingest/gdelt", `{"input":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuote(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/quotes/AAPL", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, 11.5, body["close"])
	assert.Equal(t, "USD", body["currency"])
	assert.True(t, strings.HasPrefix(body["summary"].(string), "Latest data for AAPL:"))

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/quotes/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "empty", body["outcome"])
}

func TestRetrieve(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/retrieve?q=rates&window_days=7&k=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["evidence"], "Content: rates")
	svc.mu.Lock()
	assert.Equal(t, 7, svc.window)
	assert.Equal(t, 3, svc.retrieveK)
	svc.mu.Unlock()

	for _, bad := range []string{"", "?q=x&k=abc", "?q=x&window_days=-1"} {
		resp, _ := do(t, http.MethodGet, srv.URL+"/v1/retrieve"+bad, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/retrieve?q=fail", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(42), body["documents"])

	down := newTestServer(t, &fakeService{countErr: errors.New("closed")})
	resp, _ = do(t, http.MethodGet, down.URL+"/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	do(t, http.MethodGet, srv.URL+"/healthz", "")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `newsdesk_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	resp, _ := do(t, http.MethodGet, srv.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
