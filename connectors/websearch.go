package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
)

const (
	// WebSearchName labels Tavily results and metrics.
	WebSearchName = "tavily"

	tavilyBaseURL    = "https://api.tavily.com"
	tavilyDepth      = "advanced"
	tavilyMaxResults = 7
)

// WebSearch runs general web searches through Tavily and ingests the result bodies.
type WebSearch struct {
	apiKey string
	sink   Sink
	opts   options
}

var _ Searcher = (*WebSearch)(nil)

// NewWebSearch creates the connector. An empty apiKey yields KindNotConfigured on every call.
func NewWebSearch(apiKey string, sink Sink, opts ...Option) *WebSearch {
	return &WebSearch{
		apiKey: strings.TrimSpace(apiKey),
		sink:   sink,
		opts:   buildOptions(WebSearchName, tavilyBaseURL, opts),
	}
}

// Name implements Searcher.
func (w *WebSearch) Name() string { return WebSearchName }

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

type tavilyError struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

// Search ingests the content of up to 7 results for query under today's date.
func (w *WebSearch) Search(ctx context.Context, query string) Result {
	return guard(WebSearchName, w.opts.logger, func() Result {
		return w.search(ctx, query)
	})
}

func (w *WebSearch) search(ctx context.Context, query string) Result {
	if w.apiKey == "" {
		return Result{Connector: WebSearchName, Kind: KindNotConfigured,
			Message: "TAVILY_API_KEY environment variable not set. Cannot use this tool."}
	}

	body, err := w.opts.postJSON(ctx, w.opts.baseURL+"/search", w.apiKey, tavilyRequest{
		Query:       query,
		SearchDepth: tavilyDepth,
		MaxResults:  tavilyMaxResults,
	})
	if err != nil {
		kind := KindTransport
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			kind = KindProvider
			var te tavilyError
			if json.Unmarshal(statusErr.Body, &te) == nil && te.Detail.Error != "" {
				err = fmt.Errorf("%w: %s", err, te.Detail.Error)
			}
		}
		return Result{Connector: WebSearchName, Kind: kind, Err: err,
			Message: fmt.Sprintf("An error occurred during the Tavily search: %v", err)}
	}

	var resp tavilyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{Connector: WebSearchName, Kind: KindMalformed, Err: err,
			Message: fmt.Sprintf("An error occurred during the Tavily search: %v", err)}
	}
	if len(resp.Results) == 0 {
		return Result{Connector: WebSearchName, Kind: KindEmpty, Message: "Tavily search returned no results."}
	}

	// Tavily gives no publish dates, so results are filed under the search date
	searchDate := core.DateFromTime(w.opts.now())

	items := make([]ingestion.Item, 0, len(resp.Results))
	skipped := 0
	for _, res := range resp.Results {
		content := strings.TrimSpace(res.Content)
		if content == "" {
			skipped++
			continue
		}
		items = append(items, ingestion.Item{
			Text:   content,
			URL:    res.URL,
			Date:   searchDate,
			Source: core.SourceWebSearch,
		})
	}

	return store(ctx, w.sink, WebSearchName, items, skipped, func(count int) string {
		return fmt.Sprintf("Loaded %d search results from Tavily into the vector store.", count)
	})
}
