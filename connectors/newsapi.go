package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
)

const (
	// NewsAPIName labels NewsAPI results and metrics.
	NewsAPIName = "newsapi"

	newsAPIBaseURL  = "https://newsapi.org"
	newsAPIPageSize = 30

	// The free NewsAPI tier serves roughly one month of archive.
	newsAPILookback = 29 * 24 * time.Hour
)

// NewsAPI searches mainstream English-language headlines.
type NewsAPI struct {
	apiKey string
	sink   Sink
	opts   options
}

var _ Searcher = (*NewsAPI)(nil)

// NewNewsAPI creates the connector. An empty apiKey yields KindNotConfigured on every call.
func NewNewsAPI(apiKey string, sink Sink, opts ...Option) *NewsAPI {
	return &NewsAPI{
		apiKey: strings.TrimSpace(apiKey),
		sink:   sink,
		opts:   buildOptions(NewsAPIName, newsAPIBaseURL, opts),
	}
}

// Name implements Searcher.
func (n *NewsAPI) Name() string { return NewsAPIName }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Search ingests recent articles for query using the default lookback.
func (n *NewsAPI) Search(ctx context.Context, query string) Result {
	return n.SearchRecent(ctx, query)
}

// SearchRecent searches articles published within the last 29 days.
func (n *NewsAPI) SearchRecent(ctx context.Context, query string) Result {
	from := n.opts.now().UTC().Add(-newsAPILookback).Format(core.DateLayout)
	return n.SearchFrom(ctx, query, from)
}

// SearchFrom searches articles published on or after from (YYYY-MM-DD).
func (n *NewsAPI) SearchFrom(ctx context.Context, query, from string) Result {
	return guard(NewsAPIName, n.opts.logger, func() Result {
		return n.search(ctx, query, from)
	})
}

func (n *NewsAPI) search(ctx context.Context, query, from string) Result {
	if n.apiKey == "" {
		return Result{Connector: NewsAPIName, Kind: KindNotConfigured,
			Message: "NEWSAPI_KEY environment variable not set. Cannot use this tool."}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprint(newsAPIPageSize))

	req, err := newGet(ctx, n.opts.baseURL+"/v2/everything?"+params.Encode())
	if err != nil {
		return Result{Connector: NewsAPIName, Kind: KindMalformed, Err: err,
			Message: fmt.Sprintf("An error occurred during the NewsAPI search: %v", err)}
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	body, fetchErr := n.opts.fetch(req)

	// NewsAPI reports errors in the body of 4xx responses too
	var resp newsAPIResponse
	decodeErr := json.Unmarshal(body, &resp)

	var statusErr *StatusError
	switch {
	case fetchErr != nil && !errors.As(fetchErr, &statusErr):
		return Result{Connector: NewsAPIName, Kind: KindTransport, Err: fetchErr,
			Message: fmt.Sprintf("Failed to connect to NewsAPI: %v", fetchErr)}
	case decodeErr == nil && resp.Status != "ok":
		msg := resp.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return Result{Connector: NewsAPIName, Kind: KindProvider, Err: fmt.Errorf("newsapi %s: %s", resp.Code, msg),
			Message: "Error from NewsAPI: " + msg}
	case fetchErr != nil:
		return Result{Connector: NewsAPIName, Kind: KindTransport, Err: fetchErr,
			Message: fmt.Sprintf("Failed to connect to NewsAPI: %v", fetchErr)}
	case decodeErr != nil:
		return Result{Connector: NewsAPIName, Kind: KindMalformed, Err: decodeErr,
			Message: fmt.Sprintf("An error occurred during the NewsAPI search: %v", decodeErr)}
	}

	items := make([]ingestion.Item, 0, len(resp.Articles))
	skipped := 0
	for _, art := range resp.Articles {
		title, desc := strings.TrimSpace(art.Title), strings.TrimSpace(art.Description)
		if title == "" && desc == "" {
			skipped++
			continue
		}
		items = append(items, ingestion.Item{
			Text:   title + " – " + desc,
			URL:    art.URL,
			Date:   parseTimestamp(art.PublishedAt),
			Source: core.SourceNews,
		})
	}

	return store(ctx, n.sink, NewsAPIName, items, skipped, func(count int) string {
		return fmt.Sprintf("Loaded %d articles from NewsAPI into the vector store.", count)
	})
}

// parseTimestamp keeps the time of day for RFC 3339 values and otherwise
// lets the date normalizer classify the string.
func parseTimestamp(s string) core.DateInput {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		return core.DateFromTime(t)
	}
	return core.DateFromString(s)
}
