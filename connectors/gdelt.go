package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
)

const (
	// GDELTName labels GDELT results and metrics.
	GDELTName = "gdelt"

	gdeltBaseURL    = "https://api.gdeltproject.org"
	gdeltMaxRecords = 30
)

// GDELT searches global web news through the GDELT DOC 2.0 API. No credential is needed.
type GDELT struct {
	sink Sink
	opts options
}

var _ Searcher = (*GDELT)(nil)

// NewGDELT creates the connector.
func NewGDELT(sink Sink, opts ...Option) *GDELT {
	return &GDELT{sink: sink, opts: buildOptions(GDELTName, gdeltBaseURL, opts)}
}

// Name implements Searcher.
func (g *GDELT) Name() string { return GDELTName }

type gdeltResponse struct {
	Articles []struct {
		URL      string `json:"url"`
		Title    string `json:"title"`
		SeenDate string `json:"seendate"`
	} `json:"articles"`
}

// Search ingests up to 30 articles for query.
func (g *GDELT) Search(ctx context.Context, query string) Result {
	return guard(GDELTName, g.opts.logger, func() Result {
		return g.search(ctx, query)
	})
}

func (g *GDELT) search(ctx context.Context, query string) Result {
	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "ArtList")
	params.Set("maxrecords", fmt.Sprint(gdeltMaxRecords))
	params.Set("format", "json")

	body, err := g.opts.get(ctx, g.opts.baseURL+"/api/v2/doc/doc?"+params.Encode())
	if err != nil {
		return Result{Connector: GDELTName, Kind: KindTransport, Err: err,
			Message: fmt.Sprintf("Failed to connect to GDELT: %v", err)}
	}

	// GDELT answers a query with no matches with an empty body
	var resp gdeltResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return Result{Connector: GDELTName, Kind: KindMalformed, Err: err,
				Message: fmt.Sprintf("An error occurred during the GDELT search: %v", err)}
		}
	}
	if len(resp.Articles) == 0 {
		return Result{Connector: GDELTName, Kind: KindEmpty, Message: "GDELT search returned no articles."}
	}

	items := make([]ingestion.Item, 0, len(resp.Articles))
	skipped := 0
	for _, art := range resp.Articles {
		title := strings.TrimSpace(art.Title)
		if title == "" {
			skipped++
			continue
		}
		items = append(items, ingestion.Item{
			Text:   title,
			URL:    art.URL,
			Date:   core.DateFromString(art.SeenDate),
			Source: core.SourceGlobalEvents,
		})
	}

	return store(ctx, g.sink, GDELTName, items, skipped, func(count int) string {
		return fmt.Sprintf("Loaded %d articles from GDELT into the vector store.", count)
	})
}
