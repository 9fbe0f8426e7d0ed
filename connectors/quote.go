package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// QuoteName labels market quote results and metrics.
	QuoteName = "quote"

	yahooBaseURL = "https://query1.finance.yahoo.com"
)

// Quote is the latest daily bar for a ticker.
type Quote struct {
	Ticker        string
	Currency      string
	Close         float64
	PreviousClose float64
	Change        float64
	ChangePercent float64
	DayHigh       float64
	DayLow        float64
	Volume        int64
}

// QuoteResult is the outcome of one quote lookup. Quote is set only for KindOK.
type QuoteResult struct {
	Ticker  string
	Kind    Kind
	Quote   *Quote
	Message string
	Err     error
}

// Summary renders the quote block used as stock context in reports.
func (r QuoteResult) Summary() string {
	if r.Kind == KindOK && r.Quote != nil {
		return r.Quote.String()
	}
	return r.Message
}

// String renders the quote in the fixed multi-line layout.
func (q *Quote) String() string {
	return fmt.Sprintf("Latest data for %s:\nClosing Price: $%.2f\nChange: $%.2f (%.2f%%)\nDay's High: $%.2f\nDay's Low: $%.2f\nVolume: %s",
		q.Ticker, q.Close, q.Change, q.ChangePercent, q.DayHigh, q.DayLow, humanize.Comma(q.Volume))
}

// MarketQuote looks up daily price data. It never writes to the store.
type MarketQuote struct {
	opts options
}

// NewMarketQuote creates the lookup.
func NewMarketQuote(opts ...Option) *MarketQuote {
	return &MarketQuote{opts: buildOptions(QuoteName, yahooBaseURL, opts)}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Lookup fetches five daily sessions for ticker and reports the latest one,
// with change measured against the previous session's close.
func (m *MarketQuote) Lookup(ctx context.Context, ticker string) (qr QuoteResult) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	defer func() {
		if p := recover(); p != nil {
			m.opts.logger.Error("quote lookup panicked", "ticker", ticker, "panic", p)
			qr = quoteFailure(ticker, KindTransport, fmt.Errorf("panic: %v", p))
		}
		m.opts.logger.Debug("quote lookup", "ticker", ticker, "outcome", qr.Kind.String())
		record(Result{Connector: QuoteName, Kind: qr.Kind})
	}()

	if ticker == "" {
		return QuoteResult{Kind: KindNotConfigured, Message: "No ticker symbol provided."}
	}

	params := url.Values{}
	params.Set("range", "5d")
	params.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", m.opts.baseURL, url.PathEscape(ticker), params.Encode())

	body, err := m.opts.get(ctx, endpoint)
	var statusErr *StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return quoteFailure(ticker, KindTransport, err)
	}

	var resp chartResponse
	if decodeErr := json.Unmarshal(body, &resp); decodeErr != nil {
		if err != nil {
			return quoteFailure(ticker, KindTransport, err)
		}
		return quoteFailure(ticker, KindMalformed, decodeErr)
	}
	// Unknown symbols come back as 404 with a chart error
	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return notFound(ticker)
	}
	if err != nil {
		return quoteFailure(ticker, KindTransport, err)
	}

	res := resp.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return notFound(ticker)
	}
	bars := res.Indicators.Quote[0]

	last := lastIndex(bars.Close, len(bars.Close)-1)
	if last < 0 {
		return notFound(ticker)
	}
	q := &Quote{
		Ticker:   ticker,
		Currency: res.Meta.Currency,
		Close:    *bars.Close[last],
		DayHigh:  valueAt(bars.High, last),
		DayLow:   valueAt(bars.Low, last),
	}
	if last < len(bars.Volume) && bars.Volume[last] != nil {
		q.Volume = *bars.Volume[last]
	}

	q.PreviousClose = q.Close
	if prev := lastIndex(bars.Close, last-1); prev >= 0 {
		q.PreviousClose = *bars.Close[prev]
	}
	q.Change = q.Close - q.PreviousClose
	if q.PreviousClose != 0 {
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}

	return QuoteResult{Ticker: ticker, Kind: KindOK, Quote: q}
}

// lastIndex returns the highest index <= from holding a value, or -1.
func lastIndex(values []*float64, from int) int {
	for i := min(from, len(values)-1); i >= 0; i-- {
		if values[i] != nil {
			return i
		}
	}
	return -1
}

func valueAt(values []*float64, i int) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}

func notFound(ticker string) QuoteResult {
	return QuoteResult{Ticker: ticker, Kind: KindEmpty,
		Message: fmt.Sprintf("Could not find data for ticker: %s. It may be delisted or invalid.", ticker)}
}

func quoteFailure(ticker string, kind Kind, err error) QuoteResult {
	return QuoteResult{Ticker: ticker, Kind: kind, Err: err,
		Message: fmt.Sprintf("An error occurred while fetching stock data for %s: %v", ticker, err)}
}
