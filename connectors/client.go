package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 30 * time.Second

	userAgent = "newsdesk/1.0 (+https://github.com/poiesic/newsdesk)"

	// Provider responses larger than this are truncated and will fail to decode.
	maxBodyBytes = 8 << 20
)

// StatusError is returned for non-2xx responses. Body holds the start of the response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// NewHTTPClient returns the client shared by all connectors.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Option configures a connector.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// WithBaseURL points the connector at a different endpoint root.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(name, baseURL string, opts []Option) options {
	o := options{
		baseURL: baseURL,
		now:     time.Now,
		logger:  slog.Default().With("component", "connector", "connector", name),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = NewHTTPClient()
	}
	return o
}

// fetch executes req and returns the response body.
// Non-2xx responses return the body together with a *StatusError.
func (o *options) fetch(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)

	o.logger.DebugContext(req.Context(), "request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path)
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	o.logger.DebugContext(req.Context(), "response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}
	return body, nil
}

func (o *options) get(ctx context.Context, url string) ([]byte, error) {
	req, err := newGet(ctx, url)
	if err != nil {
		return nil, err
	}
	return o.fetch(req)
}

func (o *options) postJSON(ctx context.Context, url, bearer string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return o.fetch(req)
}

// guard converts a panic in fn into a transport-kind result so no connector
// failure escapes its boundary.
func guard(name string, logger *slog.Logger, fn func() Result) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("connector panicked", "panic", p)
			r = Result{Connector: name, Kind: KindTransport, Err: fmt.Errorf("panic: %v", p),
				Message: fmt.Sprintf("An unexpected error occurred in the %s connector: %v", name, p)}
		}
		record(r)
	}()
	return fn()
}

func newGet(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}
