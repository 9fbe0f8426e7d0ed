package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/config"
	"github.com/poiesic/newsdesk/connectors"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/metrics"
)

const maxBodyBytes = 1 << 20

// Service is the part of *newsdesk.Newsdesk the API needs.
type Service interface {
	Run(ctx context.Context, query string) core.PipelineState
	Ingest(ctx context.Context, connector, input string) (connectors.Result, error)
	Quote(ctx context.Context, ticker string) connectors.QuoteResult
	Retrieve(ctx context.Context, query string, windowDays, k int) (string, error)
	Count(ctx context.Context) (int, error)
}

var _ Service = (*newsdesk.Newsdesk)(nil)

// Server routes HTTP requests to a Service.
type Server struct {
	svc    Service
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server for svc and registers the newsdesk collectors with the default registry.
func New(svc Service, opts ...Option) *Server {
	metrics.Register()
	s := &Server{
		svc:    svc,
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with request ID, logging, recovery and metrics middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.requestLog)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.ask)
		r.Post("/ingest/{connector}", s.ingest)
		r.Get("/quotes/{ticker}", s.quote)
		r.Get("/retrieve", s.retrieve)
	})
	return r
}

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.HTTPConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLog emits one line per request and echoes the request ID.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"latency", time.Since(start),
			"bytes", ww.BytesWritten())
	})
}

type askRequest struct {
	Query string `json:"query"`
}

type planResponse struct {
	SearchQueries []string `json:"search_queries"`
	StockTickers  []string `json:"stock_tickers"`
}

type askResponse struct {
	RunID         string       `json:"run_id"`
	Query         string       `json:"query"`
	Plan          planResponse `json:"plan"`
	SearchSummary string       `json:"search_summary"`
	Report        string       `json:"report"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	state := s.svc.Run(r.Context(), req.Query)
	plan := state.Plan.Clone()
	writeJSON(w, http.StatusOK, askResponse{
		RunID:         state.RunID,
		Query:         state.OriginalQuery,
		Plan:          planResponse{SearchQueries: plan.SearchQueries, StockTickers: plan.StockTickers},
		SearchSummary: state.SearchSummary,
		Report:        state.FinalReport,
	})
}

type ingestRequest struct {
	Input string `json:"input"`
}

type resultResponse struct {
	Connector string `json:"connector"`
	Outcome   string `json:"outcome"`
	Count     int    `json:"count"`
	Skipped   int    `json:"skipped"`
	Message   string `json:"message"`
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	res, err := s.svc.Ingest(r.Context(), chi.URLParam(r, "connector"), req.Input)
	if errors.Is(err, newsdesk.ErrUnknownConnector) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("ingest failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, statusFor(res.Kind), resultResponse{
		Connector: res.Connector,
		Outcome:   res.Kind.String(),
		Count:     res.Count,
		Skipped:   res.Skipped,
		Message:   res.Summary(),
	})
}

type quoteResponse struct {
	Ticker        string  `json:"ticker"`
	Outcome       string  `json:"outcome"`
	Currency      string  `json:"currency,omitempty"`
	Close         float64 `json:"close,omitempty"`
	PreviousClose float64 `json:"previous_close,omitempty"`
	Change        float64 `json:"change,omitempty"`
	ChangePercent float64 `json:"change_percent,omitempty"`
	DayHigh       float64 `json:"day_high,omitempty"`
	DayLow        float64 `json:"day_low,omitempty"`
	Volume        int64   `json:"volume,omitempty"`
	Summary       string  `json:"summary"`
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	res := s.svc.Quote(r.Context(), chi.URLParam(r, "ticker"))

	resp := quoteResponse{Ticker: res.Ticker, Outcome: res.Kind.String(), Summary: res.Summary()}
	if q := res.Quote; q != nil {
		resp.Currency = q.Currency
		resp.Close = q.Close
		resp.PreviousClose = q.PreviousClose
		resp.Change = q.Change
		resp.ChangePercent = q.ChangePercent
		resp.DayHigh = q.DayHigh
		resp.DayLow = q.DayLow
		resp.Volume = q.Volume
	}

	status := statusFor(res.Kind)
	if res.Kind == connectors.KindEmpty {
		status = http.StatusNotFound
	}
	writeJSON(w, status, resp)
}

type retrieveResponse struct {
	Query    string `json:"query"`
	Evidence string `json:"evidence"`
}

func (s *Server) retrieve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	windowDays, ok := intParam(w, q.Get("window_days"), "window_days")
	if !ok {
		return
	}
	k, ok := intParam(w, q.Get("k"), "k")
	if !ok {
		return
	}

	evidence, err := s.svc.Retrieve(r.Context(), query, windowDays, k)
	if err != nil {
		s.logger.Error("retrieve failed", "query", query, "err", err)
		writeError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}
	writeJSON(w, http.StatusOK, retrieveResponse{Query: query, Evidence: evidence})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "documents": n})
}

// statusFor maps a connector outcome onto an HTTP status.
func statusFor(k connectors.Kind) int {
	switch k {
	case connectors.KindOK, connectors.KindEmpty:
		return http.StatusOK
	case connectors.KindNotConfigured:
		return http.StatusServiceUnavailable
	case connectors.KindMalformed:
		return http.StatusUnprocessableEntity
	case connectors.KindTransport, connectors.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
