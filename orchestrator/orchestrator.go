package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/connectors"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/metrics"
	"github.com/poiesic/newsdesk/retrieval"
	"github.com/poiesic/newsdesk/workers"
)

// Placeholders recorded when a stage cannot do its work.
const (
	NoQueriesSummary    = "No search queries were provided in the plan."
	SearchFailedSummary = "Failed to retrieve search results."
	ReportFailed        = "A report could not be generated."
)

// DefaultStageTimeout bounds each stage of a run.
const DefaultStageTimeout = 2 * time.Minute

// Retriever produces the evidence block for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, windowDays, k int) (string, error)
}

// QuoteLookup fetches market data for one ticker.
type QuoteLookup interface {
	Lookup(ctx context.Context, ticker string) connectors.QuoteResult
}

// Stage transforms a pipeline state into the next one.
type Stage func(ctx context.Context, state core.PipelineState) core.PipelineState

// Orchestrator runs research pipelines. It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	planner    ai.Planner
	searcher   connectors.Searcher
	retriever  Retriever
	quotes     QuoteLookup
	writer     ai.ReportWriter
	pool       *workers.Pool
	windowDays int
	k          int
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithPool fans ticker lookups out on pool. Without a pool they run one after another.
func WithPool(pool *workers.Pool) Option {
	return func(o *Orchestrator) error {
		o.pool = pool
		return nil
	}
}

// WithRetrievalWindow sets the recency window in days and the number of documents retrieved.
// Non-positive values keep the retrieval defaults.
func WithRetrievalWindow(windowDays, k int) Option {
	return func(o *Orchestrator) error {
		if windowDays > 0 {
			o.windowDays = windowDays
		}
		if k > 0 {
			o.k = k
		}
		return nil
	}
}

// WithStageTimeout bounds each stage by d. A stage that runs out of time
// records its placeholder and the run moves on. Zero disables the bound.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d < 0 {
			return fmt.Errorf("stage timeout must not be negative: %v", d)
		}
		o.timeout = d
		return nil
	}
}

// New creates an orchestrator. searcher is the connector used by the Search stage.
func New(planner ai.Planner, searcher connectors.Searcher, retriever Retriever, quotes QuoteLookup, writer ai.ReportWriter, opts ...Option) (*Orchestrator, error) {
	switch {
	case planner == nil:
		return nil, ErrPlannerRequired
	case searcher == nil:
		return nil, ErrSearcherRequired
	case retriever == nil:
		return nil, ErrRetrieverRequired
	case quotes == nil:
		return nil, ErrQuotesRequired
	case writer == nil:
		return nil, ErrReportWriterRequired
	}

	o := &Orchestrator{
		planner:    planner,
		searcher:   searcher,
		retriever:  retriever,
		quotes:     quotes,
		writer:     writer,
		windowDays: retrieval.DefaultWindowDays,
		k:          retrieval.DefaultK,
		timeout:    DefaultStageTimeout,
		logger:     slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Ask runs the pipeline for query and returns the final report.
func (o *Orchestrator) Ask(ctx context.Context, query string) string {
	return o.Run(ctx, query).FinalReport
}

// Run drives a fresh state through every stage. The returned state is always Done.
func (o *Orchestrator) Run(ctx context.Context, query string) (state core.PipelineState) {
	state = core.NewPipelineState(query)
	logger := o.logger.With("run_id", state.RunID)
	logger.Info("research run started", "query", query)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("research run panicked", "stage", state.Stage.String(), "panic", p)
			metrics.PipelineRunsTotal.WithLabelValues("panic").Inc()
			state = state.WithFinalReport(ReportFailed)
		}
	}()

	state = o.runStage(ctx, logger, state, o.Plan, func(s core.PipelineState) core.PipelineState {
		return s.WithPlan(nil)
	})
	state = o.runStage(ctx, logger, state, o.Search, func(s core.PipelineState) core.PipelineState {
		return s.WithSearchSummary(SearchFailedSummary)
	})
	state = o.runStage(ctx, logger, state, o.Synthesize, func(s core.PipelineState) core.PipelineState {
		return s.WithFinalReport(ReportFailed)
	})

	result := "ok"
	if state.FinalReport == ReportFailed {
		result = "degraded"
	}
	metrics.PipelineRunsTotal.WithLabelValues(result).Inc()
	logger.Info("research run finished", "result", result)
	return state
}

// runStage runs stage under the stage timeout, replacing a panic with fallback(state).
func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, state core.PipelineState, stage Stage, fallback func(core.PipelineState) core.PipelineState) (next core.PipelineState) {
	name := state.Stage.String()
	start := time.Now()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("stage panicked", "stage", name, "panic", p)
			next = fallback(state)
		}
		metrics.PipelineStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	return stage(ctx, state)
}

// Plan asks the reasoning engine for a research plan. Failures yield an empty plan.
func (o *Orchestrator) Plan(ctx context.Context, state core.PipelineState) core.PipelineState {
	plan, err := o.planner.Plan(ctx, state.OriginalQuery)
	if err != nil {
		o.logger.Warn("planning failed, continuing with an empty plan", "run_id", state.RunID, "err", err)
		return state.WithPlan(nil)
	}
	o.logger.Debug("research plan", "run_id", state.RunID,
		"queries", len(plan.SearchQueries), "tickers", plan.StockTickers)
	return state.WithPlan(plan)
}

// Search ingests documents for the first planned query through the configured connector.
func (o *Orchestrator) Search(ctx context.Context, state core.PipelineState) core.PipelineState {
	query, ok := state.Plan.FirstQuery()
	if !ok {
		return state.WithSearchSummary(NoQueriesSummary)
	}

	summary, err := o.search(ctx, query)
	if err != nil {
		o.logger.Error("search connector failed", "run_id", state.RunID, "connector", o.searcher.Name(), "err", err)
		return state.WithSearchSummary(SearchFailedSummary)
	}
	return state.WithSearchSummary(summary)
}

func (o *Orchestrator) search(ctx context.Context, query string) (summary string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	res := o.searcher.Search(ctx, query)
	o.logger.Info("search finished", "connector", o.searcher.Name(), "query", query,
		"outcome", res.Kind.String(), "count", res.Count)
	return res.Summary(), nil
}

// Synthesize gathers fresh evidence and market data and writes the final report.
func (o *Orchestrator) Synthesize(ctx context.Context, state core.PipelineState) core.PipelineState {
	evidence, err := o.retriever.Retrieve(ctx, state.OriginalQuery, o.windowDays, o.k)
	if err != nil {
		o.logger.Warn("retrieval failed", "run_id", state.RunID, "err", err)
		evidence = retrieval.NoResults
	}

	var tickers []string
	if state.Plan != nil {
		tickers = state.Plan.StockTickers
	}

	report, err := o.writer.WriteReport(ctx, ai.ReportRequest{
		Query:        state.OriginalQuery,
		NewsContext:  evidence,
		StockContext: o.stockContext(ctx, tickers),
	})
	if err != nil || strings.TrimSpace(report) == "" {
		o.logger.Error("report generation failed", "run_id", state.RunID, "err", err)
		return state.WithFinalReport(ReportFailed)
	}
	return state.WithFinalReport(report)
}

// stockContext looks up every ticker and joins the summaries in plan order.
func (o *Orchestrator) stockContext(ctx context.Context, tickers []string) string {
	if len(tickers) == 0 {
		return ai.NoStockData
	}

	var results []connectors.QuoteResult
	if o.pool != nil {
		results = workers.Map(ctx, o.pool, tickers, o.quotes.Lookup)
	} else {
		for _, t := range tickers {
			results = append(results, o.quotes.Lookup(ctx, t))
		}
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		summary := r.Summary()
		if summary == "" {
			summary = fmt.Sprintf("Could not find data for ticker: %s. It may be delisted or invalid.", tickers[i])
		}
		parts = append(parts, summary)
	}
	return strings.Join(parts, "\n\n")
}
