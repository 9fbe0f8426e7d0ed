package core

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ResearchPlan is the reasoning engine's breakdown of a user query.
// It lives only for the duration of one pipeline run.
type ResearchPlan struct {
	SearchQueries []string `json:"search_queries"`
	StockTickers  []string `json:"stock_tickers"`
}

// Normalize trims queries, drops blanks, and reduces tickers to an
// upper-case set in first-seen order.
func (p *ResearchPlan) Normalize() {
	queries := make([]string, 0, len(p.SearchQueries))
	for _, q := range p.SearchQueries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	p.SearchQueries = queries

	tickers := make([]string, 0, len(p.StockTickers))
	for _, t := range p.StockTickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !slices.Contains(tickers, t) {
			tickers = append(tickers, t)
		}
	}
	p.StockTickers = tickers
}

// FirstQuery returns the first planned search query, if any.
func (p *ResearchPlan) FirstQuery() (string, bool) {
	if p == nil || len(p.SearchQueries) == 0 {
		return "", false
	}
	return p.SearchQueries[0], true
}

// Clone returns a deep copy. A nil plan clones to an empty plan.
func (p *ResearchPlan) Clone() *ResearchPlan {
	if p == nil {
		return &ResearchPlan{SearchQueries: []string{}, StockTickers: []string{}}
	}
	return &ResearchPlan{
		SearchQueries: append([]string{}, p.SearchQueries...),
		StockTickers:  append([]string{}, p.StockTickers...),
	}
}

// Stage is a state of the research pipeline.
type Stage int

const (
	StagePlan Stage = iota + 1
	StageSearch
	StageSynthesize
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePlan:
		return "plan"
	case StageSearch:
		return "search"
	case StageSynthesize:
		return "synthesize"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// PipelineState is the record threaded through one research run.
// It is passed by value; each stage returns a new version with exactly
// the field it owns filled in and the stage advanced.
type PipelineState struct {
	RunID         string
	OriginalQuery string
	Stage         Stage
	Plan          *ResearchPlan
	SearchSummary string
	FinalReport   string
}

// NewPipelineState starts a run for query.
func NewPipelineState(query string) PipelineState {
	return PipelineState{
		RunID:         uuid.NewString(),
		OriginalQuery: query,
		Stage:         StagePlan,
	}
}

// WithPlan returns a copy carrying plan and positioned at the Search stage.
func (s PipelineState) WithPlan(plan *ResearchPlan) PipelineState {
	s.Plan = plan.Clone()
	s.Stage = StageSearch
	return s
}

// WithSearchSummary returns a copy carrying summary and positioned at the Synthesize stage.
func (s PipelineState) WithSearchSummary(summary string) PipelineState {
	s.Plan = s.Plan.Clone()
	s.SearchSummary = summary
	s.Stage = StageSynthesize
	return s
}

// WithFinalReport returns a copy carrying report and marked done.
func (s PipelineState) WithFinalReport(report string) PipelineState {
	s.Plan = s.Plan.Clone()
	s.FinalReport = report
	s.Stage = StageDone
	return s
}
