package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearchPlan_Normalize(t *testing.T) {
	plan := &ResearchPlan{
		SearchQueries: []string{"  interest rate hikes  ", "", "  ", "ECB decision"},
		StockTickers:  []string{"aapl", " AAPL", "msft", "", "Msft", "NVDA"},
	}
	plan.Normalize()

	want := &ResearchPlan{
		SearchQueries: []string{"interest rate hikes", "ECB decision"},
		StockTickers:  []string{"AAPL", "MSFT", "NVDA"},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestResearchPlan_FirstQuery(t *testing.T) {
	var nilPlan *ResearchPlan
	_, ok := nilPlan.FirstQuery()
	assert.False(t, ok)

	_, ok = (&ResearchPlan{}).FirstQuery()
	assert.False(t, ok)

	q, ok := (&ResearchPlan{SearchQueries: []string{"first", "second"}}).FirstQuery()
	require.True(t, ok)
	assert.Equal(t, "first", q)
}

func TestPipelineState_Transitions(t *testing.T) {
	s0 := NewPipelineState("What happened to interest rates this week?")
	assert.NotEmpty(t, s0.RunID)
	assert.Equal(t, StagePlan, s0.Stage)
	assert.Nil(t, s0.Plan)

	plan := &ResearchPlan{SearchQueries: []string{"interest rate hikes this week"}}
	s1 := s0.WithPlan(plan)
	assert.Equal(t, StageSearch, s1.Stage)
	assert.Equal(t, s0.RunID, s1.RunID)
	assert.Equal(t, s0.OriginalQuery, s1.OriginalQuery)

	// The state holds its own copy of the plan.
	plan.SearchQueries[0] = "mutated"
	assert.Equal(t, "interest rate hikes this week", s1.Plan.SearchQueries[0])

	s2 := s1.WithSearchSummary("Loaded 3 search results")
	assert.Equal(t, StageSynthesize, s2.Stage)
	assert.Equal(t, "Loaded 3 search results", s2.SearchSummary)
	assert.Empty(t, s1.SearchSummary, "earlier state is unchanged")

	s2.Plan.SearchQueries[0] = "changed later"
	assert.Equal(t, "interest rate hikes this week", s1.Plan.SearchQueries[0])

	s3 := s2.WithFinalReport("report")
	assert.Equal(t, StageDone, s3.Stage)
	assert.Equal(t, "report", s3.FinalReport)
	assert.Empty(t, s2.FinalReport)
}

func TestPipelineState_NilPlanBecomesEmpty(t *testing.T) {
	s := NewPipelineState("q").WithPlan(nil)
	require.NotNil(t, s.Plan)
	assert.Empty(t, s.Plan.SearchQueries)
	assert.Empty(t, s.Plan.StockTickers)
}

func TestNewPipelineState_UniqueRunIDs(t *testing.T) {
	a := NewPipelineState("q")
	b := NewPipelineState("q")
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "plan", StagePlan.String())
	assert.Equal(t, "search", StageSearch.String())
	assert.Equal(t, "synthesize", StageSynthesize.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "unknown", Stage(0).String())
}
