package ai

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *core.ResearchPlan
	}{
		{
			name:  "plain JSON",
			input: `{"search_queries": ["fed rate decision"], "stock_tickers": ["JPM"]}`,
			want:  &core.ResearchPlan{SearchQueries: []string{"fed rate decision"}, StockTickers: []string{"JPM"}},
		},
		{
			name:  "fenced JSON",
			input: "```json\n{\"search_queries\": [\"oil supply\"], \"stock_tickers\": []}\n```",
			want:  &core.ResearchPlan{SearchQueries: []string{"oil supply"}, StockTickers: []string{}},
		},
		{
			name:  "missing opening quotes on keys",
			input: `{search_queries": ["ai chips"], stock_tickers": ["nvda", "NVDA"]}`,
			want:  &core.ResearchPlan{SearchQueries: []string{"ai chips"}, StockTickers: []string{"NVDA"}},
		},
		{
			name:  "commas inside values survive repair",
			input: `{"search_queries": ["rates, inflation outlook"], "stock_tickers": []}`,
			want:  &core.ResearchPlan{SearchQueries: []string{"rates, inflation outlook"}, StockTickers: []string{}},
		},
		{
			name:  "missing fields decode to empty",
			input: `{}`,
			want:  &core.ResearchPlan{SearchQueries: []string{}, StockTickers: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePlan(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodePlan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodePlan_Errors(t *testing.T) {
	_, err := DecodePlan("   ")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = DecodePlan("Sure! Here is your plan.")
	assert.ErrorIs(t, err, ErrMalformedPlan)

	_, err = DecodePlan(`{"search_queries": "not a list"}`)
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1}  `))
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing opening quote", `{type": "x"}`, `{"type": "x"}`},
		{"missing opening quote after comma", `{"a": 1, b": 2}`, `{"a": 1, "b": 2}`},
		{"bare keys", `{search_queries: ["x"], stock_tickers: []}`, `{"search_queries": ["x"], "stock_tickers": []}`},
		{"trailing commas", `{"a": ["x", "y",], }`, `{"a": ["x", "y"] }`},
		{"bare values in arrays", `{"a": [true, null]}`, `{"a": [true, null]}`},
		{"strings untouched", `{"a": "{b: c,}", "d": "say \"hi\", ok"}`, `{"a": "{b: c,}", "d": "say \"hi\", ok"}`},
		{"valid JSON untouched", `{"a": [1, 2]}`, `{"a": [1, 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.input))
		})
	}
}

func TestDecodePlan_SurroundingProse(t *testing.T) {
	got, err := DecodePlan(`Here is the plan: {search_queries: ["chip tariffs"], stock_tickers: ["tsm",],} Hope it helps.`)
	require.NoError(t, err)
	assert.Equal(t, []string{"chip tariffs"}, got.SearchQueries)
	assert.Equal(t, []string{"TSM"}, got.StockTickers)
}
