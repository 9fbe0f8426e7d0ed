package ai

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// NoStockData is the stock context used when the plan names no tickers.
const NoStockData = "No stock data requested."

const researchManagerTemplate = `You are the Research Manager. Your role is to analyze a user's query and create a structured research plan. Based on the query: '{{.original_query}}', generate a list of search queries for the web search specialist and identify any stock tickers. Output ONLY the structured plan.`

// planFormatInstructions is appended for engines that only offer a JSON mode
// rather than schema-constrained output.
const planFormatInstructions = `

Respond with a single JSON object and nothing else, in exactly this shape:
{"search_queries": ["..."], "stock_tickers": ["..."]}

- search_queries: a list of 3-5 concise search queries for the web.
- stock_tickers: a list of any stock ticker symbols mentioned in the query. Use [] when there are none.`

const analystTemplate = `You are a master financial analyst. Your task is to write a clear, concise, and insightful report based *only* on the provided context.

Here is the user's original query:
{{.original_query}}

Here is the context you have gathered from your tools:
---
News Context: {{.context}}
---
Stock Market Context: {{.stock_context}}
---

Synthesize this information into a final report. Do not mention your tools or the context directly. Just provide the report.
If the context is empty or unhelpful, state that you could not find relevant information.`

// Field descriptions shared by schema-constrained providers.
const (
	SearchQueriesDescription = "A list of 3-5 concise search queries for the web."
	StockTickersDescription  = "A list of any stock ticker symbols mentioned in the query."
)

var (
	researchManagerPrompt = prompts.NewPromptTemplate(researchManagerTemplate, []string{"original_query"})
	analystPrompt         = prompts.NewPromptTemplate(analystTemplate, []string{"original_query", "context", "stock_context"})
)

// ResearchManagerPrompt renders the planning system prompt for query.
func ResearchManagerPrompt(query string) (string, error) {
	out, err := researchManagerPrompt.Format(map[string]any{"original_query": query})
	if err != nil {
		return "", fmt.Errorf("render research manager prompt: %w", err)
	}
	return out, nil
}

// ResearchManagerJSONPrompt is ResearchManagerPrompt plus explicit JSON shape instructions.
func ResearchManagerJSONPrompt(query string) (string, error) {
	out, err := ResearchManagerPrompt(query)
	if err != nil {
		return "", err
	}
	return out + planFormatInstructions, nil
}

// AnalystPrompt renders the report prompt. An empty stock context becomes NoStockData.
func AnalystPrompt(req ReportRequest) (string, error) {
	stock := req.StockContext
	if stock == "" {
		stock = NoStockData
	}
	out, err := analystPrompt.Format(map[string]any{
		"original_query": req.Query,
		"context":        req.NewsContext,
		"stock_context":  stock,
	})
	if err != nil {
		return "", fmt.Errorf("render analyst prompt: %w", err)
	}
	return out, nil
}
