package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/tmc/langchaingo/llms"
)

const maxPlanAttempts = 3

// Planner implements ai.Planner using an OpenAI-compatible chat model in JSON mode.
type Planner struct {
	client llms.Model
	logger *slog.Logger
}

// newPlanner is an internal constructor that returns the concrete type.
func newPlanner(client llms.Model) *Planner {
	return &Planner{
		client: client,
		logger: slog.Default().With("component", "openai-planner"),
	}
}

// NewPlanner creates a new research planner using the provided configuration.
//
// Returns ai.Planner interface to enforce abstraction.
func NewPlanner(config *ai.Config) (ai.Planner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newReasoningClient(config)
	if err != nil {
		return nil, err
	}
	return newPlanner(client), nil
}

// Plan asks the model for a research plan for query.
func (p *Planner) Plan(ctx context.Context, query string) (*core.ResearchPlan, error) {
	systemPrompt, err := ai.ResearchManagerJSONPrompt(query)
	if err != nil {
		return nil, err
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}

	// Try up to 3 times in case of malformed JSON
	var lastErr error
	for attempt := 0; attempt < maxPlanAttempts; attempt++ {
		response, err := p.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			p.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			p.logger.Debug("no choices returned from model", "attempt", attempt+1)
			lastErr = ai.ErrEmptyResponse
			continue
		}

		plan, err := ai.DecodePlan(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			p.logger.Warn("error parsing planner response",
				"attempt", attempt+1,
				"response", response.Choices[0].Content,
				"err", err)
			continue
		}

		p.logger.Debug("research plan ready",
			"queries", len(plan.SearchQueries),
			"tickers", len(plan.StockTickers))
		return plan, nil
	}

	p.logger.Error("failed to parse planner response after retries", "err", lastErr)
	return nil, lastErr
}
