package openai

import (
	"github.com/poiesic/newsdesk/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Local OpenAI-compatible servers don't require authentication but the client insists on a token.
const noToken = "none"

func token(config *ai.Config) string {
	if config.APIKey == "" {
		return noToken
	}
	return config.APIKey
}

// newReasoningClient creates the chat client shared by planner and report writer.
func newReasoningClient(config *ai.Config) (*openai.LLM, error) {
	return openai.New(
		openai.WithBaseURL(config.ReasoningHost),
		openai.WithToken(token(config)),
		openai.WithModel(config.ReasoningModel),
		openai.WithHTTPClient(config.HTTPClient()),
	)
}
