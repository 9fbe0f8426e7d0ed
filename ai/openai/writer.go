package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/newsdesk/ai"
	"github.com/tmc/langchaingo/llms"
)

// ReportWriter implements ai.ReportWriter using an OpenAI-compatible chat model.
type ReportWriter struct {
	client llms.Model
	logger *slog.Logger
}

func newReportWriter(client llms.Model) *ReportWriter {
	return &ReportWriter{
		client: client,
		logger: slog.Default().With("component", "openai-writer"),
	}
}

// NewReportWriter creates a new report writer using the provided configuration.
//
// Returns ai.ReportWriter interface to enforce abstraction.
func NewReportWriter(config *ai.Config) (ai.ReportWriter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newReasoningClient(config)
	if err != nil {
		return nil, err
	}
	return newReportWriter(client), nil
}

// WriteReport renders the analyst prompt and returns the model's answer.
func (w *ReportWriter) WriteReport(ctx context.Context, req ai.ReportRequest) (string, error) {
	prompt, err := ai.AnalystPrompt(req)
	if err != nil {
		return "", err
	}

	response, err := w.client.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		w.logger.Error("failed to generate report", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}

	report := strings.TrimSpace(response.Choices[0].Content)
	if report == "" {
		return "", ai.ErrEmptyResponse
	}
	w.logger.Debug("report written", "length", len(report))
	return report, nil
}
