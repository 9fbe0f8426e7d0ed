package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"google.golang.org/genai"
)

const embeddingTaskType = "RETRIEVAL_DOCUMENT"

// models is the part of genai.Models this package calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Provider implements ai.AIProvider, ai.Embedder, ai.Planner and ai.ReportWriter
// on a single genai client.
type Provider struct {
	models         models
	embeddingModel string
	reasoningModel string
	logger         *slog.Logger
}

var (
	_ ai.AIProvider   = (*Provider)(nil)
	_ ai.Embedder     = (*Provider)(nil)
	_ ai.Planner      = (*Provider)(nil)
	_ ai.ReportWriter = (*Provider)(nil)
)

// NewProvider creates a Gemini provider. config.Provider must be ai.ProviderGemini.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(ctx context.Context, config *ai.Config, opts ...Option) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderGemini {
		return nil, fmt.Errorf("%w: gemini provider configured as %q", ai.ErrInvalidConfig, config.Provider)
	}

	o := &options{logger: slog.Default().With("component", "gemini-provider")}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = config.HTTPClient()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newProvider(client.Models, config, o.logger), nil
}

func newProvider(m models, config *ai.Config, logger *slog.Logger) *Provider {
	return &Provider{
		models:         m,
		embeddingModel: config.EmbeddingModel,
		reasoningModel: config.ReasoningModel,
		logger:         logger,
	}
}

// Embedder returns the provider itself.
func (p *Provider) Embedder() ai.Embedder { return p }

// Planner returns the provider itself.
func (p *Provider) Planner() ai.Planner { return p }

// ReportWriter returns the provider itself.
func (p *Provider) ReportWriter() ai.ReportWriter { return p }

// Close is a no-op; the genai client holds no resources beyond its HTTP client.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return nil
}

// Model returns the embedding model identifier.
func (p *Provider) Model() string {
	return p.embeddingModel
}

// EmbedText generates an embedding for a single text.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for multiple texts in one request.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := p.models.EmbedContent(ctx, p.embeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: embeddingTaskType,
	})
	if err != nil {
		p.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: asked for %d embeddings", ai.ErrEmptyResponse, len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: embedding %d is empty", ai.ErrEmptyResponse, i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// planSchema constrains plan output to a ResearchPlan object.
var planSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"search_queries": {
			Type:        genai.TypeArray,
			Description: ai.SearchQueriesDescription,
			Items:       &genai.Schema{Type: genai.TypeString},
		},
		"stock_tickers": {
			Type:        genai.TypeArray,
			Description: ai.StockTickersDescription,
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"search_queries", "stock_tickers"},
}

// Plan asks Gemini for a schema-constrained research plan.
func (p *Provider) Plan(ctx context.Context, query string) (*core.ResearchPlan, error) {
	systemPrompt, err := ai.ResearchManagerPrompt(query)
	if err != nil {
		return nil, err
	}

	result, err := p.models.GenerateContent(ctx, p.reasoningModel,
		[]*genai.Content{genai.NewContentFromText(query, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    planSchema,
		})
	if err != nil {
		p.logger.Error("failed to generate plan", "err", err)
		return nil, err
	}

	plan, err := ai.DecodePlan(responseText(result))
	if err != nil {
		p.logger.Warn("error parsing planner response", "err", err)
		return nil, err
	}
	return plan, nil
}

// WriteReport renders the analyst prompt and returns Gemini's answer.
func (p *Provider) WriteReport(ctx context.Context, req ai.ReportRequest) (string, error) {
	prompt, err := ai.AnalystPrompt(req)
	if err != nil {
		return "", err
	}

	result, err := p.models.GenerateContent(ctx, p.reasoningModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		p.logger.Error("failed to generate report", "err", err)
		return "", err
	}

	report := strings.TrimSpace(responseText(result))
	if report == "" {
		return "", ai.ErrEmptyResponse
	}
	return report, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	return result.Text()
}
