// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Planner,
// ai.ReportWriter and ai.AIProvider for use in unit tests. The mocks let tests
// run without a model server and give controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	planner := mock.NewMockPlanner()
//	planner.PlanFunc = func(ctx context.Context, q string) (*core.ResearchPlan, error) {
//	    return &core.ResearchPlan{StockTickers: []string{"AAPL"}}, nil
//	}
//
// # Default Behavior
//
//   - MockEmbedder: unit vectors derived from an FNV hash of the text
//   - MockPlanner: the query as the single search query, no tickers
//   - MockReportWriter: the rendered analyst prompt
//
// All mocks are safe for concurrent use.
package mock
