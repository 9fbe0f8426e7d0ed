package mock

import (
	"context"
	"sync"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
)

// MockPlanner is a test double for ai.Planner.
type MockPlanner struct {
	// PlanFunc is called by Plan if set.
	// If nil, the query itself becomes the only search query and no tickers are named.
	PlanFunc func(ctx context.Context, query string) (*core.ResearchPlan, error)

	mu        sync.Mutex
	callCount int
}

// NewMockPlanner creates a mock planner with default behavior.
func NewMockPlanner() *MockPlanner {
	return &MockPlanner{}
}

// Plan returns the injected or default plan.
func (m *MockPlanner) Plan(ctx context.Context, query string) (*core.ResearchPlan, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.PlanFunc != nil {
		return m.PlanFunc(ctx, query)
	}
	plan := &core.ResearchPlan{SearchQueries: []string{query}}
	plan.Normalize()
	return plan, nil
}

// CallCount returns the number of Plan calls.
func (m *MockPlanner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// MockReportWriter is a test double for ai.ReportWriter.
type MockReportWriter struct {
	// WriteReportFunc is called by WriteReport if set.
	// If nil, the rendered analyst prompt is returned, which lets tests
	// assert on exactly what the model would have seen.
	WriteReportFunc func(ctx context.Context, req ai.ReportRequest) (string, error)

	mu       sync.Mutex
	requests []ai.ReportRequest
}

// NewMockReportWriter creates a mock report writer with default behavior.
func NewMockReportWriter() *MockReportWriter {
	return &MockReportWriter{}
}

// WriteReport records req and returns the injected or default report.
func (m *MockReportWriter) WriteReport(ctx context.Context, req ai.ReportRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.WriteReportFunc != nil {
		return m.WriteReportFunc(ctx, req)
	}
	return ai.AnalystPrompt(req)
}

// CallCount returns the number of WriteReport calls.
func (m *MockReportWriter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, if any.
func (m *MockReportWriter) LastRequest() (ai.ReportRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ai.ReportRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}
