// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import "github.com/poiesic/newsdesk/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, planner and report writer instances.
type MockProvider struct {
	embedder *MockEmbedder
	planner  *MockPlanner
	writer   *MockReportWriter
	closed   bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock accessors to reach concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockPlanner(), NewMockReportWriter())
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, planner *MockPlanner, writer *MockReportWriter) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		planner:  planner,
		writer:   writer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Planner returns the mock planner.
func (p *MockProvider) Planner() ai.Planner {
	return p.planner
}

// ReportWriter returns the mock report writer.
func (p *MockProvider) ReportWriter() ai.ReportWriter {
	return p.writer
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockPlanner returns the underlying mock planner for test assertions.
func (p *MockProvider) GetMockPlanner() *MockPlanner {
	return p.planner
}

// GetMockReportWriter returns the underlying mock report writer for test assertions.
func (p *MockProvider) GetMockReportWriter() *MockReportWriter {
	return p.writer
}
