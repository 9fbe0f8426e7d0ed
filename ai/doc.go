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

// Package ai provides abstractions for the AI services used by newsdesk.
//
// The package defines the interfaces the rest of the module depends on, plus
// the prompts and plan decoding every provider shares:
//
//   - Embedder: generates vector embeddings from text
//   - Planner: turns a user query into a core.ResearchPlan
//   - ReportWriter: synthesizes the final report from gathered evidence
//   - AIProvider: aggregates the three for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: any OpenAI-compatible API via langchaingo (OpenAI, Ollama, vLLM)
//   - ai/gemini: Google Gemini via the genai SDK
//   - ai/embcache: a caching Embedder decorator backed by storage.EmbeddingCache
//   - ai/mock: test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, gemini.NewProvider, etc.) return
// INTERFACE types to prevent accidental coupling to a concrete backend.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockPlanner)
// return CONCRETE types so tests can inject behavior and assert call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	plan, err := provider.Planner().Plan(ctx, "What moved oil prices this week?")
package ai
