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

// Package retrieval finds recent evidence for a question in the document store.
//
// The Retriever embeds the query, asks the store for the most similar
// documents newer than a recency cutoff, and renders them as the evidence
// block consumed by the report prompt. An empty result is reported with the
// NoResults sentinel string rather than an empty string or an error.
package retrieval
