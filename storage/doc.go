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

// Package storage provides the storage abstraction layer for newsdesk.
//
// The package defines repository interfaces that decouple the vector store
// from ingestion, retrieval and re-embedding. The BadgerDB implementation
// lives in storage/badger.
//
// # Architecture
//
//   - DocumentRepository: the append-only, time-indexed document store with
//     similarity search constrained to a recency cutoff
//   - EmbeddingCache: content-hash keyed vectors, used to avoid paying for
//     the same embedding twice
//   - CheckpointRepository: progress markers for batch jobs such as re-embedding
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	docs, err := badger.NewDocumentRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	defer repos.Close()
//
// # Serialization
//
// Documents and checkpoints are stored as JSON. IDs are fixed-width
// big-endian so that index keys sort numerically; cached vectors are packed
// little-endian float32s.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
