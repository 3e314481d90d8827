// Copyright 2025 SeisSparrow
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

// Package storage provides the storage abstraction layer for indexed transcripts.
//
// This package defines repository interfaces that decouple storage
// implementations from the ingestion pipeline:
//
//   - DocumentIndexer: the append-style write used by the indexing batcher
//   - VectorSearcher: vector similarity search
//   - DocumentRepository: reads and maintenance on an embedded store
//   - ManifestRepository: the ledger of ingestion runs and what they lost
//
// # Backends
//
//   - storage/badger: embedded document store with a brute-force vector scan
//   - storage/elastic: Elasticsearch indexer
//   - storage/sqlite: run ledger
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
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
