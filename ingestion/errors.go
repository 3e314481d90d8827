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

package ingestion

import "errors"

var (
	// ErrIndexerRequired is returned when a document indexer is not provided.
	ErrIndexerRequired = errors.New("document indexer required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrIngesterRequired is returned when a watcher has nothing to feed files to.
	ErrIngesterRequired = errors.New("ingester required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingMismatch indicates the embedder returned a different number of vectors than texts.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")

	// ErrEmbedding indicates a batch could not be embedded within the retry budget.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDocumentWrite indicates a document could not be written within the retry budget.
	ErrDocumentWrite = errors.New("document write failed")

	// ErrIngestInProgress is returned when another process holds the ingest lock for the same file.
	ErrIngestInProgress = errors.New("ingestion already in progress for this file")

	// ErrInvalidConfig indicates an ingestion configuration value out of range.
	ErrInvalidConfig = errors.New("invalid ingestion config")
)
