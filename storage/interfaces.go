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

package storage

import (
	"context"

	"github.com/SeisSparrow/RAG/core"
)

// DocumentIndexer is the write side of a document store.
// Writes are append-style; callers must not assume upsert semantics.
type DocumentIndexer interface {
	// IndexDocument writes a single document.
	// Failures are treated as transient and may be retried by the caller.
	IndexDocument(ctx context.Context, doc *core.IndexDocument) error
}

// Filter reports whether a document may appear in search results.
type Filter func(doc *core.IndexDocument) bool

// InTimeRange keeps documents whose chunk overlaps r.
func InTimeRange(r core.TimeRange) Filter {
	return func(doc *core.IndexDocument) bool {
		return r.Overlaps(doc.Metadata.StartTime, doc.Metadata.EndTime)
	}
}

// VectorSearcher finds documents near a query vector.
type VectorSearcher interface {
	// FindSimilar returns documents with similarity >= minSimilarity that pass every filter,
	// up to limit results, ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, filters ...Filter) ([]*core.SearchResult, error)
}

// DocumentRepository provides read and maintenance operations on stored documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	DocumentIndexer
	VectorSearcher

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.IndexDocument, error)

	// GetDocumentsByFile retrieves every document of a source file, ordered by chunk id.
	GetDocumentsByFile(ctx context.Context, fileID core.ID) ([]*core.IndexDocument, error)

	// ListDocuments retrieves every stored document.
	ListDocuments(ctx context.Context) ([]*core.IndexDocument, error)

	// UpdateDocuments overwrites existing documents and refreshes UpdatedAt.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.IndexDocument) error

	// DeleteDocumentsByFile removes every document of a source file and returns how many were removed.
	DeleteDocumentsByFile(ctx context.Context, fileID core.ID) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// ManifestRepository records the outcome of ingestion runs.
type ManifestRepository interface {
	// RecordRun stores a finished run together with its manifest.
	RecordRun(ctx context.Context, run *core.RunRecord) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*core.RunRecord, error)

	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]*core.RunRecord, error)

	// Close releases resources held by the repository.
	Close() error
}
