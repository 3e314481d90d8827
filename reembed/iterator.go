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

package reembed

import (
	"context"
	"fmt"

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
)

const (
	// DefaultBatchSize is the default number of documents to process in each batch
	DefaultBatchSize = 100
)

// DocumentIterator iterates over all stored documents in batches.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// batchSize: number of documents per batch; non-positive selects DefaultBatchSize
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// BatchSize returns the number of documents handed to fn per call.
func (it *DocumentIterator) BatchSize() int {
	return it.batchSize
}

// ForEach calls fn for each batch of documents.
// Iteration stops on the first error from fn or when ctx ends between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.IndexDocument) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := it.repo.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for start := 0; start < len(docs); start += it.batchSize {
		end := min(start+it.batchSize, len(docs))
		if err := fn(docs[start:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
