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
	"time"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/retry"
	"github.com/SeisSparrow/RAG/storage"
)

// BatchProcessor re-embeds batches of documents.
type BatchProcessor struct {
	repo           storage.DocumentRepository
	embedder       ai.Embedder
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxAttempts: maximum number of embedding attempts per batch
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.DocumentRepository, embedder ai.Embedder, maxAttempts int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxAttempts:    maxAttempts,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the text of each document and stores the normalised vectors.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxAttempts, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxAttempts, err)
	}

	if len(embeddings) != len(docs) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(docs), len(embeddings))
	}

	for i, doc := range docs {
		doc.Vector = ai.NormalizeVector(embeddings[i])
	}

	if err := bp.repo.UpdateDocuments(ctx, docs...); err != nil {
		return fmt.Errorf("failed to update documents: %w", err)
	}
	return nil
}
