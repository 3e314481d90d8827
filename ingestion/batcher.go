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

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/progress"
	"github.com/SeisSparrow/RAG/retry"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/panjf2000/ants/v2"
)

// Source identifies the file a set of chunks was cut from.
type Source struct {
	FileName string
	FileID   core.ID
	Language string
}

// BatchResult summarises one Index call.
type BatchResult struct {
	Indexed  int
	Manifest core.Manifest
}

// Batcher embeds chunks in fixed-size batches and writes one document per chunk.
// Write failures are retried with a fixed delay and then dropped; they never abort the run.
type Batcher struct {
	embedder   ai.Embedder
	indexer    storage.DocumentIndexer
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	pool       *ants.Pool
	progress   io.Writer
	logger     *slog.Logger
	// dimension is fixed by the first accepted embedding.
	dimension atomic.Int64
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher) error

// WithBatchSize sets the number of chunks per embedding call.
// Default is 25.
func WithBatchSize(size int) BatcherOption {
	return func(b *Batcher) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, size)
		}
		b.batchSize = size
		return nil
	}
}

// WithRetry sets the retry ceiling and the fixed delay between attempts.
// Default is 5 retries, 1 second apart.
func WithRetry(maxRetries int, delay time.Duration) BatcherOption {
	return func(b *Batcher) error {
		if maxRetries < 0 || delay < 0 {
			return fmt.Errorf("%w: retries %d, delay %s", ErrInvalidConfig, maxRetries, delay)
		}
		b.maxRetries = maxRetries
		b.retryDelay = delay
		return nil
	}
}

// WithWriters sets how many documents may be written concurrently.
// Default is 1. Every document keeps its own retry budget.
func WithWriters(size int) BatcherOption {
	return func(b *Batcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if b.pool != nil {
			b.pool.Release()
		}
		b.pool = pool
		return nil
	}
}

// WithProgress reports write progress to w.
func WithProgress(w io.Writer) BatcherOption {
	return func(b *Batcher) error {
		b.progress = w
		return nil
	}
}

// WithBatcherLogger sets a custom logger.
// Default is slog.Default().
func WithBatcherLogger(logger *slog.Logger) BatcherOption {
	return func(b *Batcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBatcher creates a Batcher writing to indexer.
func NewBatcher(embedder ai.Embedder, indexer storage.DocumentIndexer, opts ...BatcherOption) (*Batcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	b := &Batcher{
		embedder:   embedder,
		indexer:    indexer,
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			b.Release()
			return nil, err
		}
	}
	if b.pool == nil {
		pool, err := ants.NewPool(1)
		if err != nil {
			return nil, err
		}
		b.pool = pool
	}
	b.logger = b.logger.With("component", "batcher")
	return b, nil
}

// Release stops the write pool.
func (b *Batcher) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Attempts returns the number of write attempts each document gets.
func (b *Batcher) Attempts() int {
	return b.maxRetries + 1
}

// Index embeds and writes chunks in order, one batch at a time.
// Lost chunks are reported in the result's manifest. The only error returned is
// the context's, in which case the result covers the work done so far.
func (b *Batcher) Index(ctx context.Context, chunks []core.Chunk, src Source) (*BatchResult, error) {
	result := &BatchResult{}

	var tracker *progress.Tracker
	if b.progress != nil {
		tracker = progress.NewTracker(b.progress, len(chunks), 1, "chunks")
		tracker.Start()
		defer tracker.Finish()
	}

	for start := 0; start < len(chunks); start += b.batchSize {
		batch := chunks[start:min(start+b.batchSize, len(chunks))]

		indexed, manifest, err := b.indexBatch(ctx, batch, src, tracker)
		result.Indexed += indexed
		result.Manifest.Merge(manifest)
		if err != nil {
			return result, err
		}
	}

	b.logger.Info("indexing finished", "file", src.FileName, "chunks", len(chunks),
		"indexed", result.Indexed, "dropped", len(result.Manifest.Dropped))
	return result, nil
}

func (b *Batcher) indexBatch(ctx context.Context, batch []core.Chunk, src Source, tracker *progress.Tracker) (int, core.Manifest, error) {
	var manifest core.Manifest

	valid := make([]core.Chunk, 0, len(batch))
	for _, chunk := range batch {
		if err := core.ValidateChunk(&chunk); err != nil {
			b.logger.Warn("dropping invalid chunk", "chunk_id", chunk.ChunkID, "err", err)
			manifest.Drop(chunk.ChunkID, 0, err)
			if tracker != nil {
				tracker.Increment(1)
			}
			continue
		}
		valid = append(valid, chunk)
	}
	if len(valid) == 0 {
		return 0, manifest, nil
	}
	batch = valid

	vectors, attempts, err := b.embed(ctx, batch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, manifest, ctxErr
		}
		b.logger.Warn("dropping batch after embedding failure",
			"first_chunk", batch[0].ChunkID, "chunks", len(batch), "attempts", attempts, "err", err)
		for _, chunk := range batch {
			manifest.Drop(chunk.ChunkID, attempts, fmt.Errorf("%w: %w", ErrEmbedding, err))
		}
		if tracker != nil {
			tracker.Increment(len(batch))
		}
		return 0, manifest, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		indexed int
	)
	record := func(chunkID, attempts int, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			manifest.Drop(chunkID, attempts, err)
		} else {
			indexed++
		}
		if tracker != nil {
			tracker.Increment(1)
		}
	}

	for i, chunk := range batch {
		doc := core.NewIndexDocument(chunk, ai.NormalizeVector(vectors[i]), src.FileName, src.FileID, src.Language)

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			attempts, err := b.write(ctx, doc)
			record(chunk.ChunkID, attempts, err)
		})
		if err != nil {
			wg.Done()
			record(chunk.ChunkID, 0, fmt.Errorf("%w: %w", ErrDocumentWrite, err))
		}
	}
	wg.Wait()

	slices.SortFunc(manifest.Dropped, func(a, b core.DroppedDocument) int {
		return a.ChunkID - b.ChunkID
	})

	return indexed, manifest, ctx.Err()
}

// embed requests one vector per chunk, retrying the whole call with the write budget.
func (b *Batcher) embed(ctx context.Context, batch []core.Chunk) ([][]float32, int, error) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	attempts, err := retry.Fixed(ctx, b.Attempts(), b.retryDelay, func(ctx context.Context) error {
		v, err := b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(v) != len(texts) {
			return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(texts), len(v))
		}
		if err := b.checkDimensions(v); err != nil {
			return retry.Permanent(err)
		}
		vectors = v
		return nil
	})
	return vectors, attempts, err
}

// checkDimensions rejects empty vectors and vectors whose length differs from
// the dimension of earlier embeddings.
func (b *Batcher) checkDimensions(vectors [][]float32) error {
	want := b.dimension.Load()
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: vector %d: %w", ErrEmbeddingMismatch, i, core.ErrEmptyVector)
		}
		if want == 0 {
			want = int64(len(v))
		}
		if int64(len(v)) != want {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrEmbeddingMismatch, i, len(v), want)
		}
	}
	if !b.dimension.CompareAndSwap(0, want) && b.dimension.Load() != want {
		return fmt.Errorf("%w: dimension %d, expected %d", ErrEmbeddingMismatch, want, b.dimension.Load())
	}
	return nil
}

// write stores one document within the retry budget.
func (b *Batcher) write(ctx context.Context, doc *core.IndexDocument) (int, error) {
	attempts, err := retry.Fixed(ctx, b.Attempts(), b.retryDelay, func(ctx context.Context) error {
		err := b.indexer.IndexDocument(ctx, doc)
		if errors.Is(err, core.ErrInvalidDocument) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		b.logger.Warn("dropping document", "chunk_id", doc.Metadata.ChunkID, "attempts", attempts, "err", err)
		return attempts, fmt.Errorf("%w: %w", ErrDocumentWrite, err)
	}
	return attempts, nil
}
