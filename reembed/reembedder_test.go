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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReembedder_Validation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewReembedder(nil, &mockEmbedder{}, nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReembedder(repo, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	r, err := NewReembedder(repo, &mockEmbedder{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, r.iterator.BatchSize())
}

func TestReembedder_Run(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 10)

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder, err := NewReembedder(repo, embedder, config, &buf)
	require.NoError(t, err)
	updated, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, updated)
	assert.Equal(t, 4, embedder.calls)

	docs := listAll(t, repo)
	require.Len(t, docs, 10)
	for _, doc := range docs {
		var magnitude float32
		for _, v := range doc.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
		assert.InDelta(t, 1.0/3.0, doc.Vector[0], 1e-5)
	}

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 10 documents (batch size: 3)")
	assert.Contains(t, output, "10/10")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	var buf bytes.Buffer
	reembedder, err := NewReembedder(repo, &mockEmbedder{}, DefaultConfig(), &buf)
	require.NoError(t, err)

	updated, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Contains(t, buf.String(), "0 documents")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := &mockEmbedder{}
	embedder.embedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.calls == 2 {
			cancel()
		}
		result := make([][]float32, len(texts))
		for i := range result {
			result[i] = []float32{1.0, 0.0, 0.0}
		}
		return result, nil
	}

	config := &Config{BatchSize: 3, ReportInterval: 3, MaxRetries: 3, RetryDelay: 10 * time.Millisecond}
	reembedder, err := NewReembedder(repo, embedder, config, nil)
	require.NoError(t, err)

	updated, err := reembedder.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, updated, 10)
}

func TestReembedder_EmbeddingError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 1)

	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("persistent error")
		},
	}

	config := &Config{BatchSize: 1, ReportInterval: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond}
	reembedder, err := NewReembedder(repo, embedder, config, nil)
	require.NoError(t, err)

	_, err = reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Greater(t, config.BatchSize, 0)
	assert.Greater(t, config.ReportInterval, 0)
	assert.Greater(t, config.MaxRetries, 0)
	assert.Greater(t, config.RetryDelay, time.Duration(0))
}
