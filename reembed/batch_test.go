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
	"errors"
	"testing"
	"time"

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	calls          int
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	// unnormalised, magnitude 3
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0}
	}
	return result, nil
}

func listAll(t *testing.T, repo storage.DocumentRepository) []*core.IndexDocument {
	t.Helper()
	docs, err := repo.ListDocuments(context.Background())
	require.NoError(t, err)
	return docs
}

func TestBatchProcessor_Process(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 2)

	docs := listAll(t, repo)
	processor := NewBatchProcessor(repo, &mockEmbedder{}, 3, 10*time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), docs))

	for _, doc := range listAll(t, repo) {
		require.Len(t, doc.Vector, 3)
		assert.InDelta(t, 1.0/3.0, doc.Vector[0], 1e-5)
		assert.InDelta(t, 2.0/3.0, doc.Vector[1], 1e-5)
		assert.InDelta(t, 2.0/3.0, doc.Vector[2], 1e-5)
		assert.Equal(t, "talk.mp3", doc.Metadata.FileName)
		assert.Equal(t, core.ID(7), doc.FileID)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	embedder := &mockEmbedder{}
	processor := NewBatchProcessor(nil, embedder, 3, time.Millisecond)

	assert.NoError(t, processor.Process(context.Background(), nil))
	assert.Zero(t, embedder.calls)
}

func TestBatchProcessor_RetriesThenSucceeds(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 1)

	embedder := &mockEmbedder{}
	embedder.embedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.calls < 3 {
			return nil, errors.New("temporary error")
		}
		return [][]float32{{0, 3, 4}}, nil
	}

	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), listAll(t, repo)))
	assert.Equal(t, 3, embedder.calls)

	docs := listAll(t, repo)
	require.Len(t, docs, 1)
	assert.InDelta(t, 0.8, docs[0].Vector[2], 1e-5)
}

func TestBatchProcessor_ExhaustsAttempts(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 1)

	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("persistent error")
		},
	}

	processor := NewBatchProcessor(repo, embedder, 2, time.Millisecond)
	err := processor.Process(context.Background(), listAll(t, repo))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
	assert.Equal(t, 2, embedder.calls)

	// the stored vector is unchanged
	docs := listAll(t, repo)
	assert.Equal(t, []float32{0, 0, 1}, docs[0].Vector)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 2)

	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil
		},
	}

	processor := NewBatchProcessor(repo, embedder, 1, time.Millisecond)
	err := processor.Process(context.Background(), listAll(t, repo))
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}
