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

package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/ai/mock"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/ingestion"
	"github.com/SeisSparrow/RAG/storage/elastic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(dataDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.ManifestRepository())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
		assert.True(t, db.Searchable())
		assert.DirExists(t, filepath.Join(dataDir, documentsDir))
		assert.FileExists(t, filepath.Join(dataDir, "runs.db"))
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		cfg := ai.DefaultConfig()
		cfg.EmbeddingModel = ""

		db, err := NewDatabase(t.TempDir(), WithAIConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer db.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		defer pipeline.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := db.NewReembedder(nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, reembedder)
	})
}

func TestDatabase_IngestSearchRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	db, err := NewDatabase(dataDir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer db.Close()

	cfg := ingestion.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	pipeline, err := db.NewIngestionPipeline(ingestion.WithConfig(cfg))
	require.NoError(t, err)
	defer pipeline.Release()

	audio := filepath.Join(t.TempDir(), "standup.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("not really audio"), 0o644))

	ctx := context.Background()
	result, err := pipeline.IngestFile(ctx, audio)
	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)

	runs, err := db.ManifestRepository().ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, core.RunStatusSucceeded, runs[0].Status)

	// the mock embeds identical text to identical vectors
	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	hits, err := searcher.FindSimilar(ctx, "transcript of standup.mp3", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "standup.mp3", hits[0].Document.Metadata.FileName)
	assert.Equal(t, result.FileID, hits[0].Document.FileID)

	stats, err := db.TranscriptStats(ctx, &result.FileID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 3, stats.Words)

	other := core.ID(1)
	stats, err = db.TranscriptStats(ctx, &other)
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
}

func TestDatabase_ElasticIsWriteOnly(t *testing.T) {
	db, err := NewDatabase(t.TempDir(),
		WithProvider(mock.NewMockProvider()),
		WithElastic(elastic.Config{Addresses: []string{"http://127.0.0.1:1"}, Index: "audio"}),
	)
	require.NoError(t, err)
	defer db.Close()

	assert.False(t, db.Searchable())

	_, err = db.NewSearcher()
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	_, err = db.NewReembedder(nil, nil)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	_, err = db.TranscriptStats(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSearchUnavailable)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	pipeline.Release()
}
