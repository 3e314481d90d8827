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

package search

import (
	"context"
	"strings"
	"testing"

	"github.com/SeisSparrow/RAG/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsDoc(fileID core.ID, chunkID int, start, end float64, text string) *core.IndexDocument {
	chunk := core.Chunk{ChunkID: chunkID, StartTime: start, EndTime: end, Text: text}
	return core.NewIndexDocument(chunk, []float32{1, 0}, "talk.mp3", fileID, "english")
}

func TestComputeStats(t *testing.T) {
	docs := []*core.IndexDocument{
		statsDoc(1, 0, 0, 60, "Hello there. How are you? Fine!"),
		statsDoc(1, 1, 60, 90, "one two three four"),
		statsDoc(2, 0, 0, 30, "   "),
		nil,
	}

	stats := ComputeStats(docs)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 10, stats.Words)
	assert.Equal(t, 4, stats.Sentences)
	assert.InDelta(t, 120.0, stats.SpokenSeconds, 1e-9)
	assert.InDelta(t, 90.0, stats.LastEndTime, 1e-9)
	assert.InDelta(t, 5.0, stats.WordsPerMinute, 1e-9)
	assert.InDelta(t, 2.0, stats.SentencesPerMinute, 1e-9)
	assert.InDelta(t, 40.0, stats.AverageChunkDuration, 1e-9)
	assert.Equal(t, PacingSlow, stats.Pacing)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Chunks)
	assert.Zero(t, stats.WordsPerMinute)
	assert.Zero(t, stats.AverageChunkDuration)
	assert.Equal(t, PacingSlow, stats.Pacing)
}

func TestComputeStats_Pacing(t *testing.T) {
	tests := []struct {
		words int
		want  Pacing
	}{
		{words: 250, want: PacingFast},
		{words: 180, want: PacingModerate},
		{words: 150, want: PacingSlow},
	}

	for _, tt := range tests {
		text := strings.Repeat("word ", tt.words)
		stats := ComputeStats([]*core.IndexDocument{statsDoc(1, 0, 0, 60, text)})
		assert.Equal(t, tt.want, stats.Pacing, "%d words per minute", tt.words)
	}
}

func TestFileAndStoreStats(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.IndexDocument(ctx, statsDoc(1, 0, 0, 60, "First file. Two sentences.")))
	require.NoError(t, repo.IndexDocument(ctx, statsDoc(2, 0, 0, 60, "Second file")))

	stats, err := FileStats(ctx, repo, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 4, stats.Words)
	assert.Equal(t, 2, stats.Sentences)

	stats, err = StoreStats(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 6, stats.Words)
}
