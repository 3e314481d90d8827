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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/SeisSparrow/RAG/storage/badger"
	"github.com/SeisSparrow/RAG/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runApp runs the CLI with an isolated home directory and no config file.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUDIORAG_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(append([]string{"audiorag"}, args...))
	return out.String(), err
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runApp(t, "--log-level", "loud", "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestIngestRequiresFiles(t *testing.T) {
	_, err := runApp(t, "--data-dir", t.TempDir(), "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one audio file")
}

func TestQueryRequiresText(t *testing.T) {
	_, err := runApp(t, "--data-dir", t.TempDir(), "query", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query text is required")
}

func TestReembedValidatesFlags(t *testing.T) {
	_, err := runApp(t, "--data-dir", t.TempDir(), "reembed", "--batch-size", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-size")
}

func TestRunsEmpty(t *testing.T) {
	out, err := runApp(t, "--data-dir", t.TempDir(), "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestRunsListAndShow(t *testing.T) {
	dataDir := t.TempDir()

	ledger, err := sqlite.NewManifestStore(dataDir)
	require.NoError(t, err)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run := &core.RunRecord{
		ID:         "run-1",
		FileName:   "lecture.mp3",
		FileID:     0xabc,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Segments:   3,
		Chunks:     40,
		Indexed:    39,
		Status:     core.RunStatusPartial,
	}
	run.Manifest.Skip(1, core.StageExtraction, errors.New("ffmpeg exited with status 1"))
	run.Manifest.Drop(12, 6, errors.New("store unavailable"))
	require.NoError(t, ledger.RecordRun(context.Background(), run))
	require.NoError(t, ledger.Close())

	out, err := runApp(t, "--data-dir", dataDir, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "lecture.mp3")
	assert.Contains(t, out, "partial")

	out, err = runApp(t, "--data-dir", dataDir, "runs", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "0000000000000abc")
	assert.Contains(t, out, "Took:     1m30s")
	assert.Contains(t, out, "Skipped segments")
	assert.Contains(t, out, "ffmpeg exited with status 1")
	assert.Contains(t, out, "Dropped documents")
	assert.Contains(t, out, "store unavailable")

	_, err = runApp(t, "--data-dir", dataDir, "runs", "missing")
	assert.Error(t, err)
}

func TestQueryRejectsInvertedTimeRange(t *testing.T) {
	_, err := runApp(t, "--data-dir", t.TempDir(), "query", "--from", "10m", "--to", "5m", "budget")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStats(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runApp(t, "--data-dir", dataDir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No transcript chunks stored")

	audio := filepath.Join(t.TempDir(), "keynote.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("keynote audio"), 0o644))
	fileID, err := fileIDOf(audio)
	require.NoError(t, err)

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "documents"), false)
	require.NoError(t, err)
	repo, err := badger.NewDocumentRepository(backend)
	require.NoError(t, err)
	ctx := context.Background()
	chunks := []core.Chunk{
		{ChunkID: 0, StartTime: 0, EndTime: 60, Text: "Welcome everyone. Let us begin."},
		{ChunkID: 1, StartTime: 60, EndTime: 120, Text: "Thank you."},
	}
	for _, chunk := range chunks {
		require.NoError(t, repo.IndexDocument(ctx, core.NewIndexDocument(chunk, []float32{1, 0}, "keynote.mp3", fileID, "english")))
	}
	require.NoError(t, repo.IndexDocument(ctx, core.NewIndexDocument(
		core.Chunk{ChunkID: 0, StartTime: 0, EndTime: 30, Text: "another file"}, []float32{0, 1}, "other.mp3", fileID+1, "")))
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	out, err = runApp(t, "--data-dir", dataDir, "stats", audio)
	require.NoError(t, err)
	assert.Contains(t, out, "Chunks")
	assert.Regexp(t, `Words\s+│\s+7\s`, out)
	assert.Regexp(t, `Sentences\s+│\s+3\s`, out)
	assert.Contains(t, out, "slow")

	out, err = runApp(t, "--data-dir", dataDir, "stats")
	require.NoError(t, err)
	assert.Regexp(t, `Files\s+│\s+2\s`, out)

	_, err = runApp(t, "--data-dir", dataDir, "stats", filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "audiorag.toml")
	out, err := runApp(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ingestion]")
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "0:00", formatOffset(0))
	assert.Equal(t, "1:05", formatOffset(65.2))
	assert.Equal(t, "20:00", formatOffset(1199.6))
	assert.Equal(t, "1:02:03", formatOffset(3723))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", truncate("short   text", 80))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}
