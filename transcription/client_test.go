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

package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SeisSparrow/RAG/ai/mock"
	"github.com/SeisSparrow/RAG/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSegments(t *testing.T, n int, temporary bool) []core.Segment {
	t.Helper()
	dir := t.TempDir()
	segments := make([]core.Segment, n)
	for i := range segments {
		path := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp3", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("audio %d", i)), 0o600))
		segments[i] = core.Segment{
			Index:           i,
			Path:            path,
			NominalStart:    float64(i) * 600,
			NominalDuration: 600,
			Temporary:       temporary,
		}
	}
	return segments
}

func failing(names ...string) func(context.Context, string, []byte) (*core.SegmentTranscript, error) {
	return func(_ context.Context, name string, audio []byte) (*core.SegmentTranscript, error) {
		for _, n := range names {
			if n == name {
				return nil, errors.New("service unavailable")
			}
		}
		return &core.SegmentTranscript{
			Text:     string(audio),
			Duration: 600,
			Segments: []core.TranscriptSegment{{Start: 0, End: 600, Text: string(audio)}},
		}, nil
	}
}

func TestNewClient_RequiresTranscriber(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrTranscriberRequired)
}

func TestClient_TranscribeAll(t *testing.T) {
	tr := mock.NewMockTranscriber()
	c, err := NewClient(tr)
	require.NoError(t, err)
	defer c.Release()

	segments := writeSegments(t, 3, true)
	outcomes, err := c.Transcribe(t.Context(), segments)
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.True(t, o.OK())
		assert.Equal(t, i, o.Segment.Index)
		assert.NoFileExists(t, segments[i].Path, "temporary segment removed after use")
	}
	assert.Equal(t, []string{"segment_000.mp3", "segment_001.mp3", "segment_002.mp3"}, tr.Names())
	manifest := Manifest(outcomes)
	assert.True(t, manifest.Empty())
}

func TestClient_SkipsFailedSegments(t *testing.T) {
	tr := mock.NewMockTranscriber()
	tr.TranscribeFunc = failing("segment_001.mp3")
	c, err := NewClient(tr)
	require.NoError(t, err)
	defer c.Release()

	segments := writeSegments(t, 3, true)
	outcomes, err := c.Transcribe(t.Context(), segments)
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].OK())
	assert.False(t, outcomes[1].OK())
	assert.ErrorIs(t, outcomes[1].Err, ErrSegmentTranscription)
	assert.True(t, outcomes[2].OK())

	for _, seg := range segments {
		assert.NoFileExists(t, seg.Path, "temporary files removed on failure too")
	}

	skipped := Manifest(outcomes).Skipped
	require.Len(t, skipped, 1)
	assert.Equal(t, 1, skipped[0].Index)
	assert.Equal(t, core.StageTranscription, skipped[0].Stage)
	assert.Contains(t, skipped[0].Reason, "service unavailable")
}

func TestClient_TotalFailure(t *testing.T) {
	tr := mock.NewMockTranscriber()
	tr.TranscribeFunc = failing("segment_000.mp3", "segment_001.mp3")
	c, err := NewClient(tr)
	require.NoError(t, err)
	defer c.Release()

	outcomes, err := c.Transcribe(t.Context(), writeSegments(t, 2, true))
	require.ErrorIs(t, err, ErrTotalTranscriptionFailure)
	assert.Contains(t, err.Error(), "service unavailable")
	assert.Len(t, outcomes, 2)
}

func TestClient_NoSegments(t *testing.T) {
	c, err := NewClient(mock.NewMockTranscriber())
	require.NoError(t, err)
	defer c.Release()

	_, err = c.Transcribe(t.Context(), nil)
	assert.ErrorIs(t, err, ErrTotalTranscriptionFailure)
}

func TestClient_KeepsSourceFiles(t *testing.T) {
	c, err := NewClient(mock.NewMockTranscriber())
	require.NoError(t, err)
	defer c.Release()

	segments := writeSegments(t, 1, false)
	_, err = c.Transcribe(t.Context(), segments)
	require.NoError(t, err)
	assert.FileExists(t, segments[0].Path)
}

func TestClient_MissingFileIsSkipped(t *testing.T) {
	c, err := NewClient(mock.NewMockTranscriber())
	require.NoError(t, err)
	defer c.Release()

	segments := writeSegments(t, 2, true)
	require.NoError(t, os.Remove(segments[0].Path))

	outcomes, err := c.Transcribe(t.Context(), segments)
	require.NoError(t, err)
	assert.False(t, outcomes[0].OK())
	assert.True(t, outcomes[1].OK())
}

func TestClient_PoolReassemblesByIndex(t *testing.T) {
	tr := mock.NewMockTranscriber()
	var inFlight, peak atomic.Int32
	tr.TranscribeFunc = func(_ context.Context, name string, audio []byte) (*core.SegmentTranscript, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		// Earlier segments take longer so completion order is reversed.
		var idx int
		_, _ = fmt.Sscanf(strings.TrimPrefix(name, "segment_"), "%03d", &idx)
		time.Sleep(time.Duration(5-idx) * 10 * time.Millisecond)
		inFlight.Add(-1)
		return &core.SegmentTranscript{Text: name, Duration: 600}, nil
	}

	c, err := NewClient(tr, WithPoolSize(4))
	require.NoError(t, err)
	defer c.Release()

	outcomes, err := c.Transcribe(t.Context(), writeSegments(t, 5, true))
	require.NoError(t, err)

	for i, o := range outcomes {
		assert.Equal(t, i, o.Segment.Index)
		assert.Equal(t, fmt.Sprintf("segment_%03d.mp3", i), o.Transcript.Text)
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestClient_Cancelled(t *testing.T) {
	tr := mock.NewMockTranscriber()
	c, err := NewClient(tr)
	require.NoError(t, err)
	defer c.Release()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	segments := writeSegments(t, 2, true)
	_, err = c.Transcribe(ctx, segments)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tr.CallCount())
	for _, seg := range segments {
		assert.NoFileExists(t, seg.Path)
	}
}

func TestManifest_EmptyTranscript(t *testing.T) {
	outcomes := []Outcome{
		{Segment: core.Segment{Index: 0}, Transcript: &core.SegmentTranscript{Text: "ok"}},
		{Segment: core.Segment{Index: 1}},
	}

	m := Manifest(outcomes)
	require.Len(t, m.Skipped, 1)
	assert.Equal(t, 1, m.Skipped[0].Index)
	assert.Contains(t, m.Skipped[0].Reason, ErrSegmentTranscription.Error())
	assert.Contains(t, m.Skipped[0].Reason, "no transcript")
}
