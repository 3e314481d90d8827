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

package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SeisSparrow/RAG/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(start, end float64, text string) core.TranscriptSegment {
	return core.TranscriptSegment{Start: start, End: end, Text: text}
}

func TestRechunker_Windows(t *testing.T) {
	transcript := &core.Transcript{
		Segments: []core.TranscriptSegment{
			seg(0, 30, "a"),
			seg(40, 80, "b"),
			seg(90, 95, "c"),
		},
	}

	chunks := New(60).Chunk(transcript)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, 0.0, chunks[0].StartTime)
	assert.Equal(t, 30.0, chunks[0].EndTime)
	assert.Equal(t, "a", chunks[0].Text)
	assert.Len(t, chunks[0].Segments, 1)

	assert.Equal(t, 1, chunks[1].ChunkID)
	assert.Equal(t, 40.0, chunks[1].StartTime)
	assert.Equal(t, 95.0, chunks[1].EndTime)
	assert.Equal(t, "b c", chunks[1].Text)
	assert.Len(t, chunks[1].Segments, 2)
}

func TestRechunker_EmptyTranscript(t *testing.T) {
	chunks := New(60).Chunk(&core.Transcript{Text: "only text", Duration: 42.5})
	require.Len(t, chunks, 1)
	assert.Equal(t, core.Chunk{
		ChunkID:   0,
		StartTime: 0,
		EndTime:   42.5,
		Text:      "only text",
		Segments:  []core.TranscriptSegment{},
	}, chunks[0])
}

func TestRechunker_OversizedSegmentIsAbsorbed(t *testing.T) {
	transcript := &core.Transcript{
		Segments: []core.TranscriptSegment{
			seg(0, 10, "short"),
			seg(10, 50, "medium"),
			seg(50, 200, "very long"),
			seg(200, 205, "tail"),
		},
	}

	chunks := New(60).Chunk(transcript)
	require.Len(t, chunks, 3)
	assert.Equal(t, "short medium", chunks[0].Text)
	assert.Equal(t, 50.0, chunks[0].EndTime)

	// The long segment opens its own window and stretches it past the width.
	assert.Equal(t, "very long", chunks[1].Text)
	assert.Equal(t, 150.0, chunks[1].EndTime-chunks[1].StartTime)
	assert.Equal(t, "tail", chunks[2].Text)
}

func TestRechunker_FirstSegmentLongerThanWidth(t *testing.T) {
	transcript := &core.Transcript{
		Segments: []core.TranscriptSegment{
			seg(0, 90, "long opening"),
			seg(90, 95, "next"),
		},
	}

	chunks := New(60).Chunk(transcript)
	require.Len(t, chunks, 2)
	assert.Equal(t, 90.0, chunks[0].EndTime)
	assert.Equal(t, "next", chunks[1].Text)
}

func TestRechunker_DefaultWidth(t *testing.T) {
	assert.Equal(t, DefaultChunkWidth, New(0).Width)

	transcript := &core.Transcript{Segments: []core.TranscriptSegment{seg(0, 59, "a"), seg(59, 60, "b")}}
	chunks := Rechunker{}.Chunk(transcript)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a b", chunks[0].Text)
}

func TestRechunker_BoundaryIsInclusive(t *testing.T) {
	transcript := &core.Transcript{Segments: []core.TranscriptSegment{seg(0, 30, "a"), seg(30, 60, "b"), seg(60, 60.5, "c")}}
	chunks := New(60).Chunk(transcript)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a b", chunks[0].Text)
	assert.Equal(t, "c", chunks[1].Text)
}

func TestRechunker_Properties(t *testing.T) {
	transcript := syntheticTranscript(500)
	r := New(60)

	first := r.Chunk(transcript)
	second := r.Chunk(transcript)
	assert.Equal(t, first, second, "rechunking is idempotent")

	var joined []string
	total := 0
	for i, c := range first {
		assert.Equal(t, i, c.ChunkID, "chunk ids are dense from zero")
		assert.NoError(t, core.ValidateChunk(&c))
		joined = append(joined, c.Text)
		total += len(c.Segments)
	}
	assert.Equal(t, len(transcript.Segments), total)

	var source []string
	for _, s := range transcript.Segments {
		source = append(source, s.Text)
	}
	assert.Equal(t, normalize(strings.Join(source, " ")), normalize(strings.Join(joined, " ")))
}

func TestRechunker_WhitespaceOnlySegments(t *testing.T) {
	transcript := &core.Transcript{Segments: []core.TranscriptSegment{seg(0, 1, "  "), seg(1, 2, " hi ")}}
	chunks := New(60).Chunk(transcript)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hi", chunks[0].Text)
}

func syntheticTranscript(n int) *core.Transcript {
	t := &core.Transcript{}
	start := 0.0
	for i := 0; i < n; i++ {
		length := float64(1 + (i*7)%23)
		t.Segments = append(t.Segments, seg(start, start+length, fmt.Sprintf(" word%d  and\tmore ", i)))
		start += length + float64(i%3)
	}
	t.Duration = start
	return t
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
