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
	"errors"
	"testing"

	"github.com/SeisSparrow/RAG/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(index int, text, lang string, duration float64, segs ...core.TranscriptSegment) Outcome {
	return Outcome{
		Segment: core.Segment{Index: index},
		Transcript: &core.SegmentTranscript{
			Text:     text,
			Language: lang,
			Duration: duration,
			Segments: segs,
		},
	}
}

func failed(index int) Outcome {
	return Outcome{Segment: core.Segment{Index: index}, Err: errors.New("boom")}
}

func seg(start, end float64, text string) core.TranscriptSegment {
	return core.TranscriptSegment{Start: start, End: end, Text: text}
}

func TestReconcile_NominalOffsets(t *testing.T) {
	r := Reconciler{ChunkWidth: 600}
	got := r.Reconcile([]Outcome{
		ok(0, " first ", "", 598.5, seg(0, 300, "a"), seg(300, 598.5, "b")),
		ok(1, "second", "english", 600, seg(0, 10, "c")),
		ok(2, "third", "french", 120, seg(5, 120, "d")),
	})

	assert.Equal(t, "first second third", got.Text)
	assert.Equal(t, "english", got.Language)
	assert.InDelta(t, 1318.5, got.Duration, 1e-9)
	assert.Equal(t, []core.TranscriptSegment{
		seg(0, 300, "a"),
		seg(300, 598.5, "b"),
		seg(600, 610, "c"),
		seg(1205, 1320, "d"),
	}, got.Segments)
	require.NoError(t, core.ValidateTranscriptOrder(got.Segments))
}

func TestReconcile_ResortsByIndex(t *testing.T) {
	r := Reconciler{ChunkWidth: 600}
	got := r.Reconcile([]Outcome{
		ok(2, "c", "", 1, seg(0, 1, "c")),
		ok(0, "a", "", 1, seg(0, 1, "a")),
		ok(1, "b", "", 1, seg(0, 1, "b")),
	})

	assert.Equal(t, "a b c", got.Text)
	assert.Equal(t, []float64{0, 600, 1200}, starts(got.Segments))
}

func TestReconcile_GapKeepsNominalPosition(t *testing.T) {
	r := Reconciler{ChunkWidth: 600}
	got := r.Reconcile([]Outcome{
		ok(0, "a", "", 600, seg(0, 600, "a")),
		failed(1),
		ok(2, "c", "", 100, seg(1, 2, "c")),
	})

	assert.Equal(t, "a c", got.Text)
	assert.InDelta(t, 700, got.Duration, 1e-9)
	assert.Equal(t, []float64{0, 1201}, starts(got.Segments))
}

func TestReconcile_ReportedOffsets(t *testing.T) {
	r := Reconciler{ChunkWidth: 600, Mode: OffsetReported}
	got := r.Reconcile([]Outcome{
		ok(0, "a", "", 599.2, seg(0, 5, "a")),
		ok(1, "b", "", 599.9, seg(0, 5, "b")),
		failed(2),
		ok(3, "d", "", 30, seg(0, 5, "d")),
		ok(4, "e", "", 10, seg(0, 5, "e")),
	})

	assert.InDeltaSlice(t, []float64{0, 599.2, 1800, 1830}, starts(got.Segments), 1e-9)
}

func TestReconcile_ReportedMissingDurationFallsBack(t *testing.T) {
	r := Reconciler{ChunkWidth: 600, Mode: OffsetReported}
	got := r.Reconcile([]Outcome{
		ok(0, "a", "", 0, seg(0, 5, "a")),
		ok(1, "b", "", 0, seg(0, 5, "b")),
	})

	assert.Equal(t, []float64{0, 600}, starts(got.Segments))
}

func TestReconcile_SkipsEmptyTexts(t *testing.T) {
	r := Reconciler{ChunkWidth: 600}
	got := r.Reconcile([]Outcome{
		ok(0, "  ", "", 1),
		ok(1, "hello", "", 1),
	})
	assert.Equal(t, "hello", got.Text)
	assert.Empty(t, got.Segments)
}

func TestReconcile_Empty(t *testing.T) {
	got := Reconciler{ChunkWidth: 600}.Reconcile(nil)
	assert.Equal(t, &core.Transcript{}, got)
}

func TestParseOffsetMode(t *testing.T) {
	m, err := ParseOffsetMode("Reported")
	require.NoError(t, err)
	assert.Equal(t, OffsetReported, m)

	m, err = ParseOffsetMode("")
	require.NoError(t, err)
	assert.Equal(t, OffsetNominal, m)
	assert.Equal(t, "nominal", m.String())

	_, err = ParseOffsetMode("actual")
	assert.ErrorIs(t, err, ErrUnknownOffsetMode)
}

func starts(segments []core.TranscriptSegment) []float64 {
	out := make([]float64, len(segments))
	for i, s := range segments {
		out[i] = s.Start
	}
	return out
}
