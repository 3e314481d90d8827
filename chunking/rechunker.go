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
	"strings"

	"github.com/SeisSparrow/RAG/core"
)

// DefaultChunkWidth is the nominal window width in seconds.
const DefaultChunkWidth = 60.0

// Rechunker groups consecutive transcript segments into windows of about Width seconds.
//
// A window closes when the next segment would end more than Width seconds after
// the window started. A single long segment is still absorbed into the open
// window, so windows can exceed Width when segments are coarse.
type Rechunker struct {
	Width float64
}

// New returns a Rechunker with the given width; non-positive selects DefaultChunkWidth.
func New(width float64) Rechunker {
	if width <= 0 {
		width = DefaultChunkWidth
	}
	return Rechunker{Width: width}
}

type window struct {
	start   float64
	texts   []string
	members []core.TranscriptSegment
}

func (w *window) add(s core.TranscriptSegment) {
	if len(w.members) == 0 {
		w.start = s.Start
	}
	if text := strings.TrimSpace(s.Text); text != "" {
		w.texts = append(w.texts, text)
	}
	w.members = append(w.members, s)
}

func (w *window) flush(id int) core.Chunk {
	c := core.Chunk{
		ChunkID:   id,
		StartTime: w.start,
		EndTime:   w.members[len(w.members)-1].End,
		Text:      strings.Join(w.texts, " "),
		Segments:  w.members,
	}
	*w = window{}
	return c
}

// Chunk splits the transcript into chunks with dense ids starting at 0.
// A transcript without segments yields a single chunk spanning [0, Duration].
func (r Rechunker) Chunk(t *core.Transcript) []core.Chunk {
	if t == nil {
		return nil
	}
	if len(t.Segments) == 0 {
		return []core.Chunk{{
			ChunkID:   0,
			StartTime: 0,
			EndTime:   t.Duration,
			Text:      t.Text,
			Segments:  []core.TranscriptSegment{},
		}}
	}

	width := r.Width
	if width <= 0 {
		width = DefaultChunkWidth
	}

	var chunks []core.Chunk
	var w window
	for _, s := range t.Segments {
		if len(w.members) > 0 && s.End-w.start > width {
			chunks = append(chunks, w.flush(len(chunks)))
		}
		w.add(s)
	}
	if len(w.members) > 0 {
		chunks = append(chunks, w.flush(len(chunks)))
	}
	return chunks
}
