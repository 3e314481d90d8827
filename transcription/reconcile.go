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
	"fmt"
	"slices"
	"strings"

	"github.com/SeisSparrow/RAG/core"
)

// OffsetMode selects how a segment's position in the source is computed.
type OffsetMode int

const (
	// OffsetNominal places segment i at i times the split width.
	// The final clip and any clip cut short drift by the difference
	// between the nominal width and the clip's real length.
	OffsetNominal OffsetMode = iota

	// OffsetReported advances the offset by each clip's reported duration.
	// After a missing index, or a clip that reported no duration, the offset
	// re-anchors at the nominal start of the segment.
	OffsetReported
)

// String returns the configuration name of the mode.
func (m OffsetMode) String() string {
	switch m {
	case OffsetNominal:
		return "nominal"
	case OffsetReported:
		return "reported"
	default:
		return fmt.Sprintf("OffsetMode(%d)", int(m))
	}
}

// ParseOffsetMode parses "nominal" or "reported".
func ParseOffsetMode(s string) (OffsetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nominal":
		return OffsetNominal, nil
	case "reported":
		return OffsetReported, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOffsetMode, s)
	}
}

// Reconciler merges per-segment transcripts onto the source timeline.
type Reconciler struct {
	// ChunkWidth is the split width in seconds used to derive nominal offsets.
	ChunkWidth float64
	Mode       OffsetMode
}

// Reconcile builds the source transcript from the successful outcomes.
// Outcomes are re-sorted by segment index first, so completion order never matters.
func (r Reconciler) Reconcile(outcomes []Outcome) *core.Transcript {
	ordered := slices.Clone(outcomes)
	slices.SortStableFunc(ordered, func(a, b Outcome) int {
		return a.Segment.Index - b.Segment.Index
	})

	transcript := &core.Transcript{}
	var texts []string
	var offset float64
	prev := -1
	var prevDuration float64

	for _, o := range ordered {
		if !o.OK() {
			continue
		}
		idx := o.Segment.Index
		offset = r.offset(idx, prev, offset, prevDuration)

		local := o.Transcript
		if text := strings.TrimSpace(local.Text); text != "" {
			texts = append(texts, text)
		}
		transcript.Duration += local.Duration
		if transcript.Language == "" && local.Language != "" {
			transcript.Language = local.Language
		}
		for _, s := range local.Segments {
			transcript.Segments = append(transcript.Segments, core.TranscriptSegment{
				Start: s.Start + offset,
				End:   s.End + offset,
				Text:  s.Text,
			})
		}

		prev = idx
		prevDuration = local.Duration
	}

	transcript.Text = strings.Join(texts, " ")
	return transcript
}

func (r Reconciler) offset(idx, prev int, prevOffset, prevDuration float64) float64 {
	nominal := float64(idx) * r.ChunkWidth
	if r.Mode != OffsetReported || prev < 0 || idx != prev+1 || prevDuration <= 0 {
		return nominal
	}
	return prevOffset + prevDuration
}
