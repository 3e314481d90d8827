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

//go:generate go run ../cmd/musgen

package core

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID identifies documents and source files.
// JSON carries it as a decimal string; values use the full unsigned 64-bit range.
type ID uint64

// MarshalJSON encodes the ID as a quoted decimal string.
func (id ID) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatUint(uint64(id), 10)), nil
}

// UnmarshalJSON accepts both the quoted form and a bare JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	text := string(data)
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(v)
	return nil
}

// FileIDFromReader derives a stable file identifier from the bytes of a source file.
// The same content yields the same ID in every process and on every run.
func FileIDFromReader(r io.Reader) (ID, error) {
	h, err := blake2b.New(8, nil)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return 0, fmt.Errorf("hashing source: %w", err)
	}
	return ID(binary.LittleEndian.Uint64(h.Sum(nil))), nil
}

// FileTypeAudio is the file_type recorded for every document produced from audio.
const FileTypeAudio = "audio"

// UnknownLanguage is stored when the speech-to-text service reports no language.
const UnknownLanguage = "unknown"

// Segment is a physical slice of a source audio file handed to transcription.
type Segment struct {
	Index           int
	Path            string
	NominalStart    float64 // seconds into the source
	NominalDuration float64 // seconds; 0 when the whole file is used unprobed
	Temporary       bool    // owned by the run and removed once consumed
}

// TranscriptSegment is a timestamped span of recognized text.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SegmentTranscript is the speech-to-text result for a single audio clip.
// Segment timestamps are local to the clip and start at 0.
type SegmentTranscript struct {
	Text     string
	Language string
	Duration float64
	Segments []TranscriptSegment
}

// Transcript is the reconciled transcript of a whole source file.
// Segments are in the source's global timeline, ordered by non-decreasing Start.
type Transcript struct {
	Text     string
	Language string // empty when no segment reported one
	Duration float64
	Segments []TranscriptSegment
}

// LanguageOrUnknown returns the transcript language, or UnknownLanguage.
func (t *Transcript) LanguageOrUnknown() string {
	if t.Language == "" {
		return UnknownLanguage
	}
	return t.Language
}

// Chunk is a retrieval-sized window of transcript segments.
type Chunk struct {
	ChunkID   int
	StartTime float64
	EndTime   float64
	Text      string
	Segments  []TranscriptSegment
}

// Duration returns the span covered by the chunk in seconds.
func (c *Chunk) Duration() float64 {
	return c.EndTime - c.StartTime
}

// TimeRange is a span of the source timeline in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// Overlaps reports whether the span [start, end] shares any time with r.
// Spans that only touch an edge of r do not overlap it.
func (r TimeRange) Overlaps(start, end float64) bool {
	return start < r.End && end > r.Start
}

// DocumentMetadata describes where an indexed chunk came from.
type DocumentMetadata struct {
	FileType  string  `json:"file_type"`
	FileName  string  `json:"file_name"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	ChunkID   int     `json:"chunk_id"`
	Duration  float64 `json:"duration"`
	Language  string  `json:"language"`
}

// IndexDocument is the record written to the document store for one chunk.
type IndexDocument struct {
	Id         ID               `json:"-"` // assigned by stores that keep their own sequence
	Text       string           `json:"text"`
	Vector     []float32        `json:"vector"`
	Metadata   DocumentMetadata `json:"metadata"`
	FileID     ID               `json:"file_id"`
	ChunkID    *int             `json:"chunk_id"`
	InsertedAt time.Time        `json:"-"`
	UpdatedAt  time.Time        `json:"-"`
}

// NewIndexDocument builds the document for a chunk of the named source file.
func NewIndexDocument(chunk Chunk, vector []float32, fileName string, fileID ID, language string) *IndexDocument {
	if language == "" {
		language = UnknownLanguage
	}
	chunkID := chunk.ChunkID
	return &IndexDocument{
		Text:   chunk.Text,
		Vector: vector,
		Metadata: DocumentMetadata{
			FileType:  FileTypeAudio,
			FileName:  fileName,
			StartTime: chunk.StartTime,
			EndTime:   chunk.EndTime,
			ChunkID:   chunk.ChunkID,
			Duration:  chunk.Duration(),
			Language:  language,
		},
		FileID:  fileID,
		ChunkID: &chunkID,
	}
}

// SearchResult represents a search result with the full document and relevance score.
type SearchResult struct {
	Document *IndexDocument
	Score    float32
}
