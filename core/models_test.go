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

package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileID(t *testing.T, content string) ID {
	t.Helper()
	id, err := FileIDFromReader(strings.NewReader(content))
	require.NoError(t, err)
	return id
}

func TestFileIDFromReader(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty content", content: ""},
		{name: "long content", content: strings.Repeat("a much longer transcript line ", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, fileID(t, tt.content), fileID(t, tt.content))
		})
	}
}

func TestFileIDFromReader_Streaming(t *testing.T) {
	payload := bytes.Repeat([]byte{0xff, 0xfb, 0x90, 0x00}, 4096)

	id1, err := FileIDFromReader(bytes.NewReader(payload))
	require.NoError(t, err)
	// a reader that hands out small pieces must agree with one large read
	id2, err := FileIDFromReader(iotest.OneByteReader(bytes.NewReader(payload)))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	other, err := FileIDFromReader(bytes.NewReader(payload[1:]))
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)
}

func TestID_JSON(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want string
	}{
		{name: "zero", id: 0, want: `"0"`},
		{name: "small", id: 77, want: `"77"`},
		{name: "above int64", id: ID(math.MaxInt64) + 6, want: `"9223372036854775813"`},
		{name: "max", id: ID(math.MaxUint64), want: `"18446744073709551615"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var got ID
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.id, got)
		})
	}
}

func TestID_UnmarshalJSON_Number(t *testing.T) {
	var doc struct {
		FileID ID `json:"file_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"file_id":42}`), &doc))
	assert.Equal(t, ID(42), doc.FileID)

	assert.Error(t, json.Unmarshal([]byte(`{"file_id":"-1"}`), &doc))
	assert.Error(t, json.Unmarshal([]byte(`{"file_id":1.5}`), &doc))
}

func TestTranscript_LanguageOrUnknown(t *testing.T) {
	assert.Equal(t, "en", (&Transcript{Language: "en"}).LanguageOrUnknown())
	assert.Equal(t, UnknownLanguage, (&Transcript{}).LanguageOrUnknown())
}

func TestNewIndexDocument(t *testing.T) {
	chunk := Chunk{ChunkID: 3, StartTime: 120, EndTime: 182.5, Text: "hello there"}
	doc := NewIndexDocument(chunk, []float32{0.6, 0.8}, "talk.mp3", 42, "")

	assert.Equal(t, "hello there", doc.Text)
	assert.Equal(t, ID(42), doc.FileID)
	require.NotNil(t, doc.ChunkID)
	assert.Equal(t, 3, *doc.ChunkID)
	assert.Equal(t, DocumentMetadata{
		FileType:  FileTypeAudio,
		FileName:  "talk.mp3",
		StartTime: 120,
		EndTime:   182.5,
		ChunkID:   3,
		Duration:  62.5,
		Language:  UnknownLanguage,
	}, doc.Metadata)

	// The document keeps its own copy of the chunk id.
	chunk.ChunkID = 9
	assert.Equal(t, 3, *doc.ChunkID)
}

func TestIndexDocumentMUS_RoundTrip(t *testing.T) {
	chunkID := 7
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	doc := IndexDocument{
		Id:     11,
		Text:   "segment text",
		Vector: []float32{0.1, -0.2, 0.3},
		Metadata: DocumentMetadata{
			FileType:  FileTypeAudio,
			FileName:  "lecture.m4a",
			StartTime: 600,
			EndTime:   661.25,
			ChunkID:   7,
			Duration:  61.25,
			Language:  "german",
		},
		FileID:     ID(math.MaxInt64) + 6,
		ChunkID:    &chunkID,
		InsertedAt: now,
		UpdatedAt:  now.Add(time.Minute),
	}

	buf := make([]byte, IndexDocumentMUS.Size(doc))
	n := IndexDocumentMUS.Marshal(doc, buf)
	assert.Equal(t, len(buf), n)

	got, read, err := IndexDocumentMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.True(t, doc.InsertedAt.Equal(got.InsertedAt))
	assert.True(t, doc.UpdatedAt.Equal(got.UpdatedAt))
	got.InsertedAt, got.UpdatedAt = doc.InsertedAt, doc.UpdatedAt
	assert.Equal(t, doc, got)

	skipped, err := IndexDocumentMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)
}

func TestIndexDocumentMUS_NilChunkID(t *testing.T) {
	doc := IndexDocument{
		Vector:     []float32{1},
		InsertedAt: time.Unix(0, 0).UTC(),
		UpdatedAt:  time.Unix(0, 0).UTC(),
	}

	buf := make([]byte, IndexDocumentMUS.Size(doc))
	IndexDocumentMUS.Marshal(doc, buf)

	got, _, err := IndexDocumentMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Nil(t, got.ChunkID)
}

func TestIndexDocumentMUS_Truncated(t *testing.T) {
	doc := IndexDocument{Text: "abc", Vector: []float32{1, 2}}
	buf := make([]byte, IndexDocumentMUS.Size(doc))
	IndexDocumentMUS.Marshal(doc, buf)

	_, _, err := IndexDocumentMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	var m Manifest
	assert.True(t, m.Empty())

	m.Skip(2, StageTranscription, assert.AnError)
	m.Drop(5, 6, nil)

	other := Manifest{}
	other.Skip(4, StageExtraction, assert.AnError)
	m.Merge(other)

	assert.False(t, m.Empty())
	assert.Equal(t, []SkippedSegment{
		{Index: 2, Stage: StageTranscription, Reason: assert.AnError.Error()},
		{Index: 4, Stage: StageExtraction, Reason: assert.AnError.Error()},
	}, m.Skipped)
	assert.Equal(t, []DroppedDocument{{ChunkID: 5, Attempts: 6}}, m.Dropped)
}
