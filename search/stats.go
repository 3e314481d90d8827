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

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
)

// Pacing thresholds in words per minute.
const (
	fastPacingWPM     = 200
	moderatePacingWPM = 150
)

// Pacing classifies speaking speed.
type Pacing string

const (
	PacingSlow     Pacing = "slow"
	PacingModerate Pacing = "moderate"
	PacingFast     Pacing = "fast"
)

// TranscriptStats summarises the stored chunks of one or more transcripts.
type TranscriptStats struct {
	Files     int
	Chunks    int
	Words     int
	Sentences int

	// SpokenSeconds is the sum of chunk durations.
	SpokenSeconds float64
	// LastEndTime is the latest chunk end seen in any file.
	LastEndTime float64

	WordsPerMinute       float64
	SentencesPerMinute   float64
	AverageChunkDuration float64
	Pacing               Pacing
}

// ComputeStats counts words and sentences in docs and derives speaking rates
// over the spoken time. Sentences are runs of text ended by '.', '!' or '?'.
func ComputeStats(docs []*core.IndexDocument) TranscriptStats {
	var stats TranscriptStats
	files := make(map[core.ID]struct{})

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		files[doc.FileID] = struct{}{}
		stats.Chunks++
		stats.Words += len(strings.Fields(doc.Text))
		stats.Sentences += countSentences(doc.Text)
		stats.SpokenSeconds += doc.Metadata.Duration
		stats.LastEndTime = max(stats.LastEndTime, doc.Metadata.EndTime)
	}
	stats.Files = len(files)

	if stats.Chunks > 0 {
		stats.AverageChunkDuration = stats.SpokenSeconds / float64(stats.Chunks)
	}
	if minutes := stats.SpokenSeconds / 60; minutes > 0 {
		stats.WordsPerMinute = float64(stats.Words) / minutes
		stats.SentencesPerMinute = float64(stats.Sentences) / minutes
	}

	switch {
	case stats.WordsPerMinute > fastPacingWPM:
		stats.Pacing = PacingFast
	case stats.WordsPerMinute > moderatePacingWPM:
		stats.Pacing = PacingModerate
	default:
		stats.Pacing = PacingSlow
	}
	return stats
}

// FileStats computes statistics for one source file.
func FileStats(ctx context.Context, repo storage.DocumentRepository, fileID core.ID) (TranscriptStats, error) {
	docs, err := repo.GetDocumentsByFile(ctx, fileID)
	if err != nil {
		return TranscriptStats{}, err
	}
	return ComputeStats(docs), nil
}

// StoreStats computes statistics over every stored document.
func StoreStats(ctx context.Context, repo storage.DocumentRepository) (TranscriptStats, error) {
	docs, err := repo.ListDocuments(ctx)
	if err != nil {
		return TranscriptStats{}, err
	}
	return ComputeStats(docs), nil
}

func countSentences(text string) int {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}
