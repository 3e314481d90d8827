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

import "time"

// Stage names the pipeline step at which a segment was lost.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageTranscription Stage = "transcription"
)

// SkippedSegment records a physical segment that contributed nothing to the transcript.
type SkippedSegment struct {
	Index  int
	Stage  Stage
	Reason string
}

// DroppedDocument records a chunk that never reached the store.
type DroppedDocument struct {
	ChunkID  int
	Attempts int
	Reason   string
}

// Manifest accumulates everything a run lost along the way.
// The zero value is an empty manifest ready for use.
type Manifest struct {
	Skipped []SkippedSegment
	Dropped []DroppedDocument
}

// Skip records a skipped segment.
func (m *Manifest) Skip(index int, stage Stage, err error) {
	m.Skipped = append(m.Skipped, SkippedSegment{Index: index, Stage: stage, Reason: reason(err)})
}

// Drop records a dropped document.
func (m *Manifest) Drop(chunkID, attempts int, err error) {
	m.Dropped = append(m.Dropped, DroppedDocument{ChunkID: chunkID, Attempts: attempts, Reason: reason(err)})
}

// Merge appends the entries of other.
func (m *Manifest) Merge(other Manifest) {
	m.Skipped = append(m.Skipped, other.Skipped...)
	m.Dropped = append(m.Dropped, other.Dropped...)
}

// Empty reports whether nothing was lost.
func (m *Manifest) Empty() bool {
	return len(m.Skipped) == 0 && len(m.Dropped) == 0
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RunStatus is the outcome of one ingestion run.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persisted summary of one ingestion run.
type RunRecord struct {
	ID         string
	FileName   string
	FileID     ID
	StartedAt  time.Time
	FinishedAt time.Time
	Segments   int
	Chunks     int
	Indexed    int
	Status     RunStatus
	Error      string
	Manifest   Manifest
}
