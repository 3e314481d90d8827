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
	"fmt"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ChunkID must not be negative
//   - EndTime must not precede StartTime
//
// NOT validated:
//   - Text (an empty transcript still yields one chunk)
//   - Segments (empty for the whole-transcript fallback chunk)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ChunkID < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkID)
	}

	if chunk.EndTime < chunk.StartTime {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidTimeRange)
	}

	return nil
}

// ValidateDocument validates an IndexDocument before it is written.
//
// Validation rules:
//   - Vector must not be empty
//   - Metadata end time must not precede start time
//
// NOT validated:
//   - ID (assigned by the store)
//   - ChunkID (nil is allowed for documents that are not chunk-derived)
func ValidateDocument(doc *IndexDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if len(doc.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyVector)
	}

	if doc.Metadata.EndTime < doc.Metadata.StartTime {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimeRange)
	}

	return nil
}

// ValidateTranscriptOrder checks that segments are sorted by non-decreasing start.
func ValidateTranscriptOrder(segments []TranscriptSegment) error {
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			return fmt.Errorf("%w: segment %d starts at %.3f after %.3f",
				ErrUnorderedTranscript, i, segments[i].Start, segments[i-1].Start)
		}
	}
	return nil
}
