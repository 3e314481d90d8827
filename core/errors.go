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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidDocument indicates an IndexDocument failed validation.
	ErrInvalidDocument = errors.New("invalid index document")

	// ErrInvalidTimeRange indicates an end time before the start time.
	ErrInvalidTimeRange = errors.New("end time before start time")

	// ErrNegativeChunkID indicates a chunk id below zero.
	ErrNegativeChunkID = errors.New("chunk id cannot be negative")

	// ErrEmptyVector indicates a document without an embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrUnorderedTranscript indicates transcript segments out of start order.
	ErrUnorderedTranscript = errors.New("transcript segments out of order")
)
