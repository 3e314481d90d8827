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

package media

import "errors"

var (
	// ErrEmptyPath is returned when a media operation receives no path.
	ErrEmptyPath = errors.New("empty media path")

	// ErrProbe is returned when the total duration of a file cannot be determined.
	ErrProbe = errors.New("media probe failed")

	// ErrSegmentExtraction is returned when a segment could not be cut from the source.
	ErrSegmentExtraction = errors.New("segment extraction failed")

	// ErrEmptySegment is recorded for a planned segment that carries no audio.
	ErrEmptySegment = errors.New("segment has no audio")

	// ErrInvalidChunkWidth is returned when the split width is not positive.
	ErrInvalidChunkWidth = errors.New("chunk width must be positive")
)
