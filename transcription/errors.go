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

import "errors"

var (
	// ErrTranscriberRequired is returned when a Client is created without a transcriber.
	ErrTranscriberRequired = errors.New("transcriber required")

	// ErrSegmentTranscription wraps the failure of a single segment.
	ErrSegmentTranscription = errors.New("segment transcription failed")

	// ErrTotalTranscriptionFailure is returned when no segment could be transcribed.
	ErrTotalTranscriptionFailure = errors.New("all segments failed transcription")

	// ErrUnknownOffsetMode is returned when parsing an unrecognized offset mode.
	ErrUnknownOffsetMode = errors.New("unknown offset mode")
)
