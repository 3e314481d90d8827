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

// Package media prepares source audio for speech-to-text.
//
// A SizeGate decides whether a file exceeds the payload limit of the
// transcription service. When it does, a Splitter probes the total duration
// with ffprobe and cuts the file into fixed-width segments with an ffmpeg
// stream copy, so no audio is re-encoded. Segments that cannot be extracted
// are skipped and reported; they never abort the split.
package media
