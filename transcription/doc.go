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

// Package transcription turns split audio segments into one transcript on the
// source's timeline.
//
// Client submits every segment to an ai.Transcriber through a bounded worker
// pool and returns one Outcome per segment, ordered by segment index no matter
// which call finished first. A failed segment is skipped; only a run in which
// every segment fails is an error. Reconciler then shifts each clip's local
// timestamps by the clip's offset into the source and concatenates the results.
package transcription
