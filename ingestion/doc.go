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

// Package ingestion turns audio files into indexed, time-aligned transcript chunks.
//
// A Pipeline runs one file through every stage:
//   - split oversized audio into fixed-width segments (media.Splitter)
//   - transcribe each segment (transcription.Client)
//   - merge the per-segment transcripts onto the source timeline (transcription.Reconciler)
//   - cut the transcript into retrieval windows (chunking.Rechunker)
//   - embed and write one document per window (Batcher)
//
// Stages run sequentially by default. Transcription and document writes can be
// given bounded worker pools; segment order is restored before reconciliation
// and every document keeps its own retry budget.
//
// Segments that could not be extracted or transcribed and documents that could
// not be written are listed in the run's core.Manifest instead of failing the run.
// Only a total transcription failure aborts ingestion.
//
// A Watcher feeds newly arrived files in a directory to a Pipeline.
package ingestion
