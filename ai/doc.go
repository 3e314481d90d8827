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

// Package ai defines the external AI services used by the ingestion pipeline.
//
// The package is designed around three interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Transcriber: Converts audio clips into timestamped text
//   - AIProvider: Aggregates both services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	f, _ := os.Open("segment_000.mp3")
//	transcript, err := provider.Transcriber().Transcribe(ctx, "segment_000.mp3", f)
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{transcript.Text})
package ai
