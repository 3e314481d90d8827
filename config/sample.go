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

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const sampleConfig = `# audiorag configuration

[ai]
embedding_host = "http://localhost:11434/v1"
embedding_model = "embeddinggemma"
transcription_host = "https://api.openai.com/v1"
transcription_model = "whisper-1"
# api_key = ""                 # or AUDIORAG_API_KEY / OPENAI_API_KEY
# transcription_rate = 0.5     # requests per second, 0 disables limiting

[ingestion]
size_limit = 26214400          # bytes; larger files are split
split_width = 600.0            # seconds per split segment
chunk_width = 60.0             # seconds per retrieval chunk
offset_mode = "nominal"        # or "reported"
batch_size = 25
max_retries = 5
retry_delay_seconds = 1.0
transcribe_workers = 1
write_workers = 1
# work_dir = "/var/tmp/audiorag"

[store]
backend = "badger"             # or "elasticsearch"
data_dir = "~/.local/share/audiorag"

[store.elastic]
addresses = ["http://localhost:9200"]
index = "audio_rag"
# refresh = "wait_for"

[watch]
# dir = "~/Recordings"
settle_seconds = 5.0

[search]
min_similarity = 0.6
max_hits = 10
`

// CreateSample writes a commented sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
