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

package ingestion

import (
	"fmt"
	"time"

	"github.com/SeisSparrow/RAG/chunking"
	"github.com/SeisSparrow/RAG/media"
	"github.com/SeisSparrow/RAG/transcription"
)

const (
	// DefaultBatchSize is the number of chunks embedded per call.
	DefaultBatchSize = 25

	// DefaultMaxRetries is the number of retries after a failed write (6 attempts in total).
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the fixed pause between write attempts.
	DefaultRetryDelay = time.Second
)

// Config holds the tunables of the ingestion pipeline.
type Config struct {
	// SizeLimit is the transcription payload limit in bytes; larger files are split.
	SizeLimit int64 `toml:"size_limit"`

	// SplitWidth is the nominal length of split segments in seconds.
	SplitWidth float64 `toml:"split_width"`

	// ChunkWidth is the target length of retrieval chunks in seconds.
	ChunkWidth float64 `toml:"chunk_width"`

	// OffsetMode selects how segment offsets are derived: "nominal" or "reported".
	OffsetMode string `toml:"offset_mode"`

	// BatchSize is the number of chunks per embedding call.
	BatchSize int `toml:"batch_size"`

	// MaxRetries is the number of write retries after the first attempt.
	MaxRetries int `toml:"max_retries"`

	// RetryDelaySeconds is the fixed pause between write attempts.
	RetryDelaySeconds float64 `toml:"retry_delay_seconds"`

	// TranscribeWorkers bounds concurrent speech-to-text requests. 1 is sequential.
	TranscribeWorkers int `toml:"transcribe_workers"`

	// WriteWorkers bounds concurrent document writes. 1 is sequential.
	WriteWorkers int `toml:"write_workers"`

	// WorkDir holds per-run segment directories and ingest lock files. Empty means os.TempDir().
	WorkDir string `toml:"work_dir"`
}

// DefaultConfig returns the reference configuration: strictly sequential,
// 25 MiB size limit, 600 s split width, 60 s chunks, batches of 25 and 6 write attempts 1 s apart.
func DefaultConfig() Config {
	return Config{
		SizeLimit:         media.DefaultSizeLimit,
		SplitWidth:        media.DefaultChunkWidth,
		ChunkWidth:        chunking.DefaultChunkWidth,
		OffsetMode:        transcription.OffsetNominal.String(),
		BatchSize:         DefaultBatchSize,
		MaxRetries:        DefaultMaxRetries,
		RetryDelaySeconds: DefaultRetryDelay.Seconds(),
		TranscribeWorkers: 1,
		WriteWorkers:      1,
	}
}

// RetryDelay returns RetryDelaySeconds as a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// Validate checks that every value is in range.
func (c Config) Validate() error {
	switch {
	case c.SizeLimit <= 0:
		return fmt.Errorf("%w: size_limit must be positive", ErrInvalidConfig)
	case c.SplitWidth <= 0:
		return fmt.Errorf("%w: split_width must be positive", ErrInvalidConfig)
	case c.ChunkWidth <= 0:
		return fmt.Errorf("%w: chunk_width must be positive", ErrInvalidConfig)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be at least 1", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries cannot be negative", ErrInvalidConfig)
	case c.RetryDelaySeconds < 0:
		return fmt.Errorf("%w: retry_delay_seconds cannot be negative", ErrInvalidConfig)
	case c.TranscribeWorkers < 1:
		return fmt.Errorf("%w: transcribe_workers must be at least 1", ErrInvalidConfig)
	case c.WriteWorkers < 1:
		return fmt.Errorf("%w: write_workers must be at least 1", ErrInvalidConfig)
	}
	if _, err := transcription.ParseOffsetMode(c.OffsetMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
