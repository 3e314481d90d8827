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

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/SeisSparrow/RAG/core"
	"github.com/google/uuid"
)

// DefaultChunkWidth is the nominal length of a split segment in seconds.
const DefaultChunkWidth = 600.0

// Splitter cuts oversized audio into fixed-width segments.
type Splitter struct {
	gate       SizeGate
	chunkWidth float64
	workDir    string
	prober     Prober
	transcoder Transcoder
	logger     *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter) error

// WithChunkWidth sets the nominal segment width in seconds.
// Default is 600.
func WithChunkWidth(seconds float64) Option {
	return func(s *Splitter) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidChunkWidth, seconds)
		}
		s.chunkWidth = seconds
		return nil
	}
}

// WithSizeLimit sets the payload limit above which files are split.
func WithSizeLimit(limit int64) Option {
	return func(s *Splitter) error {
		s.gate = NewSizeGate(limit)
		return nil
	}
}

// WithWorkDir sets the directory under which per-run temporary directories are created.
// Default is os.TempDir().
func WithWorkDir(dir string) Option {
	return func(s *Splitter) error {
		s.workDir = dir
		return nil
	}
}

// WithProber replaces the ffprobe-backed duration probe.
func WithProber(p Prober) Option {
	return func(s *Splitter) error {
		if p != nil {
			s.prober = p
		}
		return nil
	}
}

// WithTranscoder replaces the ffmpeg-backed segment extractor.
func WithTranscoder(t Transcoder) Option {
	return func(s *Splitter) error {
		if t != nil {
			s.transcoder = t
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSplitter creates a Splitter backed by ffprobe and ffmpeg unless overridden.
func NewSplitter(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		gate:       NewSizeGate(DefaultSizeLimit),
		chunkWidth: DefaultChunkWidth,
		prober:     FFprobe{},
		transcoder: FFmpeg{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "splitter")
	return s, nil
}

// ChunkWidth returns the nominal segment width in seconds.
func (s *Splitter) ChunkWidth() float64 {
	return s.chunkWidth
}

// SplitResult holds the surviving segments of one split and owns their temporary storage.
type SplitResult struct {
	// Segments are ordered by index. Indices may have gaps where extraction failed.
	Segments []core.Segment
	// Planned is the number of nominal segments; 1 when the file was not split.
	Planned int
	// Manifest lists the planned segments that could not be extracted.
	Manifest core.Manifest
	dir      string
}

// Split returns the segments to transcribe for path.
// Files under the size limit, and files whose duration cannot be probed, are
// returned whole as a single non-temporary segment.
func (s *Splitter) Split(ctx context.Context, path string) (*SplitResult, error) {
	need, err := s.gate.NeedsSplit(path)
	if err != nil {
		return nil, err
	}
	if !need {
		s.logger.Debug("file within size limit, not splitting", "path", path)
		return whole(path), nil
	}

	duration, err := s.prober.Duration(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("could not probe duration, using whole file", "path", path, "err", err)
		return whole(path), nil
	}

	plan := PlanSegments(duration, s.chunkWidth)
	dir, err := os.MkdirTemp(s.workDir, "split-"+uuid.NewString()+"-")
	if err != nil {
		return nil, fmt.Errorf("creating split directory: %w", err)
	}
	result := &SplitResult{Planned: len(plan), dir: dir}

	s.logger.Info("splitting audio", "path", path, "duration", duration,
		"chunk_width", s.chunkWidth, "segments", len(plan))

	ext := filepath.Ext(path)
	for _, seg := range plan {
		if err := ctx.Err(); err != nil {
			_ = result.Cleanup()
			return nil, err
		}
		if seg.NominalDuration <= 0 {
			// Exact multiples of the width plan a trailing segment with no audio.
			s.logger.Debug("skipping zero-length segment", "index", seg.Index)
			result.Manifest.Skip(seg.Index, core.StageExtraction,
				fmt.Errorf("%w: %w", ErrSegmentExtraction, ErrEmptySegment))
			continue
		}

		out := filepath.Join(dir, fmt.Sprintf("segment_%03d%s", seg.Index, ext))
		if err := s.extract(ctx, path, out, seg); err != nil {
			s.logger.Warn("segment extraction failed", "index", seg.Index,
				"start", seg.NominalStart, "err", err)
			result.Manifest.Skip(seg.Index, core.StageExtraction, err)
			_ = os.Remove(out)
			continue
		}

		seg.Path = out
		seg.Temporary = true
		result.Segments = append(result.Segments, seg)
	}

	s.logger.Info("split complete", "path", path, "extracted", len(result.Segments),
		"skipped", len(result.Manifest.Skipped))
	return result, nil
}

func (s *Splitter) extract(ctx context.Context, src, dst string, seg core.Segment) error {
	if err := s.transcoder.Extract(ctx, src, dst, seg.NominalStart, seg.NominalDuration); err != nil {
		return fmt.Errorf("%w: %w", ErrSegmentExtraction, err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSegmentExtraction, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: empty output", ErrSegmentExtraction)
	}
	return nil
}

// Cleanup removes the temporary storage owned by the result. It is safe to call more than once.
func (r *SplitResult) Cleanup() error {
	if r == nil || r.dir == "" {
		return nil
	}
	dir := r.dir
	r.dir = ""
	return os.RemoveAll(dir)
}

// Dir returns the temporary directory holding extracted segments, or "" when none was created.
func (r *SplitResult) Dir() string {
	return r.dir
}

// PlanSegments returns floor(duration/width)+1 nominal segments covering [0, duration].
// Segment i starts at i*width; the last one is clipped at duration and may be empty.
func PlanSegments(duration, width float64) []core.Segment {
	if width <= 0 || duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	n := int(math.Floor(duration/width)) + 1
	plan := make([]core.Segment, n)
	for i := range plan {
		start := float64(i) * width
		plan[i] = core.Segment{
			Index:           i,
			NominalStart:    start,
			NominalDuration: math.Max(0, math.Min(width, duration-start)),
		}
	}
	return plan
}

func whole(path string) *SplitResult {
	return &SplitResult{
		Segments: []core.Segment{{Index: 0, Path: path}},
		Planned:  1,
	}
}
