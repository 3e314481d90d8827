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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/core"
	"github.com/panjf2000/ants/v2"
)

// Outcome is the result of transcribing one segment.
// Exactly one of Transcript and Err is set.
type Outcome struct {
	Segment    core.Segment
	Transcript *core.SegmentTranscript
	Err        error
}

// OK reports whether the segment was transcribed.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Transcript != nil
}

// Client transcribes segments through a bounded worker pool.
type Client struct {
	transcriber ai.Transcriber
	pool        *ants.Pool
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithPoolSize sets how many segments may be transcribed at once.
// Default is 1, which submits segments strictly one after another.
func WithPoolSize(size int) Option {
	return func(c *Client) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a transcription client.
func NewClient(transcriber ai.Transcriber, opts ...Option) (*Client, error) {
	if transcriber == nil {
		return nil, ErrTranscriberRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transcriber: transcriber,
		pool:        pool,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "transcription-client")
	return c, nil
}

// Release stops the worker pool.
func (c *Client) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Transcribe submits every segment and returns their outcomes ordered by segment index.
// Temporary segment files are deleted once consumed, whether or not the call succeeded.
// It returns ErrTotalTranscriptionFailure when no segment produced a transcript.
func (c *Client) Transcribe(ctx context.Context, segments []core.Segment) ([]Outcome, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrTotalTranscriptionFailure)
	}

	outcomes := make([]Outcome, len(segments))
	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = c.transcribeOne(ctx, seg)
		})
		if err != nil {
			wg.Done()
			release(seg)
			outcomes[i] = Outcome{Segment: seg, Err: fmt.Errorf("%w: %w", ErrSegmentTranscription, err)}
		}
	}
	wg.Wait()

	slices.SortStableFunc(outcomes, func(a, b Outcome) int {
		return a.Segment.Index - b.Segment.Index
	})

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}

	var lastErr error
	succeeded := 0
	for _, o := range outcomes {
		if o.OK() {
			succeeded++
		} else {
			lastErr = o.Err
		}
	}
	c.logger.Info("transcription finished", "segments", len(outcomes),
		"succeeded", succeeded, "skipped", len(outcomes)-succeeded)

	if succeeded == 0 {
		return outcomes, fmt.Errorf("%w: %w", ErrTotalTranscriptionFailure, lastErr)
	}
	return outcomes, nil
}

func (c *Client) transcribeOne(ctx context.Context, seg core.Segment) Outcome {
	defer release(seg)

	transcript, err := c.submit(ctx, seg)
	if err != nil {
		c.logger.Warn("skipping segment", "index", seg.Index, "path", seg.Path, "err", err)
		return Outcome{Segment: seg, Err: fmt.Errorf("%w: %w", ErrSegmentTranscription, err)}
	}
	c.logger.Debug("segment transcribed", "index", seg.Index, "segments", len(transcript.Segments),
		"duration", transcript.Duration)
	return Outcome{Segment: seg, Transcript: transcript}
}

func (c *Client) submit(ctx context.Context, seg core.Segment) (*core.SegmentTranscript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(seg.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	transcript, err := c.transcriber.Transcribe(ctx, filepath.Base(seg.Path), f)
	if err != nil {
		return nil, err
	}
	if transcript == nil {
		return nil, errors.New("empty response")
	}
	return transcript, nil
}

// release deletes a temporary segment file. Source files are never removed.
func release(seg core.Segment) {
	if seg.Temporary {
		_ = os.Remove(seg.Path)
	}
}

// Manifest records failed outcomes as skipped segments.
func Manifest(outcomes []Outcome) core.Manifest {
	var m core.Manifest
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		err := o.Err
		if err == nil {
			err = fmt.Errorf("%w: no transcript", ErrSegmentTranscription)
		}
		m.Skip(o.Segment.Index, core.StageTranscription, err)
	}
	return m
}
