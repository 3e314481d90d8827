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
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/chunking"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/media"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/SeisSparrow/RAG/transcription"
	"github.com/google/uuid"
)

// Result describes one ingested file.
type Result struct {
	RunID      string
	FileID     core.ID
	FileName   string
	Segments   int
	Transcript *core.Transcript
	Chunks     []core.Chunk
	Indexed    int
	Manifest   core.Manifest
}

// Pipeline turns an audio file into indexed documents:
// split, transcribe, reconcile, rechunk, then embed and write.
type Pipeline struct {
	cfg        Config
	provider   ai.AIProvider
	indexer    storage.DocumentIndexer
	manifests  storage.ManifestRepository
	prober     media.Prober
	transcoder media.Transcoder
	progress   io.Writer

	splitter   *media.Splitter
	client     *transcription.Client
	reconciler transcription.Reconciler
	rechunker  chunking.Rechunker
	batcher    *Batcher
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		p.cfg = cfg
		return nil
	}
}

// WithManifestRepository records every run, successful or not, in repo.
func WithManifestRepository(repo storage.ManifestRepository) Option {
	return func(p *Pipeline) error {
		p.manifests = repo
		return nil
	}
}

// WithMediaTools replaces the ffprobe and ffmpeg backed media tools.
// Nil arguments keep the defaults.
func WithMediaTools(prober media.Prober, transcoder media.Transcoder) Option {
	return func(p *Pipeline) error {
		p.prober = prober
		p.transcoder = transcoder
		return nil
	}
}

// WithProgressWriter reports indexing progress to w.
func WithProgressWriter(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline that transcribes and embeds with provider and writes to indexer.
func NewPipeline(provider ai.AIProvider, indexer storage.DocumentIndexer, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	p := &Pipeline{
		cfg:      DefaultConfig(),
		provider: provider,
		indexer:  indexer,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Components are built after options so they see the final config.
	if err := p.build(); err != nil {
		p.Release()
		return nil, err
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

func (p *Pipeline) build() error {
	mode, err := transcription.ParseOffsetMode(p.cfg.OffsetMode)
	if err != nil {
		return err
	}

	p.splitter, err = media.NewSplitter(
		media.WithSizeLimit(p.cfg.SizeLimit),
		media.WithChunkWidth(p.cfg.SplitWidth),
		media.WithWorkDir(p.cfg.WorkDir),
		media.WithProber(p.prober),
		media.WithTranscoder(p.transcoder),
		media.WithLogger(p.logger),
	)
	if err != nil {
		return err
	}

	p.client, err = transcription.NewClient(p.provider.Transcriber(),
		transcription.WithPoolSize(p.cfg.TranscribeWorkers),
		transcription.WithLogger(p.logger),
	)
	if err != nil {
		return err
	}

	p.reconciler = transcription.Reconciler{ChunkWidth: p.cfg.SplitWidth, Mode: mode}
	p.rechunker = chunking.New(p.cfg.ChunkWidth)

	batcherOpts := []BatcherOption{
		WithBatchSize(p.cfg.BatchSize),
		WithRetry(p.cfg.MaxRetries, p.cfg.RetryDelay()),
		WithWriters(p.cfg.WriteWorkers),
		WithBatcherLogger(p.logger),
	}
	if p.progress != nil {
		batcherOpts = append(batcherOpts, WithProgress(p.progress))
	}
	p.batcher, err = NewBatcher(p.provider.Embedder(), p.indexer, batcherOpts...)
	return err
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// IngestFile runs the whole pipeline for one file.
//
// Only setup failures (unreadable file, held lock), total transcription failure
// and cancellation are returned as errors. Lost segments and dropped documents are
// listed in the result's manifest. The returned Result is non-nil whenever the
// file identity could be computed.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (result *Result, err error) {
	fileID, err := fileIdentity(path)
	if err != nil {
		return nil, err
	}

	lock, err := acquireLock(p.lockDir(), fileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			p.logger.Warn("failed to release ingest lock", "path", lock.Path(), "err", unlockErr)
		}
	}()

	result = &Result{
		RunID:    uuid.NewString(),
		FileID:   fileID,
		FileName: filepath.Base(path),
	}
	started := time.Now().UTC()
	logger := p.logger.With("run", result.RunID, "file", result.FileName)
	logger.Info("ingesting file", "path", path, "file_id", uint64(fileID))

	defer func() {
		slices.SortStableFunc(result.Manifest.Skipped, func(a, b core.SkippedSegment) int {
			return a.Index - b.Index
		})
		p.recordRun(ctx, result, started, err)
	}()

	split, err := p.splitter.Split(ctx, path)
	if err != nil {
		return result, err
	}
	defer func() {
		if cleanupErr := split.Cleanup(); cleanupErr != nil {
			logger.Warn("failed to remove segment directory", "dir", split.Dir(), "err", cleanupErr)
		}
	}()
	result.Segments = split.Planned
	result.Manifest.Merge(split.Manifest)

	outcomes, err := p.client.Transcribe(ctx, split.Segments)
	result.Manifest.Merge(transcription.Manifest(outcomes))
	if err != nil {
		logger.Error("transcription failed", "err", err)
		return result, err
	}

	result.Transcript = p.reconciler.Reconcile(outcomes)
	if err := core.ValidateTranscriptOrder(result.Transcript.Segments); err != nil {
		logger.Warn("reordering transcript segments", "err", err)
		slices.SortStableFunc(result.Transcript.Segments, func(a, b core.TranscriptSegment) int {
			return cmp.Compare(a.Start, b.Start)
		})
	}
	result.Chunks = p.rechunker.Chunk(result.Transcript)
	logger.Info("transcript ready", "duration", result.Transcript.Duration,
		"language", result.Transcript.LanguageOrUnknown(), "chunks", len(result.Chunks))

	batch, err := p.batcher.Index(ctx, result.Chunks, Source{
		FileName: result.FileName,
		FileID:   fileID,
		Language: result.Transcript.Language,
	})
	if batch != nil {
		result.Indexed = batch.Indexed
		result.Manifest.Merge(batch.Manifest)
	}
	if err != nil {
		return result, err
	}

	logger.Info("ingestion finished", "indexed", result.Indexed,
		"skipped_segments", len(result.Manifest.Skipped), "dropped_documents", len(result.Manifest.Dropped))
	return result, nil
}

// Release stops the worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.client != nil {
		p.client.Release()
	}
	if p.batcher != nil {
		p.batcher.Release()
	}
}

func (p *Pipeline) lockDir() string {
	if p.cfg.WorkDir != "" {
		return p.cfg.WorkDir
	}
	return filepath.Join(os.TempDir(), "audiorag-locks")
}

func (p *Pipeline) recordRun(ctx context.Context, result *Result, started time.Time, runErr error) {
	if p.manifests == nil {
		return
	}

	run := &core.RunRecord{
		ID:         result.RunID,
		FileName:   result.FileName,
		FileID:     result.FileID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Segments:   result.Segments,
		Chunks:     len(result.Chunks),
		Indexed:    result.Indexed,
		Status:     runStatus(result, runErr),
		Manifest:   result.Manifest,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	// A cancelled run is still worth recording.
	if err := p.manifests.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		p.logger.Warn("failed to record run", "run", run.ID, "err", err)
	}
}

func runStatus(result *Result, err error) core.RunStatus {
	switch {
	case err != nil:
		return core.RunStatusFailed
	case !result.Manifest.Empty():
		return core.RunStatusPartial
	default:
		return core.RunStatusSucceeded
	}
}

func fileIdentity(path string) (core.ID, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	return core.FileIDFromReader(f)
}
