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

// Package rag wires the audio ingestion pipeline to its stores and AI services.
package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/ai/openai"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/ingestion"
	"github.com/SeisSparrow/RAG/reembed"
	"github.com/SeisSparrow/RAG/search"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/SeisSparrow/RAG/storage/badger"
	"github.com/SeisSparrow/RAG/storage/elastic"
	"github.com/SeisSparrow/RAG/storage/sqlite"
)

// documentsDir is the badger directory under the data directory.
const documentsDir = "documents"

// ErrSearchUnavailable is returned when documents are written to a store this process cannot query.
var ErrSearchUnavailable = errors.New("search requires the embedded document store")

type Database struct {
	dataDir   string
	backend   *badger.Backend
	documents storage.DocumentRepository
	manifests *sqlite.ManifestStore
	indexer   storage.DocumentIndexer
	external  bool
	provider  ai.AIProvider
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	elastic  *elastic.Config
	logger   *slog.Logger
}

// WithAIConfig sets the embedding and transcription services.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an existing provider instead of building one from the AI config.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithElastic writes ingested documents to Elasticsearch instead of the embedded store.
func WithElastic(cfg elastic.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.elastic = &cfg
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the document store and run ledger under dataDir.
func NewDatabase(dataDir string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, documentsDir), false)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	manifests, err := sqlite.NewManifestStore(dataDir)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	db := &Database{
		dataDir:   dataDir,
		backend:   backend,
		documents: documents,
		manifests: manifests,
		indexer:   documents,
		provider:  options.provider,
		logger:    logger,
	}

	if options.elastic != nil {
		db.indexer, err = elastic.NewIndexer(*options.elastic, elastic.WithLogger(logger))
		if err != nil {
			db.closeStores()
			return nil, err
		}
		db.external = true
	}

	if db.provider == nil {
		db.provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			db.closeStores()
			return nil, err
		}
	}

	return db, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	return db.closeStores()
}

func (db *Database) closeStores() error {
	var errs []error
	if err := db.manifests.Close(); err != nil {
		db.logger.Error("error closing run ledger", "err", err)
		errs = append(errs, err)
	}
	if err := db.documents.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		errs = append(errs, err)
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DataDir returns the directory holding the stores.
func (db *Database) DataDir() string {
	return db.dataDir
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documents
}

func (db *Database) ManifestRepository() storage.ManifestRepository {
	return db.manifests
}

// Searchable reports whether ingested documents land in the embedded store.
func (db *Database) Searchable() bool {
	return !db.external
}

// NewIngestionPipeline creates a pipeline that records every run in the ledger.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{
		ingestion.WithManifestRepository(db.manifests),
		ingestion.WithLogger(db.logger),
	}, opts...)
	return ingestion.NewPipeline(db.provider, db.indexer, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if !db.Searchable() {
		return nil, ErrSearchUnavailable
	}
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewSearcher(db.documents, db.provider, opts...)
}

// TranscriptStats summarises the chunks of one source file, or of every file when fileID is nil.
func (db *Database) TranscriptStats(ctx context.Context, fileID *core.ID) (search.TranscriptStats, error) {
	if !db.Searchable() {
		return search.TranscriptStats{}, fmt.Errorf("stats: %w", ErrSearchUnavailable)
	}
	if fileID != nil {
		return search.FileStats(ctx, db.documents, *fileID)
	}
	return search.StoreStats(ctx, db.documents)
}

// NewReembedder creates a reembedder over the embedded document store.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if !db.Searchable() {
		return nil, fmt.Errorf("reembed: %w", ErrSearchUnavailable)
	}
	return reembed.NewReembedder(db.documents, db.provider.Embedder(), config, progress)
}
