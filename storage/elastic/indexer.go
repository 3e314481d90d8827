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

// Package elastic writes index documents to an Elasticsearch index.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultIndex is the index used when none is configured.
const DefaultIndex = "audio_rag"

// ErrIndexRequired indicates an empty index name.
var ErrIndexRequired = errors.New("elastic: index name is required")

// Config holds connection settings for an Elasticsearch cluster.
type Config struct {
	Addresses []string `toml:"addresses"`
	Index     string   `toml:"index"`
	Username  string   `toml:"username"`
	Password  string   `toml:"password"`
	APIKey    string   `toml:"api_key"`
	// Refresh is passed to every index request ("", "true", "false" or "wait_for").
	Refresh string `toml:"refresh"`
}

// Indexer implements storage.DocumentIndexer over Elasticsearch.
// The index and its mapping are expected to exist. The client's own retry
// is disabled; callers own the retry budget.
type Indexer struct {
	client  *elasticsearch.Client
	index   string
	refresh string
	logger  *slog.Logger
}

var _ storage.DocumentIndexer = (*Indexer)(nil)

// Option configures an Indexer.
type Option func(*Indexer) error

// WithLogger sets the logger. Nil selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// NewIndexer creates an Indexer for cfg.
func NewIndexer(cfg Config, opts ...Option) (*Indexer, error) {
	if cfg.Index == "" {
		return nil, ErrIndexRequired
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		APIKey:       cfg.APIKey,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: creating client: %w", err)
	}

	i := &Indexer{
		client:  client,
		index:   cfg.Index,
		refresh: cfg.Refresh,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	i.logger = i.logger.With("component", "elastic", "index", i.index)
	return i, nil
}

// IndexDocument writes one document. Elasticsearch assigns the document id.
func (i *Indexer) IndexDocument(ctx context.Context, doc *core.IndexDocument) error {
	if err := core.ValidateDocument(doc); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrIndexRejected, err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	opts := []func(*esapi.IndexRequest){i.client.Index.WithContext(ctx)}
	if i.refresh != "" {
		opts = append(opts, i.client.Index.WithRefresh(i.refresh))
	}

	res, err := i.client.Index(i.index, bytes.NewReader(body), opts...)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", storage.ErrIndexRejected, responseError(res.StatusCode, res.Body))
	}
	i.logger.Debug("indexed document", "file", doc.Metadata.FileName, "chunk_id", doc.Metadata.ChunkID)
	return nil
}

func responseError(status int, body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return fmt.Sprintf("status %d: %s", status, bytes.TrimSpace(data))
}
