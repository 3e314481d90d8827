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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity below which chunks are ignored.
	DefaultMinSimilarity float32 = 0.60

	// keywordBoost is added to chunks containing every significant query word.
	keywordBoost float32 = 0.3
)

// Searcher provides semantic search with a keyword boost over transcript chunks.
type Searcher struct {
	documents     storage.VectorSearcher
	embedder      ai.Embedder
	minSimilarity float32
	timeRange     *core.TimeRange
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity threshold, between -1 and 1.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("%w: min similarity %v", storage.ErrInvalidQuery, threshold)
		}
		s.minSimilarity = threshold
		return nil
	}
}

// WithTimeRange restricts results to chunks overlapping [from, to) seconds of
// their source file. to may be +Inf to leave the range open.
func WithTimeRange(from, to float64) Option {
	return func(s *Searcher) error {
		if from < 0 || math.IsNaN(from) || math.IsNaN(to) || to <= from {
			return fmt.Errorf("%w: time range %v-%v", storage.ErrInvalidQuery, from, to)
		}
		s.timeRange = &core.TimeRange{Start: from, End: to}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(documents storage.VectorSearcher, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if documents == nil {
		return nil, ErrVectorSearcherRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		documents:     documents,
		embedder:      provider.Embedder(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches for transcript chunks similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for transcript chunks similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		return nil, fmt.Errorf("%w: max hits must be positive", storage.ErrInvalidQuery)
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	var filters []storage.Filter
	if s.timeRange != nil {
		filters = append(filters, storage.InTimeRange(*s.timeRange))
	}
	matches, err := s.documents.FindSimilar(ctx, ai.NormalizeVector(embedding), s.minSimilarity, maxHits, filters...)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match == nil || match.Document == nil {
			continue
		}
		score := match.Score
		if containsAllQueryWords(match.Document.Text, query) {
			score += keywordBoost
			monitor.KeywordHit(match.Document)
		} else {
			monitor.SemanticHit(match.Document)
		}
		results = append(results, &core.SearchResult{Document: match.Document, Score: score})
	}

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	s.logger.Debug("search finished", "query", query, "hits", len(results))
	monitor.Finish(results)

	return results, nil
}
