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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleInterval is how long a file's size must stay unchanged before it is ingested.
const DefaultSettleInterval = 5 * time.Second

// DefaultExtensions lists the audio formats picked up by a Watcher.
var DefaultExtensions = []string{".mp3", ".m4a", ".wav", ".flac", ".ogg", ".webm", ".mp4", ".mpeg", ".mpga"}

// Ingester ingests a single file.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (*Result, error)
}

var _ Ingester = (*Pipeline)(nil)

type pendingFile struct {
	size    int64
	changed time.Time
}

// Watcher ingests audio files that appear in a directory, one at a time.
type Watcher struct {
	dir        string
	ingester   Ingester
	settle     time.Duration
	extensions []string
	pending    map[string]pendingFile
	logger     *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithSettleInterval sets how long a file must be unchanged before ingestion.
func WithSettleInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d <= 0 {
			return fmt.Errorf("%w: settle interval %s", ErrInvalidConfig, d)
		}
		w.settle = d
		return nil
	}
}

// WithExtensions replaces the accepted file extensions. Matching ignores case.
func WithExtensions(exts ...string) WatcherOption {
	return func(w *Watcher) error {
		w.extensions = w.extensions[:0]
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			w.extensions = append(w.extensions, strings.ToLower(ext))
		}
		return nil
	}
}

// WithWatcherLogger sets a custom logger.
// Default is slog.Default().
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(dir string, ingester Ingester, opts ...WatcherOption) (*Watcher, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	w := &Watcher{
		dir:        dir,
		ingester:   ingester,
		settle:     DefaultSettleInterval,
		extensions: slices.Clone(DefaultExtensions),
		pending:    make(map[string]pendingFile),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "watcher", "dir", dir)
	return w, nil
}

// Run watches the directory until ctx ends. Ingestion errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for audio files", "settle", w.settle)

	ticker := time.NewTicker(max(w.settle/4, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, time.Now())
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case now := <-ticker.C:
			for _, path := range w.ready(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.ingest(ctx, path)
			}
		}
	}
}

// handleEvent tracks created or written audio files. Removed files are forgotten.
func (w *Watcher) handleEvent(ev fsnotify.Event, now time.Time) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if !w.accepts(ev.Name) {
			return
		}
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return
		}
		w.pending[ev.Name] = pendingFile{size: info.Size(), changed: now}
	}
}

// ready returns the pending files whose size has been stable for the settle interval,
// in name order, and stops tracking them.
func (w *Watcher) ready(now time.Time) []string {
	var paths []string
	for path, p := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() != p.size {
			w.pending[path] = pendingFile{size: info.Size(), changed: now}
			continue
		}
		if now.Sub(p.changed) >= w.settle {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	slices.Sort(paths)
	return paths
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	result, err := w.ingester.IngestFile(ctx, path)
	if err != nil {
		w.logger.Error("ingestion failed", "path", path, "err", err)
		return
	}
	w.logger.Info("ingested file", "path", path, "run", result.RunID,
		"chunks", len(result.Chunks), "indexed", result.Indexed)
}

func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(base)))
}
