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

// Package config loads the audiorag TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/ingestion"
	"github.com/SeisSparrow/RAG/search"
	"github.com/SeisSparrow/RAG/storage/elastic"
	"github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	BackendBadger  = "badger"
	BackendElastic = "elasticsearch"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Store selects where documents and run manifests are written.
type Store struct {
	// Backend is "badger" (embedded, searchable) or "elasticsearch" (write only).
	Backend string `toml:"backend"`
	// DataDir holds the badger database and the run ledger.
	DataDir string         `toml:"data_dir"`
	Elastic elastic.Config `toml:"elastic"`
}

// Watch configures the directory watcher.
type Watch struct {
	Dir           string   `toml:"dir"`
	SettleSeconds float64  `toml:"settle_seconds"`
	Extensions    []string `toml:"extensions"`
}

// Search configures queries.
type Search struct {
	MinSimilarity float32 `toml:"min_similarity"`
	MaxHits       int     `toml:"max_hits"`
}

// Config is the full file layout.
type Config struct {
	AI        ai.Config        `toml:"ai"`
	Ingestion ingestion.Config `toml:"ingestion"`
	Store     Store            `toml:"store"`
	Watch     Watch            `toml:"watch"`
	Search    Search           `toml:"search"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		AI:        *ai.DefaultConfig(),
		Ingestion: ingestion.DefaultConfig(),
		Store: Store{
			Backend: BackendBadger,
			DataDir: defaultDataDir(),
			Elastic: elastic.Config{
				Addresses: []string{"http://localhost:9200"},
				Index:     elastic.DefaultIndex,
			},
		},
		Watch: Watch{
			SettleSeconds: ingestion.DefaultSettleInterval.Seconds(),
			Extensions:    append([]string(nil), ingestion.DefaultExtensions...),
		},
		Search: Search{
			MinSimilarity: search.DefaultMinSimilarity,
			MaxHits:       10,
		},
	}
}

// DefaultConfigPath returns the absolute path of the default configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audiorag/config.toml")
}

// Load locates, parses and validates a configuration file. A missing file yields
// the defaults. It returns the config, the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func (c *Config) normalize() error {
	if c.AI.APIKey == "" {
		c.AI.APIKey = firstEnv("AUDIORAG_API_KEY", "OPENAI_API_KEY")
	}
	if c.Store.Elastic.APIKey == "" {
		c.Store.Elastic.APIKey = os.Getenv("ELASTIC_API_KEY")
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.AI.Normalize()

	var err error
	if c.Store.DataDir, err = expandPath(c.Store.DataDir); err != nil {
		return err
	}
	if c.Ingestion.WorkDir, err = expandPath(c.Ingestion.WorkDir); err != nil {
		return err
	}
	if c.Watch.Dir, err = expandPath(c.Watch.Dir); err != nil {
		return err
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Ingestion.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Store.Backend {
	case BackendBadger:
		if c.Store.DataDir == "" {
			return fmt.Errorf("%w: store.data_dir is required", ErrInvalidConfig)
		}
	case BackendElastic:
		if len(c.Store.Elastic.Addresses) == 0 {
			return fmt.Errorf("%w: store.elastic.addresses is required", ErrInvalidConfig)
		}
		if c.Store.Elastic.Index == "" {
			return fmt.Errorf("%w: store.elastic.index is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Watch.SettleSeconds <= 0 {
		return fmt.Errorf("%w: watch.settle_seconds must be positive", ErrInvalidConfig)
	}
	if c.Search.MinSimilarity < -1 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("%w: search.min_similarity must be between -1 and 1", ErrInvalidConfig)
	}
	if c.Search.MaxHits < 1 {
		return fmt.Errorf("%w: search.max_hits must be at least 1", ErrInvalidConfig)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		projectPath, err := filepath.Abs("audiorag.toml")
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
			return defaultPath, true, nil
		}
		if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
			return projectPath, true, nil
		}
		return defaultPath, false, nil
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

// ExpandPath resolves a leading ~ and makes the path absolute. Empty stays empty.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			path = home
		} else if len(path) > 1 && (path[1] == '/' || path[1] == '\\') {
			path = filepath.Join(home, path[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return absolute, nil
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "audiorag")
	}
	return "~/.local/share/audiorag"
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
