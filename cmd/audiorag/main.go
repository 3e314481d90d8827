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

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	rag "github.com/SeisSparrow/RAG"
	"github.com/SeisSparrow/RAG/config"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "audiorag",
		Usage: "Transcribe audio recordings into searchable, time-aligned chunks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"AUDIORAG_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				EnvVars: []string{"AUDIORAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the document store and run ledger (overrides store.data_dir)",
				EnvVars: []string{"AUDIORAG_DATA_DIR"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Split, transcribe, chunk and index audio files",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent transcription requests (overrides ingestion.transcribe_workers)",
					},
					&cli.IntFlag{
						Name:  "write-workers",
						Usage: "Concurrent document writes (overrides ingestion.write_workers)",
					},
					&cli.StringFlag{
						Name:  "offset-mode",
						Usage: "Segment offset mode: nominal or reported (overrides ingestion.offset_mode)",
					},
					&cli.BoolFlag{
						Name:  "elastic",
						Usage: "Write documents to Elasticsearch (overrides store.backend)",
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Ingest audio files as they appear in a directory",
				ArgsUsage: "[DIR]",
				Action:    watchCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "settle",
						Usage: "How long a file must stop growing before ingestion (overrides watch.settle_seconds)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Search ingested transcripts",
				ArgsUsage: "TEXT...",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max-hits",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (overrides search.max_hits)",
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Cosine similarity threshold (overrides search.min_similarity)",
						Value: -2,
					},
					&cli.DurationFlag{
						Name:  "from",
						Usage: "Only return chunks ending after this offset into the recording (e.g. 5m)",
					},
					&cli.DurationFlag{
						Name:  "to",
						Usage: "Only return chunks starting before this offset into the recording (e.g. 10m30s)",
					},
				},
			},
			{
				Name:      "stats",
				Usage:     "Show word, sentence and pacing statistics for ingested transcripts",
				ArgsUsage: "[FILE]",
				Action:    statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored documents with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides ai.embedding_host)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides ai.embedding_model)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "runs",
				Usage:     "List recorded ingestion runs, or show one run's manifest",
				ArgsUsage: "[RUN-ID]",
				Action:    runsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of most recent runs to list (0 lists all)",
						Value: 20,
					},
				},
			},
			{
				Name:      "init-config",
				Usage:     "Write a sample configuration file",
				ArgsUsage: "[PATH]",
				Action:    initConfigCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(errWriter(c), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the configuration file and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, path, exists, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if exists {
		slog.Debug("loaded configuration", "path", path)
	} else {
		slog.Debug("no configuration file, using defaults", "path", path)
	}

	if dir := c.String("data-dir"); dir != "" {
		if cfg.Store.DataDir, err = config.ExpandPath(dir); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*rag.Database, error) {
	opts := []rag.DatabaseOption{
		rag.WithAIConfig(&cfg.AI),
		rag.WithLogger(slog.Default()),
	}
	if cfg.Store.Backend == config.BackendElastic {
		opts = append(opts, rag.WithElastic(cfg.Store.Elastic))
	}

	db, err := rag.NewDatabase(cfg.Store.DataDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// progressWriter returns stderr when it is a terminal, nil otherwise.
func progressWriter(c *cli.Context) io.Writer {
	w := errWriter(c)
	file, ok := w.(*os.File)
	if !ok {
		return nil
	}
	fd := file.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return w
	}
	return nil
}
