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
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/SeisSparrow/RAG/config"
	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/ingestion"
	"github.com/SeisSparrow/RAG/reembed"
	"github.com/SeisSparrow/RAG/search"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one audio file is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("workers"); n > 0 {
		cfg.Ingestion.TranscribeWorkers = n
	}
	if n := c.Int("write-workers"); n > 0 {
		cfg.Ingestion.WriteWorkers = n
	}
	if mode := c.String("offset-mode"); mode != "" {
		cfg.Ingestion.OffsetMode = mode
	}
	if c.Bool("elastic") {
		cfg.Store.Backend = config.BackendElastic
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithConfig(cfg.Ingestion),
		ingestion.WithProgressWriter(progressWriter(c)),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	out := c.App.Writer
	failed := 0
	for _, path := range c.Args().Slice() {
		result, err := pipeline.IngestFile(c.Context, path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: failed: %v\n", path, err)
			if c.Context.Err() != nil {
				break
			}
			continue
		}
		fmt.Fprintf(out, "%s: run %s, %d segments, %d chunks, %d indexed, %d segments skipped, %d documents dropped\n",
			path, result.RunID, result.Segments, len(result.Chunks), result.Indexed,
			len(result.Manifest.Skipped), len(result.Manifest.Dropped))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, c.NArg())
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	dir := cfg.Watch.Dir
	if c.NArg() > 0 {
		if dir, err = config.ExpandPath(c.Args().First()); err != nil {
			return err
		}
	}
	if dir == "" {
		return errors.New("a directory is required (argument or watch.dir)")
	}

	settle := time.Duration(cfg.Watch.SettleSeconds * float64(time.Second))
	if d := c.Duration("settle"); d > 0 {
		settle = d
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(ingestion.WithConfig(cfg.Ingestion))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	watcher, err := ingestion.NewWatcher(dir, pipeline,
		ingestion.WithSettleInterval(settle),
		ingestion.WithExtensions(cfg.Watch.Extensions...),
	)
	if err != nil {
		return err
	}
	return watcher.Run(c.Context)
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query text is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	maxHits := cfg.Search.MaxHits
	if n := c.Int("max-hits"); n > 0 {
		maxHits = n
	}
	minSimilarity := cfg.Search.MinSimilarity
	if v := c.Float64("min-similarity"); v >= -1 {
		minSimilarity = float32(v)
	}

	opts := []search.Option{search.WithMinSimilarity(minSimilarity)}
	if c.IsSet("from") || c.IsSet("to") {
		from, to := c.Duration("from").Seconds(), math.Inf(1)
		if c.IsSet("to") {
			to = c.Duration("to").Seconds()
		}
		opts = append(opts, search.WithTimeRange(from, to))
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(opts...)
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(c.Context, query, maxHits)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No matching chunks")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		meta := r.Document.Metadata
		rows = append(rows, []string{
			fmt.Sprintf("%.3f", r.Score),
			meta.FileName,
			fmt.Sprintf("%s-%s", formatOffset(meta.StartTime), formatOffset(meta.EndTime)),
			truncate(r.Document.Text, 80),
		})
	}
	fmt.Fprintln(c.App.Writer, renderTable(
		[]string{"Score", "File", "Time", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var fileID *core.ID
	if c.NArg() > 0 {
		id, err := fileIDOf(c.Args().First())
		if err != nil {
			return err
		}
		fileID = &id
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.TranscriptStats(c.Context, fileID)
	if err != nil {
		return err
	}
	if stats.Chunks == 0 {
		fmt.Fprintln(c.App.Writer, "No transcript chunks stored")
		return nil
	}
	fmt.Fprintln(c.App.Writer, renderStats(stats))
	return nil
}

func fileIDOf(path string) (core.ID, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return core.FileIDFromReader(f)
}

func reembedCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.AI.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.AI.EmbeddingModel = model
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stderr := errWriter(c)
	reembedder, err := db.NewReembedder(reembedConfig, stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Database: %s\n", db.DataDir())
	fmt.Fprintf(stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(stderr)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ledger := db.ManifestRepository()
	out := c.App.Writer

	if c.NArg() > 0 {
		run, err := ledger.GetRun(c.Context, c.Args().First())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderRun(run))
		return nil
	}

	runs, err := ledger.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	fmt.Fprintln(out, renderRuns(runs))
	return nil
}

func initConfigCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	} else {
		var err error
		if path, err = config.ExpandPath(path); err != nil {
			return err
		}
	}
	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote sample configuration to %s\n", path)
	return nil
}
