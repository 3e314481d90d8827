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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/SeisSparrow/RAG/storage/sqlite/migrations"
)

// DefaultFileName is the ledger file created inside a data directory.
const DefaultFileName = "runs.db"

// ManifestStore implements storage.ManifestRepository on SQLite.
type ManifestStore struct {
	db   *sql.DB
	path string
}

var _ storage.ManifestRepository = (*ManifestStore)(nil)

// NewManifestStore opens (or creates) the ledger at dataDir/runs.db.
func NewManifestStore(dataDir string) (*ManifestStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DefaultFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &ManifestStore{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *ManifestStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *ManifestStore) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *ManifestStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// RecordRun stores a finished run and its manifest in one transaction.
func (s *ManifestStore) RecordRun(ctx context.Context, run *core.RunRecord) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", storage.ErrInvalidQuery)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, file_name, file_id, started_at, finished_at, segments, chunks, indexed, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.FileName, int64(run.FileID), unixNano(run.StartedAt), unixNano(run.FinishedAt),
		run.Segments, run.Chunks, run.Indexed, string(run.Status), run.Error)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, skipped := range run.Manifest.Skipped {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_skipped (run_id, segment_index, stage, reason) VALUES (?, ?, ?, ?)
		`, run.ID, skipped.Index, string(skipped.Stage), skipped.Reason)
		if err != nil {
			return fmt.Errorf("saving skipped segment: %w", err)
		}
	}

	for _, dropped := range run.Manifest.Dropped {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_dropped (run_id, chunk_id, attempts, reason) VALUES (?, ?, ?, ?)
		`, run.ID, dropped.ChunkID, dropped.Attempts, dropped.Reason)
		if err != nil {
			return fmt.Errorf("saving dropped document: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run with its manifest.
func (s *ManifestStore) GetRun(ctx context.Context, id string) (*core.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_id, started_at, finished_at, segments, chunks, indexed, status, error
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	if err := s.loadManifest(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recent first. A limit of zero or less returns every run.
func (s *ManifestStore) ListRuns(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, file_id, started_at, finished_at, segments, chunks, indexed, status, error
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, run := range runs {
		if err := s.loadManifest(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *ManifestStore) loadManifest(ctx context.Context, run *core.RunRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_index, stage, reason FROM run_skipped WHERE run_id = ? ORDER BY rowid
	`, run.ID)
	if err != nil {
		return fmt.Errorf("loading skipped segments: %w", err)
	}
	for rows.Next() {
		var (
			skipped core.SkippedSegment
			stage   string
		)
		if err := rows.Scan(&skipped.Index, &stage, &skipped.Reason); err != nil {
			rows.Close()
			return fmt.Errorf("scanning skipped segment: %w", err)
		}
		skipped.Stage = core.Stage(stage)
		run.Manifest.Skipped = append(run.Manifest.Skipped, skipped)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT chunk_id, attempts, reason FROM run_dropped WHERE run_id = ? ORDER BY rowid
	`, run.ID)
	if err != nil {
		return fmt.Errorf("loading dropped documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dropped core.DroppedDocument
		if err := rows.Scan(&dropped.ChunkID, &dropped.Attempts, &dropped.Reason); err != nil {
			return fmt.Errorf("scanning dropped document: %w", err)
		}
		run.Manifest.Dropped = append(run.Manifest.Dropped, dropped)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.RunRecord, error) {
	var (
		run               core.RunRecord
		fileID            int64
		started, finished int64
		status            string
	)
	err := row.Scan(&run.ID, &run.FileName, &fileID, &started, &finished,
		&run.Segments, &run.Chunks, &run.Indexed, &status, &run.Error)
	if err != nil {
		return nil, err
	}
	run.FileID = core.ID(uint64(fileID))
	run.StartedAt = fromUnixNano(started)
	run.FinishedAt = fromUnixNano(finished)
	run.Status = core.RunStatus(status)
	return &run, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
