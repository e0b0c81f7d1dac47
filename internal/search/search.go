/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package search maintains an embedded SQLite full-text index over the
// generated prompt history. The index is derived state: it can always be
// rebuilt from the application state, and callers treat every failure here
// as best-effort (logged, never surfaced as a store error).
package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"promptforge/internal/domain"
	applog "promptforge/internal/log"
	"promptforge/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path of the index database under the data dir.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexFileName)
}

// Index is an open handle on the prompt index database.
type Index struct {
	db  *sql.DB
	log *slog.Logger
}

// Hit is a single ranked match from the prompt index.
type Hit struct {
	ProjectID   string
	ProjectName string
	SceneIndex  int
	Scene       string
	PromptID    string
	Snippet     string
}

// Open ensures the index database exists under dataDir, opens it, enables
// WAL mode and ensures the meta/version tables and the FTS schema exist.
func Open(dataDir string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("search"), "index_open").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := IndexPath(dataDir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return &Index{db: db, log: applog.WithComponent("search")}, nil
}

// Close releases the underlying database handle.
func (ix *Index) Close() error { return ix.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if curSchema != schemaVersion {
			// The index is derived data; on a schema change we drop it and
			// let ensureIndexSchema recreate the new shape. The next Reindex
			// repopulates it from the state file.
			if err := dropIndexSchema(ctx, db); err != nil {
				return err
			}
			if _, err := db.ExecContext(ctx, `UPDATE version SET schema=?, app=?, updated_at=? WHERE id=1`, schemaVersion, appv, now); err != nil {
				return fmt.Errorf("update version: %w", err)
			}
			return nil
		}
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func dropIndexSchema(ctx context.Context, db *sql.DB) error {
	drops := []string{
		`DROP TRIGGER IF EXISTS prompts_ai;`,
		`DROP TRIGGER IF EXISTS prompts_ad;`,
		`DROP TRIGGER IF EXISTS prompts_au;`,
		`DROP TABLE IF EXISTS fts_prompts;`,
		`DROP INDEX IF EXISTS idx_prompts_project;`,
		`DROP TABLE IF EXISTS prompts;`,
	}
	for _, q := range drops {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("drop old index schema: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the prompts table and its external-content FTS
// mirror. The mirror reads row text from prompts, which keeps snippet() and
// highlight() working on query results.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS prompts (
			row_id       INTEGER PRIMARY KEY,
			project_id   TEXT NOT NULL,
			project_name TEXT NOT NULL,
			scene_idx    INTEGER NOT NULL,
			scene        TEXT NOT NULL,
			prompt_id    TEXT NOT NULL,
			text         TEXT NOT NULL,
			motion       TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_project ON prompts(project_id);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_prompts USING fts5(
			text,
			motion,
			content='prompts',
			content_rowid='row_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS prompts_ai AFTER INSERT ON prompts BEGIN
			INSERT INTO fts_prompts(rowid, text, motion) VALUES (new.row_id, new.text, new.motion);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS prompts_ad AFTER DELETE ON prompts BEGIN
			INSERT INTO fts_prompts(fts_prompts, rowid, text, motion) VALUES ('delete', old.row_id, old.text, old.motion);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS prompts_au AFTER UPDATE OF text, motion ON prompts BEGIN
			INSERT INTO fts_prompts(fts_prompts, rowid, text, motion) VALUES ('delete', old.row_id, old.text, old.motion);
			INSERT INTO fts_prompts(rowid, text, motion) VALUES (new.row_id, new.text, new.motion);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// Reindex replaces the entire index content from the given state. The index
// is derived from the state file, so a full rebuild is always safe.
func (ix *Index) Reindex(ctx context.Context, state *domain.AppState) error {
	type row struct {
		projectID   string
		projectName string
		sceneIdx    int
		scene       string
		promptID    string
		text        string
		motion      string
	}
	var rows []row
	ids := make([]string, 0, len(state.Projects))
	for id := range state.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := state.Projects[id]
		for idx, scene := range p.SegmentedScenes.PTBR {
			for _, pr := range p.PromptHistory[scene] {
				if strings.TrimSpace(pr.Text) == "" {
					continue
				}
				rows = append(rows, row{
					projectID:   id,
					projectName: p.ProjectName,
					sceneIdx:    idx,
					scene:       scene,
					promptID:    pr.ID,
					text:        pr.Text,
					motion:      pr.MotionPrompt,
				})
			}
		}
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM prompts;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear prompts: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO prompts(project_id, project_name, scene_idx, scene, prompt_id, text, motion) VALUES(?,?,?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.projectID, r.projectName, r.sceneIdx, r.scene, r.promptID, r.text, r.motion); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert prompt: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	ix.log.Debug("index rebuilt", slog.Int("prompts", len(rows)))
	return nil
}

// Query runs a full-text query over prompt and motion text and returns hits
// in relevance order. Text uses SQLite FTS5 syntax (terms, quoted phrases,
// AND/OR/NOT). A non-positive limit applies a default of 50.
func (ix *Index) Query(ctx context.Context, text string, limit int) ([]Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("query text is required")
	}
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT p.project_id, p.project_name, p.scene_idx, p.scene, p.prompt_id,
			snippet(fts_prompts, 0, '[', ']', '…', 12)
		FROM fts_prompts
		JOIN prompts p ON fts_prompts.rowid = p.row_id
		WHERE fts_prompts MATCH ?
		ORDER BY bm25(fts_prompts), p.project_id, p.scene_idx
		LIMIT ?`
	rows, err := ix.db.QueryContext(ctx, q, text, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []Hit
	for rows.Next() {
		var h Hit
		var sn sql.NullString
		if err := rows.Scan(&h.ProjectID, &h.ProjectName, &h.SceneIndex, &h.Scene, &h.PromptID, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			h.Snippet = sn.String
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
