/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ensureSchema creates the meta/version bookkeeping and the library tables,
// then records or verifies the schema version.
func ensureSchema(ctx context.Context, db *sql.DB) error {
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
		`CREATE TABLE IF NOT EXISTS screenplays (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			source_file TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS elements (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			screenplay_id TEXT NOT NULL REFERENCES screenplays(id),
			chapter_idx   INTEGER NOT NULL,
			order_idx     INTEGER NOT NULL,
			type          TEXT NOT NULL,
			section_level INTEGER NOT NULL DEFAULT 0,
			text          TEXT NOT NULL,
			scene_number  TEXT NOT NULL DEFAULT '',
			location      TEXT,
			speaker       TEXT NOT NULL DEFAULT '',
			centered      INTEGER NOT NULL DEFAULT 0,
			dual_dialogue INTEGER NOT NULL DEFAULT 0,
			UNIQUE(screenplay_id, chapter_idx, order_idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_key
			ON elements(screenplay_id, chapter_idx, order_idx);`,
		`CREATE TABLE IF NOT EXISTS title_page (
			screenplay_id TEXT NOT NULL REFERENCES screenplays(id),
			pos           INTEGER NOT NULL,
			key           TEXT NOT NULL,
			lines         TEXT NOT NULL,
			PRIMARY KEY (screenplay_id, pos)
		);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_elements USING fts5(text);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return seedVersion(ctx, db)
}

// seedVersion inserts the single-row version record on a fresh database and
// rejects databases written by a newer schema.
func seedVersion(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)
	var current int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx,
			`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES (1, ?, ?, ?, ?)`,
			schemaVersion, versionString(), now, now)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case current > schemaVersion:
		return fmt.Errorf("library schema %d is newer than supported %d", current, schemaVersion)
	default:
		_, err = db.ExecContext(ctx,
			`UPDATE version SET schema = ?, app = ?, updated_at = ? WHERE id = 1`,
			schemaVersion, versionString(), now)
		if err != nil {
			return fmt.Errorf("update version: %w", err)
		}
		return nil
	}
}
