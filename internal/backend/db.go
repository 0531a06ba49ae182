/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend mirrors stored screenplays into a shared Postgres database
// so a team library can be searched server-side. It is optional: the
// embedded SQLite store remains the source of truth and the CLI only touches
// this package behind an explicit flag.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	retry "github.com/avast/retry-go/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/screenplay"
)

// Config holds backend connection settings.
type Config struct {
	DBURL string
}

// ConfigFromEnv reads GSW_PG_DSN with DATABASE_URL as fallback.
func ConfigFromEnv() Config {
	cfg := Config{DBURL: os.Getenv("DATABASE_URL")}
	if v := os.Getenv("GSW_PG_DSN"); v != "" {
		cfg.DBURL = v
	}
	return cfg
}

// Open connects to Postgres, retrying the initial ping a few times so short
// connection blips (container startup, failover) don't abort a sync.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.DBURL == "" {
		return nil, fmt.Errorf("backend DSN is required (set GSW_PG_DSN)")
	}
	db, err := sql.Open("pgx", cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	l := applog.WithComponent("backend")
	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Attempts(4),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			l.Warn("postgres ping failed, retrying", slog.Uint64("attempt", uint64(n+1)), slog.Any("err", err))
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensurePGSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// pgSchema is applied idempotently at connect time. search_vector powers the
// server-side full-text parity with the embedded FTS5 index.
var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS screenplays (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		source_file TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS elements (
		id            BIGSERIAL PRIMARY KEY,
		screenplay_id TEXT NOT NULL REFERENCES screenplays(id) ON DELETE CASCADE,
		chapter_idx   INTEGER NOT NULL,
		order_idx     INTEGER NOT NULL,
		type          TEXT NOT NULL,
		text          TEXT NOT NULL,
		speaker       TEXT NOT NULL DEFAULT '',
		search_vector TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', coalesce(text, ''))) STORED,
		UNIQUE(screenplay_id, chapter_idx, order_idx)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_elements_search ON elements USING GIN (search_vector)`,
}

func ensurePGSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range pgSchema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure backend schema: %w", err)
		}
	}
	return nil
}

// SyncScreenplay replaces the mirrored copy of one screenplay.
func SyncScreenplay(ctx context.Context, db *sql.DB, id, title string, ps *screenplay.ParsedScreenplay) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO screenplays (id, title, source_file, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, source_file = EXCLUDED.source_file, updated_at = now()`,
		id, title, ps.SourceFile); err != nil {
		return fmt.Errorf("upsert screenplay: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE screenplay_id = $1`, id); err != nil {
		return fmt.Errorf("clear elements: %w", err)
	}

	speaker := ""
	for _, e := range ps.Elements {
		switch e.Type {
		case screenplay.Character:
			speaker = e.Text
		case screenplay.Dialogue, screenplay.Parenthetical:
		default:
			speaker = ""
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO elements (screenplay_id, chapter_idx, order_idx, type, text, speaker)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, e.ChapterIndex, e.OrderIndex, e.Type.String(), e.Text, speaker); err != nil {
			return fmt.Errorf("insert element: %w", err)
		}
	}
	return tx.Commit()
}
