/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists canonical screenplays in an embedded SQLite
// library. The store is deliberately unordered: elements are written with
// their composite (chapter_idx, order_idx) key and document order is
// reconstructed purely by sorting on that pair at fetch time.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/screenplay"
	"goscreenwriter/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// LibraryDirName stores the embedded index under the library root.
	LibraryDirName  = ".gsw"
	LibraryFileName = "library.sqlite"

	// schemaVersion tracks the embedded schema. Bump on breaking changes
	// and add a migration in ensureSchema.
	schemaVersion = 1
)

// Store wraps the embedded library database.
type Store struct {
	db   *sql.DB
	root string
}

// Record is one library entry as listed to callers.
type Record struct {
	ID         string
	Title      string
	SourceFile string
	Elements   int
	CreatedAt  time.Time
}

// LibraryPath returns the full path of the library database under root.
func LibraryPath(root string) string {
	return filepath.Join(root, LibraryDirName, LibraryFileName)
}

// Open ensures the library database exists under root, enables WAL mode,
// and brings the schema up to date.
func Open(root string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(
		slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("library root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, LibraryDirName), 0o755); err != nil {
		l.Error("create library dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(LibraryPath(root)))
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
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("library ready", slog.String("path", LibraryPath(root)))
	return &Store{db: db, root: root}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveScreenplay stores ps under a fresh document ID. Elements must already
// carry their ordering keys; insertion order is irrelevant to later fetches.
func (s *Store) SaveScreenplay(ctx context.Context, ps *screenplay.ParsedScreenplay, title string) (string, error) {
	if title == "" {
		title = ps.TitleOrDefault()
	}
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO screenplays (id, title, source_file, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, title, ps.SourceFile, now, now); err != nil {
		return "", fmt.Errorf("insert screenplay: %w", err)
	}

	speaker := ""
	for _, e := range ps.Elements {
		switch e.Type {
		case screenplay.Character:
			speaker = strings.TrimSpace(e.Text)
		case screenplay.Dialogue, screenplay.Parenthetical:
			// dialogue block continues; keep the current speaker
		default:
			speaker = ""
		}
		var locJSON []byte
		if e.Location != nil {
			if locJSON, err = json.Marshal(e.Location); err != nil {
				return "", fmt.Errorf("encode location: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO elements
			   (screenplay_id, chapter_idx, order_idx, type, section_level, text,
			    scene_number, location, speaker, centered, dual_dialogue)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, e.ChapterIndex, e.OrderIndex, e.Type.String(), e.SectionLevel, e.Text,
			e.SceneNumber, nullableString(locJSON), speaker, boolInt(e.Centered), boolInt(e.DualDialogue))
		if err != nil {
			return "", fmt.Errorf("insert element: %w", err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("element rowid: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fts_elements (rowid, text) VALUES (?, ?)`, rowID, e.Text); err != nil {
			return "", fmt.Errorf("index element text: %w", err)
		}
	}

	for pos, entry := range ps.TitlePage {
		lines, err := json.Marshal(entry.Lines)
		if err != nil {
			return "", fmt.Errorf("encode title page lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO title_page (screenplay_id, pos, key, lines) VALUES (?, ?, ?, ?)`,
			id, pos, entry.Key, string(lines)); err != nil {
			return "", fmt.Errorf("insert title page entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadScreenplay fetches a stored screenplay with its elements ordered
// ascending by the composite key, reproducing exact document order.
func (s *Store) LoadScreenplay(ctx context.Context, id string) (*screenplay.ParsedScreenplay, error) {
	var sourceFile string
	err := s.db.QueryRowContext(ctx,
		`SELECT source_file FROM screenplays WHERE id = ?`, id).Scan(&sourceFile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("screenplay %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load screenplay: %w", err)
	}

	ps := &screenplay.ParsedScreenplay{SourceFile: sourceFile, Elements: []screenplay.Element{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter_idx, order_idx, type, section_level, text,
		        scene_number, location, centered, dual_dialogue
		   FROM elements
		  WHERE screenplay_id = ?
		  ORDER BY chapter_idx ASC, order_idx ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e        screenplay.Element
			typeName string
			locJSON  sql.NullString
			centered int
			dual     int
		)
		if err := rows.Scan(&e.ChapterIndex, &e.OrderIndex, &typeName, &e.SectionLevel,
			&e.Text, &e.SceneNumber, &locJSON, &centered, &dual); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		e.Type = screenplay.ParseElementType(typeName)
		e.Centered = centered != 0
		e.DualDialogue = dual != 0
		if locJSON.Valid && locJSON.String != "" {
			var loc screenplay.Location
			if err := json.Unmarshal([]byte(locJSON.String), &loc); err == nil {
				e.Location = &loc
			}
		}
		ps.Elements = append(ps.Elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elements: %w", err)
	}

	trows, err := s.db.QueryContext(ctx,
		`SELECT key, lines FROM title_page WHERE screenplay_id = ? ORDER BY pos ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query title page: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var entry screenplay.TitlePageEntry
		var lines string
		if err := trows.Scan(&entry.Key, &lines); err != nil {
			return nil, fmt.Errorf("scan title page: %w", err)
		}
		if err := json.Unmarshal([]byte(lines), &entry.Lines); err != nil {
			return nil, fmt.Errorf("decode title page lines: %w", err)
		}
		ps.TitlePage = append(ps.TitlePage, entry)
	}
	if err := trows.Err(); err != nil {
		return nil, fmt.Errorf("iterate title page: %w", err)
	}
	return ps, nil
}

// ListScreenplays returns all library entries, newest first.
func (s *Store) ListScreenplays(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sp.id, sp.title, sp.source_file, sp.created_at,
		        (SELECT COUNT(*) FROM elements e WHERE e.screenplay_id = sp.id)
		   FROM screenplays sp
		  ORDER BY sp.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list screenplays: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.Title, &r.SourceFile, &created, &r.Elements); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteScreenplay removes a stored screenplay and its indexed text.
func (s *Store) DeleteScreenplay(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM fts_elements WHERE rowid IN (SELECT id FROM elements WHERE screenplay_id = ?)`, id); err != nil {
		return fmt.Errorf("delete indexed text: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE screenplay_id = ?`, id); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM title_page WHERE screenplay_id = ?`, id); err != nil {
		return fmt.Errorf("delete title page: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM screenplays WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete screenplay: %w", err)
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// versionString is split out so tests can assert schema bookkeeping without
// caring about build-time version stamping.
func versionString() string { return version.String() }
