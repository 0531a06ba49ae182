/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"

	"goscreenwriter/internal/screenplay"
	"goscreenwriter/internal/storage"
)

// openTestBackend connects to the Postgres named by GSW_PG_DSN and skips the
// test when no backend is configured, so the suite stays green on laptops
// without a running database.
func openTestBackend(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("GSW_PG_DSN")
	if dsn == "" {
		t.Skip("GSW_PG_DSN not set, skipping backend integration test")
	}
	db, err := Open(context.Background(), Config{DBURL: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func backendSample() *screenplay.ParsedScreenplay {
	return &screenplay.ParsedScreenplay{
		SourceFile: "diner.fountain",
		Elements: []screenplay.Element{
			{Type: screenplay.SceneHeading, Text: "INT. DINER - NIGHT", ChapterIndex: 0, OrderIndex: 1000},
			{Type: screenplay.Character, Text: "LOU", ChapterIndex: 0, OrderIndex: 1001},
			{Type: screenplay.Dialogue, Text: "The coffee is cold.", ChapterIndex: 0, OrderIndex: 1002},
			{Type: screenplay.Character, Text: "VERA", ChapterIndex: 0, OrderIndex: 1003},
			{Type: screenplay.Dialogue, Text: "Cold coffee keeps you sharp.", ChapterIndex: 0, OrderIndex: 1004},
			{Type: screenplay.Action, Text: "A cold wind rattles the door.", ChapterIndex: 0, OrderIndex: 1005},
		},
	}
}

func cleanupScreenplay(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM screenplays WHERE id = $1`, id)
	})
}

func TestSyncAndSearchParity(t *testing.T) {
	db := openTestBackend(t)
	ctx := context.Background()

	st, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open embedded store: %v", err)
	}
	defer func() { _ = st.Close() }()

	ps := backendSample()
	localID, err := st.SaveScreenplay(ctx, ps, "Night Shift")
	if err != nil {
		t.Fatal(err)
	}
	if err := SyncScreenplay(ctx, db, localID, "Night Shift", ps); err != nil {
		t.Fatalf("SyncScreenplay: %v", err)
	}
	cleanupScreenplay(t, db, localID)

	queries := []storage.SearchQuery{
		{Text: "coffee", Screenplay: localID},
		{Text: "coffee", Character: "LOU", Screenplay: localID},
		{Location: "diner", Screenplay: localID},
		{Types: []string{"dialogue"}, Screenplay: localID},
	}
	for _, q := range queries {
		local, err := st.Search(ctx, q)
		if err != nil {
			t.Fatalf("embedded search %+v: %v", q, err)
		}
		remote, err := SearchPG(ctx, db, q)
		if err != nil {
			t.Fatalf("backend search %+v: %v", q, err)
		}
		if len(local) != len(remote) {
			t.Errorf("query %+v: embedded %d hits, backend %d hits", q, len(local), len(remote))
			continue
		}
		for i := range local {
			if local[i].Text != remote[i].Text || local[i].Type != remote[i].Type ||
				local[i].ChapterIndex != remote[i].ChapterIndex || local[i].OrderIndex != remote[i].OrderIndex {
				t.Errorf("query %+v row %d: embedded %+v, backend %+v", q, i, local[i], remote[i])
			}
		}
	}
}

func TestSyncScreenplayReplaces(t *testing.T) {
	db := openTestBackend(t)
	ctx := context.Background()

	id := uuid.New().String()
	ps := backendSample()
	if err := SyncScreenplay(ctx, db, id, "Night Shift", ps); err != nil {
		t.Fatal(err)
	}
	cleanupScreenplay(t, db, id)

	// Re-sync with a truncated revision; the mirror must not accumulate rows.
	revised := &screenplay.ParsedScreenplay{
		Elements: ps.Elements[:2],
	}
	if err := SyncScreenplay(ctx, db, id, "Night Shift (rev)", revised); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM elements WHERE screenplay_id = $1`, id).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("element count after re-sync = %d, want 2", count)
	}
	var title string
	if err := db.QueryRowContext(ctx,
		`SELECT title FROM screenplays WHERE id = $1`, id).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Night Shift (rev)" {
		t.Errorf("title = %q", title)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fallback/db")
	t.Setenv("GSW_PG_DSN", "")
	if got := ConfigFromEnv().DBURL; got != "postgres://fallback/db" {
		t.Errorf("fallback DSN = %q", got)
	}
	t.Setenv("GSW_PG_DSN", "postgres://primary/db")
	if got := ConfigFromEnv().DBURL; got != "postgres://primary/db" {
		t.Errorf("primary DSN = %q", got)
	}
}
