/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"goscreenwriter/internal/storage"
)

// SearchPG runs a library search against the Postgres mirror using tsvector
// matching, returning rows mapped to storage.SearchResult to ease parity
// checks against the embedded FTS5 search.
func SearchPG(ctx context.Context, db *sql.DB, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		p := place(q.Text)
		b.WriteString("SELECT e.screenplay_id, e.id, e.type, e.chapter_idx, e.order_idx, e.text, ")
		b.WriteString("COALESCE(ts_headline('simple', e.text, plainto_tsquery('simple', " + p + "), ")
		b.WriteString("'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') AS snippet ")
		b.WriteString("FROM elements e WHERE e.search_vector @@ plainto_tsquery('simple', " + p + ") ")
	} else {
		b.WriteString("SELECT e.screenplay_id, e.id, e.type, e.chapter_idx, e.order_idx, e.text, '' AS snippet ")
		b.WriteString("FROM elements e WHERE TRUE ")
	}

	if q.Screenplay != "" {
		b.WriteString(" AND e.screenplay_id = " + place(q.Screenplay))
	}
	if c := strings.TrimSpace(q.Character); c != "" {
		b.WriteString(" AND upper(e.speaker) LIKE upper(" + place(c+"%") + ")")
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		b.WriteString(" AND e.type = 'sceneHeading' AND upper(e.text) LIKE upper(" + place("%"+loc+"%") + ")")
	}
	if len(q.Types) > 0 {
		b.WriteString(" AND e.type = ANY(" + place(q.Types) + ")")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY e.screenplay_id, e.chapter_idx, e.order_idx")
	b.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("backend search: %w", err)
	}
	defer rows.Close()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.ScreenplayID, &r.ElementID, &r.Type,
			&r.ChapterIndex, &r.OrderIndex, &r.Text, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan backend row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
