/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"fmt"
	"strings"
)

// SearchQuery describes a library search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Character restricts matches to dialogue blocks spoken by that character.
// Location filters scene headings by their location text.
// Types restricts to element type names (e.g. "dialogue", "sceneHeading").
// Limit/Offset implement pagination; defaults applied when zero.
type SearchQuery struct {
	Text       string
	Character  string
	Location   string
	Types      []string
	Screenplay string // restrict to one document; empty searches the library
	Limit      int
	Offset     int
}

// SearchResult is a single match row. Snippet uses [ ] highlight markers
// when FTS text was supplied.
type SearchResult struct {
	ScreenplayID string
	ElementID    int64
	Type         string
	ChapterIndex int
	OrderIndex   int
	Text         string
	Snippet      string
}

// Search runs full-text search with optional filters over the library.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT e.screenplay_id, e.id, e.type, e.chapter_idx, e.order_idx, e.text, ")
		b.WriteString("snippet(fts_elements, 0, '[', ']', '…', 10)\n")
		b.WriteString("FROM fts_elements JOIN elements e ON fts_elements.rowid = e.id\n")
		b.WriteString("WHERE fts_elements MATCH ?\n")
		args = append(args, q.Text)
	} else {
		b.WriteString("SELECT e.screenplay_id, e.id, e.type, e.chapter_idx, e.order_idx, e.text, ''\n")
		b.WriteString("FROM elements e WHERE 1=1\n")
	}

	if q.Screenplay != "" {
		b.WriteString(" AND e.screenplay_id = ?")
		args = append(args, q.Screenplay)
	}
	if c := strings.TrimSpace(q.Character); c != "" {
		b.WriteString(" AND upper(e.speaker) LIKE upper(?)")
		args = append(args, c+"%")
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		b.WriteString(" AND e.type = 'sceneHeading' AND upper(e.text) LIKE upper(?)")
		args = append(args, "%"+loc+"%")
	}
	if len(q.Types) > 0 {
		b.WriteString(" AND e.type IN (")
		for i, t := range q.Types {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("?")
			args = append(args, t)
		}
		b.WriteString(")")
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

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ScreenplayID, &r.ElementID, &r.Type,
			&r.ChapterIndex, &r.OrderIndex, &r.Text, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
