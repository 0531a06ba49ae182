/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"errors"
	"testing"
)

func TestElementTypeNamesRoundTrip(t *testing.T) {
	types := []ElementType{
		Action, SceneHeading, Character, Dialogue, Parenthetical, Lyrics,
		Transition, SectionHeading, Synopsis, Comment, Boneyard, PageBreak,
	}
	seen := map[string]bool{}
	for _, et := range types {
		name := et.String()
		if name == "" {
			t.Fatalf("type %d has empty name", et)
		}
		if seen[name] {
			t.Fatalf("duplicate type name %q", name)
		}
		seen[name] = true
		if got := ParseElementType(name); got != et {
			t.Fatalf("ParseElementType(%q) = %v, want %v", name, got, et)
		}
	}
}

func TestParseElementTypeUnknownDefaultsToAction(t *testing.T) {
	if got := ParseElementType("holodeck"); got != Action {
		t.Fatalf("unknown name = %v, want Action", got)
	}
}

func TestTitleOrDefault(t *testing.T) {
	ps := &ParsedScreenplay{TitlePage: []TitlePageEntry{
		{Key: "Credit", Lines: []string{"written by"}},
		{Key: "Title", Lines: []string{"The Long Night"}},
	}}
	if got := ps.TitleOrDefault(); got != "The Long Night" {
		t.Fatalf("TitleOrDefault = %q", got)
	}

	ps = &ParsedScreenplay{SourceFile: "/scripts/draft3.fountain"}
	if got := ps.TitleOrDefault(); got != "draft3" {
		t.Fatalf("fallback to source file stem: %q", got)
	}

	ps = &ParsedScreenplay{}
	if got := ps.TitleOrDefault(); got != "Untitled" {
		t.Fatalf("fallback default: %q", got)
	}
}

func TestErrorKinds(t *testing.T) {
	inner := errors.New("boom")

	pe := &ParseError{Format: "fdx", Line: 12, Err: inner}
	if !errors.Is(pe, inner) {
		t.Fatalf("ParseError must unwrap to its cause")
	}
	if pe.Error() == "" || (&ParseError{Format: "fdx", Err: inner}).Error() == "" {
		t.Fatalf("empty error strings")
	}

	re := &ResourceError{Path: "/missing.highland", Err: inner}
	if !errors.Is(re, inner) {
		t.Fatalf("ResourceError must unwrap to its cause")
	}
	if re.Error() == "" {
		t.Fatalf("empty resource error string")
	}
}
