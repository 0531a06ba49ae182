/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fountain

import (
	"errors"
	"testing"

	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

func TestParseSceneHeadingAndAction(t *testing.T) {
	ps := Parse("INT. ROOM - DAY\n\nJohn enters.")
	if len(ps.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d: %#v", len(ps.Elements), ps.Elements)
	}
	if ps.Elements[0].Type != screenplay.SceneHeading || ps.Elements[0].Text != "INT. ROOM - DAY" {
		t.Fatalf("element 0: %#v", ps.Elements[0])
	}
	if ps.Elements[1].Type != screenplay.Action || ps.Elements[1].Text != "John enters." {
		t.Fatalf("element 1: %#v", ps.Elements[1])
	}
	if ps.Elements[0].ChapterIndex != 0 || ps.Elements[1].ChapterIndex != 0 {
		t.Fatalf("chapter index should be 0 before ordering: %#v", ps.Elements)
	}
}

func TestParseClassification(t *testing.T) {
	cases := []struct {
		name string
		in   string
		typ  screenplay.ElementType
		text string
	}{
		{"scene int", "INT. HOUSE - DAY", screenplay.SceneHeading, "INT. HOUSE - DAY"},
		{"scene ext", "EXT. PARK - NIGHT", screenplay.SceneHeading, "EXT. PARK - NIGHT"},
		{"scene combined", "INT./EXT. CAR - DAY", screenplay.SceneHeading, "INT./EXT. CAR - DAY"},
		{"scene est", "EST. CITY SKYLINE", screenplay.SceneHeading, "EST. CITY SKYLINE"},
		{"forced scene", ".FLASHBACK ROOM", screenplay.SceneHeading, "FLASHBACK ROOM"},
		{"transition", "CUT TO:", screenplay.Transition, "CUT TO:"},
		{"forced transition", "> SMASH CUT", screenplay.Transition, "SMASH CUT"},
		{"section", "## Act One", screenplay.SectionHeading, "## Act One"},
		{"synopsis", "= Things go wrong.", screenplay.Synopsis, "Things go wrong."},
		{"lyrics", "~La la la", screenplay.Lyrics, "La la la"},
		{"comment", "[[check pacing]]", screenplay.Comment, "check pacing"},
		{"boneyard inline", "/* cut this */", screenplay.Boneyard, "cut this"},
		{"page break", "===", screenplay.PageBreak, ""},
		{"action", "He walks away.", screenplay.Action, "He walks away."},
		{"ellipsis stays action", "...and then silence.", screenplay.Action, "...and then silence."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps := Parse(tc.in)
			if len(ps.Elements) != 1 {
				t.Fatalf("expected 1 element, got %d: %#v", len(ps.Elements), ps.Elements)
			}
			e := ps.Elements[0]
			if e.Type != tc.typ {
				t.Fatalf("type = %v, want %v", e.Type, tc.typ)
			}
			if e.Text != tc.text {
				t.Fatalf("text = %q, want %q", e.Text, tc.text)
			}
		})
	}
}

func TestParseSectionLevels(t *testing.T) {
	ps := Parse("# Chapter 1\n\n## Scene Group\n\n###### Deep\n")
	if len(ps.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(ps.Elements))
	}
	levels := []int{2, 3, 6}
	for i, want := range levels {
		if ps.Elements[i].SectionLevel != want {
			t.Fatalf("element %d level = %d, want %d", i, ps.Elements[i].SectionLevel, want)
		}
	}
}

func TestParseSceneNumberAndLocation(t *testing.T) {
	ps := Parse("INT. DINER - NIGHT #4A#")
	if len(ps.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(ps.Elements))
	}
	e := ps.Elements[0]
	if e.Text != "INT. DINER - NIGHT" {
		t.Fatalf("heading text = %q", e.Text)
	}
	if e.SceneNumber != "4A" {
		t.Fatalf("scene number = %q, want 4A", e.SceneNumber)
	}
	if e.Location == nil {
		t.Fatalf("expected cached location parse")
	}
	if !e.Location.Interior || e.Location.Exterior {
		t.Fatalf("location flags wrong: %#v", e.Location)
	}
	if e.Location.Name != "DINER" || e.Location.TimeOfDay != "NIGHT" {
		t.Fatalf("location fields wrong: %#v", e.Location)
	}
}

func TestParseDialogueRun(t *testing.T) {
	src := "MARGE\n(whispering)\nWe can't stay here.\nNot tonight.\n\nHOMER ^\nFine."
	ps := Parse(src)
	want := []struct {
		typ  screenplay.ElementType
		text string
	}{
		{screenplay.Character, "MARGE"},
		{screenplay.Parenthetical, "(whispering)"},
		{screenplay.Dialogue, "We can't stay here.\nNot tonight."},
		{screenplay.Character, "HOMER"},
		{screenplay.Dialogue, "Fine."},
	}
	if len(ps.Elements) != len(want) {
		t.Fatalf("expected %d elements, got %d: %#v", len(want), len(ps.Elements), ps.Elements)
	}
	for i, w := range want {
		if ps.Elements[i].Type != w.typ || ps.Elements[i].Text != w.text {
			t.Fatalf("element %d = %#v, want %v %q", i, ps.Elements[i], w.typ, w.text)
		}
	}
	if ps.Elements[0].DualDialogue {
		t.Fatalf("MARGE should not be dual dialogue")
	}
	if !ps.Elements[3].DualDialogue {
		t.Fatalf("HOMER ^ should be dual dialogue")
	}
}

func TestParseForcedCharacterCue(t *testing.T) {
	ps := Parse("@McCLANE\nYippee.")
	if len(ps.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(ps.Elements))
	}
	if ps.Elements[0].Type != screenplay.Character || ps.Elements[0].Text != "McCLANE" {
		t.Fatalf("forced cue: %#v", ps.Elements[0])
	}
}

func TestParseUppercaseLineWithoutDialogueIsAction(t *testing.T) {
	// A lone uppercase line (blank next line) must not become a cue.
	ps := Parse("SILENCE.\n\nThen a knock.")
	if ps.Elements[0].Type != screenplay.Action {
		t.Fatalf("expected action, got %v", ps.Elements[0].Type)
	}
}

func TestParseTitlePage(t *testing.T) {
	src := "Title: The Long Night\nCredit: written by\nAuthor:\n    A. Writer\n    B. Writer\n\nFADE IN:\n"
	ps := Parse(src)
	if len(ps.TitlePage) != 3 {
		t.Fatalf("expected 3 title entries, got %d: %#v", len(ps.TitlePage), ps.TitlePage)
	}
	if ps.TitlePage[0].Key != "Title" || len(ps.TitlePage[0].Lines) != 1 || ps.TitlePage[0].Lines[0] != "The Long Night" {
		t.Fatalf("title entry: %#v", ps.TitlePage[0])
	}
	if ps.TitlePage[2].Key != "Author" || len(ps.TitlePage[2].Lines) != 2 {
		t.Fatalf("author entry: %#v", ps.TitlePage[2])
	}
	if len(ps.Elements) != 1 || ps.Elements[0].Text != "FADE IN:" {
		t.Fatalf("body after title page: %#v", ps.Elements)
	}
	if ps.TitleOrDefault() != "The Long Night" {
		t.Fatalf("TitleOrDefault = %q", ps.TitleOrDefault())
	}
}

func TestParseNoTitlePageWhenFirstLineIsNotKeyValue(t *testing.T) {
	ps := Parse("FADE IN:\n\nTitle: not a title page\n")
	if len(ps.TitlePage) != 0 {
		t.Fatalf("unexpected title page: %#v", ps.TitlePage)
	}
}

func TestParseMultiLineBoneyard(t *testing.T) {
	ps := Parse("/* first draft\nsecond line */\n\nAction.")
	if len(ps.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d: %#v", len(ps.Elements), ps.Elements)
	}
	if ps.Elements[0].Type != screenplay.Boneyard || ps.Elements[0].Text != "first draft\nsecond line" {
		t.Fatalf("boneyard: %#v", ps.Elements[0])
	}
}

func TestParseCenteredText(t *testing.T) {
	ps := Parse("> THE END <")
	if len(ps.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(ps.Elements))
	}
	e := ps.Elements[0]
	if e.Type != screenplay.Action || !e.Centered || e.Text != "THE END" {
		t.Fatalf("centered: %#v", e)
	}
}

func TestParseActionParagraphJoins(t *testing.T) {
	ps := Parse("He runs.\nShe follows.\n\nLater.")
	if len(ps.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d: %#v", len(ps.Elements), ps.Elements)
	}
	if ps.Elements[0].Text != "He runs.\nShe follows." {
		t.Fatalf("paragraph join: %q", ps.Elements[0].Text)
	}
}

func TestParseEmptyInput(t *testing.T) {
	ps := Parse("")
	if ps == nil {
		t.Fatalf("nil screenplay for empty input")
	}
	if len(ps.Elements) != 0 || len(ps.TitlePage) != 0 {
		t.Fatalf("empty input should yield empty screenplay: %#v", ps)
	}
}

func TestParseEmissionOrderMatchesByteOrder(t *testing.T) {
	src := "INT. A - DAY\n\nOne.\n\nCUT TO:\n\nEXT. B - NIGHT\n\nTwo.\n"
	ps := Parse(src)
	wantTexts := []string{"INT. A - DAY", "One.", "CUT TO:", "EXT. B - NIGHT", "Two."}
	if len(ps.Elements) != len(wantTexts) {
		t.Fatalf("expected %d elements, got %d", len(wantTexts), len(ps.Elements))
	}
	for i, w := range wantTexts {
		if ps.Elements[i].Text != w {
			t.Fatalf("element %d text = %q, want %q", i, ps.Elements[i].Text, w)
		}
	}
}

func TestParseCancellation(t *testing.T) {
	op := progress.New(nil, 0, nil)
	op.Cancel()
	ps, err := ParseWithProgress("INT. ROOM - DAY\n\nAction.", op)
	if !errors.Is(err, progress.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if ps != nil {
		t.Fatalf("cancelled parse must not return a partial document")
	}
}

func TestParseReportsProgress(t *testing.T) {
	var fractions []float64
	op := progress.New(nil, 0, func(u progress.Update) {
		if u.FractionCompleted != nil {
			fractions = append(fractions, *u.FractionCompleted)
		}
	})
	src := "INT. ROOM - DAY\n\nAction line.\n"
	if _, err := ParseWithProgress(src, op); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fractions) == 0 {
		t.Fatalf("expected at least one progress update")
	}
	last := fractions[len(fractions)-1]
	if last != 1.0 {
		t.Fatalf("final fraction = %v, want 1.0", last)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress went backwards: %v", fractions)
		}
	}
}
