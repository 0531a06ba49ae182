/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fountain

import (
	"strings"

	"goscreenwriter/internal/screenplay"
)

// Serialize renders the canonical model back to Fountain text. The output
// re-parses to the same element text sequence, which is what the export
// round-trip invariant requires; byte-identity with the original source is
// not a goal.
func Serialize(ps *screenplay.ParsedScreenplay) string {
	var b strings.Builder

	for _, e := range ps.TitlePage {
		b.WriteString(e.Key)
		b.WriteString(":")
		switch len(e.Lines) {
		case 0:
		case 1:
			b.WriteString(" ")
			b.WriteString(e.Lines[0])
		default:
			for _, l := range e.Lines {
				b.WriteString("\n    ")
				b.WriteString(l)
			}
		}
		b.WriteString("\n")
	}
	if len(ps.TitlePage) > 0 {
		b.WriteString("\n")
	}

	for i, e := range ps.Elements {
		// Dialogue blocks attach to the preceding cue; they take no
		// separating blank line.
		if i > 0 && e.Type != screenplay.Dialogue && e.Type != screenplay.Parenthetical {
			b.WriteString("\n")
		}
		writeElement(&b, e)
	}
	return b.String()
}

func writeElement(b *strings.Builder, e screenplay.Element) {
	switch e.Type {
	case screenplay.SceneHeading:
		text := e.Text
		if !isSceneHeading(text) {
			text = "." + text
		}
		if e.SceneNumber != "" {
			text += " #" + e.SceneNumber + "#"
		}
		b.WriteString(text)
		b.WriteString("\n")

	case screenplay.Character:
		cue := e.Text
		if !isCharacterCue(cue, "dialogue follows") {
			cue = "@" + cue
		}
		if e.DualDialogue {
			cue += " ^"
		}
		b.WriteString(cue)
		b.WriteString("\n")

	case screenplay.Dialogue, screenplay.Parenthetical:
		b.WriteString(e.Text)
		b.WriteString("\n")

	case screenplay.Transition:
		if isTransition(e.Text) {
			b.WriteString(e.Text)
		} else {
			b.WriteString("> ")
			b.WriteString(e.Text)
		}
		b.WriteString("\n")

	case screenplay.SectionHeading:
		// Section text keeps its leading '#' markers verbatim.
		b.WriteString(e.Text)
		b.WriteString("\n")

	case screenplay.Synopsis:
		b.WriteString("= ")
		b.WriteString(e.Text)
		b.WriteString("\n")

	case screenplay.Lyrics:
		b.WriteString("~")
		b.WriteString(e.Text)
		b.WriteString("\n")

	case screenplay.Comment:
		b.WriteString("[[")
		b.WriteString(e.Text)
		b.WriteString("]]\n")

	case screenplay.Boneyard:
		b.WriteString("/* ")
		b.WriteString(e.Text)
		b.WriteString(" */\n")

	case screenplay.PageBreak:
		b.WriteString("===\n")

	default: // Action
		if e.Centered {
			b.WriteString("> ")
			b.WriteString(e.Text)
			b.WriteString(" <\n")
			return
		}
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
}
