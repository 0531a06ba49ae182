/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fountain

import (
	"regexp"
	"strings"
	"unicode"
)

// Line classification is a set of pure functions over one trimmed line plus
// minimal lookahead. The parser owns all block state (dialogue runs, action
// paragraphs, boneyards); nothing here mutates anything.

var (
	reSceneNumber = regexp.MustCompile(`\s*#([^#\s][^#]*)#\s*$`)
	reTitleKey    = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _\-]*):\s*(.*)$`)
)

// scene heading prefixes, upper-cased comparison.
var scenePrefixes = []string{
	"INT./EXT.", "INT/EXT.", "EXT./INT.", "EXT/INT.", "I/E.", "INT.", "EXT.", "EST.",
}

// maxCueLen bounds character cues; anything longer reads as action.
const maxCueLen = 40

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

// isPageBreak matches a line of three or more '=' and nothing else.
func isPageBreak(trim string) bool {
	if len(trim) < 3 {
		return false
	}
	for _, r := range trim {
		if r != '=' {
			return false
		}
	}
	return true
}

func isSynopsis(trim string) bool {
	return strings.HasPrefix(trim, "=") && !isPageBreak(trim)
}

func isLyrics(trim string) bool { return strings.HasPrefix(trim, "~") }

func isCentered(trim string) bool {
	return len(trim) >= 2 && strings.HasPrefix(trim, ">") && strings.HasSuffix(trim, "<")
}

func isForcedTransition(trim string) bool {
	return strings.HasPrefix(trim, ">") && !strings.HasSuffix(trim, "<")
}

// isTransition matches an uppercase line ending in "TO:".
func isTransition(trim string) bool {
	return strings.HasSuffix(trim, "TO:") && trim == strings.ToUpper(trim)
}

// isForcedSceneHeading matches a leading '.' that is not an ellipsis or a
// bare dot.
func isForcedSceneHeading(trim string) bool {
	return len(trim) >= 2 && trim[0] == '.' && trim[1] != '.'
}

func isSceneHeading(trim string) bool {
	upper := strings.ToUpper(trim)
	for _, p := range scenePrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// sectionDepth returns the count of leading '#' characters, or 0 when the
// line is not a section heading.
func sectionDepth(trim string) int {
	n := 0
	for n < len(trim) && trim[n] == '#' {
		n++
	}
	return n
}

// sectionLevel maps markup depth to outline level. Level 1 is reserved for
// the document title, so a single '#' introduces a level-2 section -- the
// chapter-defining level.
func sectionLevel(depth int) int {
	level := depth + 1
	if level > 6 {
		level = 6
	}
	return level
}

// isCharacterCue reports whether trim begins a dialogue block: a short,
// mostly-uppercase line with no trailing period, immediately followed by a
// non-blank line. A leading '@' forces the cue; a trailing '^' marks dual
// dialogue and is tolerated here.
func isCharacterCue(trim, next string) bool {
	if isBlank(next) {
		return false
	}
	if strings.HasPrefix(trim, "(") {
		return false
	}
	if strings.HasPrefix(trim, "@") {
		return len(trim) > 1
	}
	body := strings.TrimSuffix(trim, "^")
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxCueLen {
		return false
	}
	if strings.HasSuffix(body, ".") {
		return false
	}
	hasLetter := false
	for _, r := range body {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// splitSceneNumber separates a trailing "#number#" marker from a scene
// heading, returning the cleaned heading and the captured number.
func splitSceneNumber(trim string) (heading, number string) {
	if m := reSceneNumber.FindStringSubmatch(trim); m != nil {
		return strings.TrimSpace(trim[:len(trim)-len(m[0])]), strings.TrimSpace(m[1])
	}
	return trim, ""
}

// knownTitleKeys are the keys that may open a title page. Later lines in the
// block accept arbitrary keys, but requiring a known first key keeps body
// text such as "FADE IN:" out of the title page.
var knownTitleKeys = map[string]bool{
	"title": true, "credit": true, "author": true, "authors": true,
	"source": true, "contact": true, "notes": true, "copyright": true,
	"draft date": true, "date": true, "revision": true,
}

// isTitlePageStart reports whether line can open a title page block.
func isTitlePageStart(line string) bool {
	key, _, ok := titleKeyValue(line)
	return ok && knownTitleKeys[strings.ToLower(key)]
}

// titleKeyValue matches a "Key: value" title page line.
func titleKeyValue(line string) (key, value string, ok bool) {
	m := reTitleKey.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// isIndented reports a title page continuation line (tab or 2+ spaces).
func isIndented(line string) bool {
	return strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "  ")
}
