/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fountain parses and serializes Fountain plain-text screenplays.
// The parser is deliberately permissive: it never fails on arbitrary text,
// unrecognized lines default to action, and empty input yields an empty
// screenplay rather than an error.
package fountain

import (
	"strings"

	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

// lineBatch is the cancellation/progress polling granularity.
const lineBatch = 64

// Parse converts Fountain text into the canonical screenplay model without
// instrumentation.
func Parse(text string) *screenplay.ParsedScreenplay {
	ps, _ := ParseWithProgress(text, nil)
	return ps
}

// ParseWithProgress parses with an optional coordinator. Progress is
// reported per line batch; cancellation is polled at the same cadence. On
// cancellation it returns progress.ErrCancelled and no partial document.
func ParseWithProgress(text string, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	lines := splitLines(text)
	op.SetTotalUnits(int64(len(lines)), "parsing fountain")

	ps := &screenplay.ParsedScreenplay{Elements: []screenplay.Element{}}

	entries, consumed := parseTitlePage(lines)
	ps.TitlePage = entries

	p := &parser{ps: ps}
	for i := consumed; i < len(lines); i++ {
		if (i-consumed)%lineBatch == 0 {
			if op.Cancelled() {
				return nil, progress.ErrCancelled
			}
			op.Update(int64(i), "parsing fountain", false)
		}
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		p.consume(lines[i], next)
	}
	p.flushAll()

	op.Update(int64(len(lines)), "fountain parsed", true)
	return ps, nil
}

// parser is the line-consuming state machine. It assembles multi-line
// blocks: action paragraphs, dialogue runs, and boneyards.
type parser struct {
	ps *screenplay.ParsedScreenplay

	actionBuf  []string
	inDialogue bool
	inBoneyard bool
	boneyard   []string
}

func (p *parser) append(e screenplay.Element) *screenplay.Element {
	p.ps.Elements = append(p.ps.Elements, e)
	return &p.ps.Elements[len(p.ps.Elements)-1]
}

func (p *parser) flushAction() {
	if len(p.actionBuf) == 0 {
		return
	}
	p.append(screenplay.Element{Type: screenplay.Action, Text: strings.Join(p.actionBuf, "\n")})
	p.actionBuf = nil
}

func (p *parser) flushAll() {
	p.flushAction()
	if p.inBoneyard {
		// Unterminated boneyard: keep what was collected rather than lose it.
		p.append(screenplay.Element{Type: screenplay.Boneyard, Text: strings.Join(p.boneyard, "\n")})
		p.inBoneyard = false
		p.boneyard = nil
	}
}

func (p *parser) lastElement() *screenplay.Element {
	if len(p.ps.Elements) == 0 {
		return nil
	}
	return &p.ps.Elements[len(p.ps.Elements)-1]
}

func (p *parser) consume(line, next string) {
	trim := strings.TrimSpace(line)

	if p.inBoneyard {
		if idx := strings.Index(trim, "*/"); idx >= 0 {
			if frag := strings.TrimSpace(trim[:idx]); frag != "" {
				p.boneyard = append(p.boneyard, frag)
			}
			p.append(screenplay.Element{Type: screenplay.Boneyard, Text: strings.Join(p.boneyard, "\n")})
			p.inBoneyard = false
			p.boneyard = nil
		} else if trim != "" {
			p.boneyard = append(p.boneyard, trim)
		}
		return
	}

	if trim == "" {
		p.flushAction()
		p.inDialogue = false
		return
	}

	// Dialogue run: everything after a cue until a blank line or a new cue.
	if p.inDialogue && !isCharacterCue(trim, next) {
		if strings.HasPrefix(trim, "(") && strings.HasSuffix(trim, ")") {
			p.append(screenplay.Element{Type: screenplay.Parenthetical, Text: trim})
			return
		}
		if last := p.lastElement(); last != nil && last.Type == screenplay.Dialogue {
			last.Text += "\n" + trim
			return
		}
		p.append(screenplay.Element{Type: screenplay.Dialogue, Text: trim})
		return
	}

	switch {
	case isPageBreak(trim):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{Type: screenplay.PageBreak, Text: ""})

	case strings.HasPrefix(trim, "/*"):
		p.flushAction()
		p.inDialogue = false
		rest := strings.TrimSpace(strings.TrimPrefix(trim, "/*"))
		if idx := strings.Index(rest, "*/"); idx >= 0 {
			p.append(screenplay.Element{Type: screenplay.Boneyard, Text: strings.TrimSpace(rest[:idx])})
		} else {
			p.inBoneyard = true
			if rest != "" {
				p.boneyard = append(p.boneyard, rest)
			}
		}

	case strings.HasPrefix(trim, "[[") && strings.HasSuffix(trim, "]]"):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{Type: screenplay.Comment, Text: strings.TrimSpace(trim[2 : len(trim)-2])})

	case isCentered(trim):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{
			Type:     screenplay.Action,
			Text:     strings.TrimSpace(trim[1 : len(trim)-1]),
			Centered: true,
		})

	case isForcedSceneHeading(trim):
		p.flushAction()
		p.inDialogue = false
		heading, number := splitSceneNumber(strings.TrimSpace(trim[1:]))
		p.append(screenplay.Element{
			Type:        screenplay.SceneHeading,
			Text:        heading,
			SceneNumber: number,
			Location:    screenplay.ParseLocation(heading),
		})

	case isSceneHeading(trim):
		p.flushAction()
		p.inDialogue = false
		heading, number := splitSceneNumber(trim)
		p.append(screenplay.Element{
			Type:        screenplay.SceneHeading,
			Text:        heading,
			SceneNumber: number,
			Location:    screenplay.ParseLocation(heading),
		})

	case sectionDepth(trim) > 0:
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{
			Type:         screenplay.SectionHeading,
			SectionLevel: sectionLevel(sectionDepth(trim)),
			Text:         trim,
		})

	case isSynopsis(trim):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{Type: screenplay.Synopsis, Text: strings.TrimSpace(strings.TrimPrefix(trim, "="))})

	case isLyrics(trim):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{Type: screenplay.Lyrics, Text: strings.TrimSpace(strings.TrimPrefix(trim, "~"))})

	case isForcedTransition(trim):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{Type: screenplay.Transition, Text: strings.TrimSpace(strings.TrimPrefix(trim, ">"))})

	case isTransition(trim):
		p.flushAction()
		p.inDialogue = false
		p.append(screenplay.Element{Type: screenplay.Transition, Text: trim})

	case isCharacterCue(trim, next):
		p.flushAction()
		cue := strings.TrimPrefix(trim, "@")
		dual := strings.HasSuffix(cue, "^")
		cue = strings.TrimSpace(strings.TrimSuffix(cue, "^"))
		p.append(screenplay.Element{Type: screenplay.Character, Text: cue, DualDialogue: dual})
		p.inDialogue = true

	default:
		p.actionBuf = append(p.actionBuf, trim)
	}
}

// parseTitlePage consumes contiguous leading "Key: value" lines (with
// indented continuations) terminated by a blank line. It returns the entries
// and the count of consumed lines including the terminating blank.
func parseTitlePage(lines []string) ([]screenplay.TitlePageEntry, int) {
	if len(lines) == 0 {
		return nil, 0
	}
	if !isTitlePageStart(lines[0]) {
		return nil, 0
	}

	var entries []screenplay.TitlePageEntry
	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if isBlank(line) {
			i++ // consume the terminating blank line
			break
		}
		if isIndented(line) && len(entries) > 0 {
			cur := &entries[len(entries)-1]
			cur.Lines = append(cur.Lines, strings.TrimSpace(line))
			continue
		}
		key, value, ok := titleKeyValue(line)
		if !ok {
			// Malformed mid-block line: the title page ends here and the
			// line belongs to the body.
			break
		}
		entry := screenplay.TitlePageEntry{Key: key}
		if value != "" {
			entry.Lines = append(entry.Lines, value)
		}
		entries = append(entries, entry)
	}
	return entries, i
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
