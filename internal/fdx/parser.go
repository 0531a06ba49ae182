/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fdx parses Final Draft XML screenplays into the canonical element
// model. The scan is event-driven over the token stream rather than building
// a DOM, to bound memory on large documents.
//
// Unlike the permissive fountain parser, this one is strict: any
// unterminated or invalid XML structure is a fatal ParseError with no
// partial document, because structural XML errors are producer bugs rather
// than stylistic variance.
package fdx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

// paragraphBatch is the cancellation polling granularity.
const paragraphBatch = 32

// paragraphTypes maps the Final Draft "Type" attribute onto the canonical
// element model. Types absent from the table fall back to Action.
var paragraphTypes = map[string]screenplay.ElementType{
	"Scene Heading":  screenplay.SceneHeading,
	"Action":         screenplay.Action,
	"Character":      screenplay.Character,
	"Dialogue":       screenplay.Dialogue,
	"Parenthetical":  screenplay.Parenthetical,
	"Transition":     screenplay.Transition,
	"Shot":           screenplay.Action,
	"General":        screenplay.Action,
	"Cast List":      screenplay.Action,
	"Lyrics":         screenplay.Lyrics,
	"Singing":        screenplay.Lyrics,
	"New Act":        screenplay.SectionHeading,
	"End Of Act":     screenplay.SectionHeading,
	"Section":        screenplay.SectionHeading,
	"Synopsis":       screenplay.Synopsis,
	"Outline Header": screenplay.SectionHeading,
}

// Parse scans an FDX byte buffer synchronously.
func Parse(data []byte) (*screenplay.ParsedScreenplay, error) {
	return ParseWithProgress(data, nil)
}

// ParseWithProgress scans with an optional coordinator. Progress is keyed on
// paragraphs processed against a total discovered by a cheap byte scan;
// cancellation is checked at paragraph boundaries.
func ParseWithProgress(data []byte, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	if op != nil {
		total := int64(bytes.Count(data, []byte("<Paragraph")))
		op.SetTotalUnits(total, "parsing fdx")
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	ps := &screenplay.ParsedScreenplay{Elements: []screenplay.Element{}}

	var (
		sawRoot     bool
		inTitlePage bool
		paragraphs  int
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &screenplay.ParseError{Format: "fdx", Line: lineAt(data, dec.InputOffset()), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "FinalDraft":
				sawRoot = true
			case "TitlePage":
				inTitlePage = true
			case "Paragraph":
				paragraphs++
				if paragraphs%paragraphBatch == 0 && op.Cancelled() {
					return nil, progress.ErrCancelled
				}
				pType, number := paragraphAttrs(t)
				text, err := collectText(dec, t)
				if err != nil {
					return nil, &screenplay.ParseError{Format: "fdx", Line: lineAt(data, dec.InputOffset()), Err: err}
				}
				if inTitlePage {
					if pType != "" || text != "" {
						ps.TitlePage = append(ps.TitlePage, titleEntry(pType, text))
					}
				} else {
					ps.Elements = append(ps.Elements, buildElement(pType, number, text))
				}
				op.Update(int64(paragraphs), "parsing fdx", false)
			}
		case xml.EndElement:
			if t.Name.Local == "TitlePage" {
				inTitlePage = false
			}
		}
	}

	if !sawRoot {
		return nil, &screenplay.ParseError{Format: "fdx", Err: errors.New("missing FinalDraft root element")}
	}
	op.Update(int64(paragraphs), "fdx parsed", true)
	return ps, nil
}

// lineAt converts a decoder byte offset to a 1-based line number for error
// reporting.
func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

func paragraphAttrs(t xml.StartElement) (pType, number string) {
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "Type":
			pType = a.Value
		case "Number":
			number = a.Value
		}
	}
	return pType, number
}

// collectText concatenates the character data of all <Text> runs inside the
// paragraph, ignoring style-only spans, until the matching end element.
func collectText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var (
		b      strings.Builder
		inText int
		depth  int
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "Text" {
				inText++
			}
		case xml.EndElement:
			if depth == 0 && t.Name.Local == start.Name.Local {
				return strings.TrimSpace(b.String()), nil
			}
			if t.Name.Local == "Text" && inText > 0 {
				inText--
			}
			if depth > 0 {
				depth--
			}
		case xml.CharData:
			if inText > 0 {
				b.Write(t)
			}
		}
	}
}

func buildElement(pType, number, text string) screenplay.Element {
	et, ok := paragraphTypes[pType]
	if !ok {
		et = screenplay.Action
	}
	e := screenplay.Element{Type: et, Text: text}
	switch et {
	case screenplay.SceneHeading:
		e.SceneNumber = number
		e.Location = screenplay.ParseLocation(text)
	case screenplay.SectionHeading:
		// Acts map to the chapter-defining outline level.
		e.SectionLevel = 2
	}
	return e
}

// titleEntry maps a title page paragraph to an entry, splitting multi-line
// text into individual lines.
func titleEntry(pType, text string) screenplay.TitlePageEntry {
	key := pType
	if key == "" {
		key = "Title"
	}
	entry := screenplay.TitlePageEntry{Key: key}
	for _, l := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			entry.Lines = append(entry.Lines, s)
		}
	}
	return entry
}
