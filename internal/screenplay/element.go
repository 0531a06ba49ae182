/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package screenplay defines the canonical element model shared by every
// parser, the ordering assigner, and the storage/export collaborators.
// Elements are created once per parse invocation and are immutable afterwards
// except for the two ordering key fields, which the order package assigns.
package screenplay

import (
	"path/filepath"
	"strings"
)

// ElementType is the closed set of screenplay element kinds.
// Every parser maps its input onto this set; unrecognized input defaults to Action.
type ElementType int

const (
	Action ElementType = iota
	SceneHeading
	Character
	Dialogue
	Parenthetical
	Lyrics
	Transition
	SectionHeading
	Synopsis
	Comment
	Boneyard
	PageBreak
)

var typeNames = map[ElementType]string{
	Action:         "action",
	SceneHeading:   "sceneHeading",
	Character:      "character",
	Dialogue:       "dialogue",
	Parenthetical:  "parenthetical",
	Lyrics:         "lyrics",
	Transition:     "transition",
	SectionHeading: "sectionHeading",
	Synopsis:       "synopsis",
	Comment:        "comment",
	Boneyard:       "boneyard",
	PageBreak:      "pageBreak",
}

// String returns the stable lowerCamel name used in serialized resources.
func (t ElementType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "action"
}

// ParseElementType converts a stored type name back to the enum. Unknown
// names yield Action, mirroring the parsers' permissive default.
func ParseElementType(s string) ElementType {
	for t, n := range typeNames {
		if n == s {
			return t
		}
	}
	return Action
}

// Element is one screenplay unit.
//
// ChapterIndex/OrderIndex form the composite ordering key: sorting a stored
// element set ascending by (ChapterIndex, OrderIndex) reproduces the exact
// document order the parser emitted. Both are zero until the ordering
// assigner has run.
type Element struct {
	Type ElementType `json:"type"`

	// SectionLevel is the outline level (1-6) and is meaningful only when
	// Type is SectionHeading.
	SectionLevel int `json:"sectionLevel,omitempty"`

	Text string `json:"text"`

	// SceneNumber holds the explicit scene number (e.g. "4A") when the
	// source carried one; scene headings only.
	SceneNumber string `json:"sceneNumber,omitempty"`

	// Location caches the parsed scene heading parts; scene headings only.
	Location *Location `json:"location,omitempty"`

	Centered     bool `json:"centered,omitempty"`
	DualDialogue bool `json:"dualDialogue,omitempty"`

	ChapterIndex int `json:"chapterIndex"`
	OrderIndex   int `json:"orderIndex"`
}

// TitlePageEntry is one key of the title page ("Title", "Author", ...) with
// its associated lines. Entries are ordered among themselves but carry no
// chapter/order key; they precede the element stream.
type TitlePageEntry struct {
	Key   string   `json:"key"`
	Lines []string `json:"lines"`
}

// ParsedScreenplay is the canonical parser output handed to storage and
// export collaborators.
type ParsedScreenplay struct {
	SourceFile string           `json:"sourceFile,omitempty"`
	Elements   []Element        `json:"elements"`
	TitlePage  []TitlePageEntry `json:"titlePage,omitempty"`
}

// TitleOrDefault returns the title page "Title" value, falling back to the
// source file stem and finally "Untitled".
func (p *ParsedScreenplay) TitleOrDefault() string {
	for _, e := range p.TitlePage {
		if e.Key == "Title" && len(e.Lines) > 0 {
			return e.Lines[0]
		}
	}
	if p.SourceFile != "" {
		base := filepath.Base(p.SourceFile)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "Untitled"
}
