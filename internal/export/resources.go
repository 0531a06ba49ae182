/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"goscreenwriter/internal/screenplay"
)

// CharacterSummary is one speaking character derived from the element
// stream, in order of first appearance.
type CharacterSummary struct {
	Name      string `json:"name"`
	LineCount int    `json:"lineCount"`
}

// LocationSummary is one distinct scene location with its heading count.
type LocationSummary struct {
	Name     string `json:"name"`
	Interior bool   `json:"interior"`
	Exterior bool   `json:"exterior"`
	Scenes   int    `json:"scenes"`
}

// ExtractCharacters walks the element stream and counts dialogue elements
// per character cue. Parenthetical extensions like "(V.O.)" are stripped so
// "BOB (V.O.)" and "BOB" are the same character.
func ExtractCharacters(ps *screenplay.ParsedScreenplay) []CharacterSummary {
	var out []CharacterSummary
	index := map[string]int{}
	current := -1
	for _, e := range ps.Elements {
		switch e.Type {
		case screenplay.Character:
			name := characterName(e.Text)
			if name == "" {
				current = -1
				continue
			}
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, CharacterSummary{Name: name})
			}
			current = i
		case screenplay.Dialogue:
			if current >= 0 {
				out[current].LineCount++
			}
		case screenplay.Parenthetical:
			// stays within the current character's block
		default:
			current = -1
		}
	}
	return out
}

// ExtractLocations collects distinct scene heading locations in order of
// first appearance.
func ExtractLocations(ps *screenplay.ParsedScreenplay) []LocationSummary {
	var out []LocationSummary
	index := map[string]int{}
	for _, e := range ps.Elements {
		if e.Type != screenplay.SceneHeading {
			continue
		}
		loc := e.Location
		if loc == nil {
			loc = screenplay.ParseLocation(e.Text)
		}
		key := strings.ToUpper(loc.Name)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, LocationSummary{
				Name:     loc.Name,
				Interior: loc.Interior,
				Exterior: loc.Exterior,
			})
		}
		out[i].Scenes++
	}
	return out
}

// characterName strips dual-dialogue markers and parenthetical extensions
// from a cue.
func characterName(cue string) string {
	name := strings.TrimSpace(strings.TrimSuffix(cue, "^"))
	if i := strings.Index(name, "("); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return strings.ToUpper(name)
}
