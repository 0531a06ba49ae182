/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "strings"

// Location is the cached breakdown of a scene heading such as
// "INT. KITCHEN - NIGHT".
type Location struct {
	Interior  bool   `json:"interior"`
	Exterior  bool   `json:"exterior"`
	Name      string `json:"name"`
	TimeOfDay string `json:"timeOfDay,omitempty"`
}

// scene heading prefixes in match order; longer variants first so that
// "INT./EXT." is not consumed as "INT.".
var locationPrefixes = []struct {
	prefix   string
	interior bool
	exterior bool
}{
	{"INT./EXT.", true, true},
	{"INT/EXT.", true, true},
	{"EXT./INT.", true, true},
	{"EXT/INT.", true, true},
	{"I/E.", true, true},
	{"INT.", true, false},
	{"EXT.", false, true},
	{"INT ", true, false},
	{"EXT ", false, true},
}

// ParseLocation splits a scene heading into its interior/exterior flag, the
// location name, and the trailing time of day. It never fails; a heading
// that doesn't follow the conventional shape yields a Location whose Name is
// the whole heading.
func ParseLocation(heading string) *Location {
	loc := &Location{}
	rest := strings.TrimSpace(heading)
	upper := strings.ToUpper(rest)
	for _, p := range locationPrefixes {
		if strings.HasPrefix(upper, p.prefix) {
			loc.Interior = p.interior
			loc.Exterior = p.exterior
			rest = strings.TrimSpace(rest[len(p.prefix):])
			break
		}
	}
	// Time of day follows the last " - " separator.
	if i := strings.LastIndex(rest, " - "); i >= 0 {
		loc.Name = strings.TrimSpace(rest[:i])
		loc.TimeOfDay = strings.TrimSpace(rest[i+3:])
	} else {
		loc.Name = rest
	}
	return loc
}
