/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package order assigns the composite (chapter, order) sort key that lets an
// unordered persistence layer reconstruct exact document order.
package order

import (
	"sort"

	"goscreenwriter/internal/screenplay"
)

const (
	// ChapterLevel is the section heading level that starts a new chapter.
	// All other section levels are inert with respect to chaptering.
	ChapterLevel = 2

	// Base is the first order index of every chapter. Indices increase by
	// one per element with no per-chapter limit.
	Base = 1000
)

// Assign walks elems in document order and writes the composite key onto
// every element. It mutates only the two key fields and is idempotent:
// re-applying it to a still-document-ordered slice reproduces identical
// keys. The resulting sort by (ChapterIndex, OrderIndex) is total, with no
// ties, for any input including empty and single-element slices.
func Assign(elems []screenplay.Element) {
	chapter := 0
	counter := Base
	for i := range elems {
		e := &elems[i]
		if e.Type == screenplay.SectionHeading && e.SectionLevel == ChapterLevel {
			chapter++
			counter = Base
		}
		e.ChapterIndex = chapter
		e.OrderIndex = counter
		counter++
	}
}

// Sort orders elems ascending by (ChapterIndex, OrderIndex) in place. It is
// what a persistence collaborator applies after an unordered fetch.
func Sort(elems []screenplay.Element) {
	sort.SliceStable(elems, func(i, j int) bool {
		if elems[i].ChapterIndex != elems[j].ChapterIndex {
			return elems[i].ChapterIndex < elems[j].ChapterIndex
		}
		return elems[i].OrderIndex < elems[j].OrderIndex
	})
}
