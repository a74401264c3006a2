/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package analysis derives read-only reports from a document: counts, the
// outline and per-genre statistics. Every function is pure and tolerates an
// empty document.
package analysis

import (
	"math"
	"strings"
	"unicode/utf8"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// WordsPerPage is the fixed page estimate divisor.
const WordsPerPage = 250

// Words counts whitespace-delimited tokens in s.
func Words(s string) int { return len(strings.Fields(s)) }

// WordCount sums Words over all elements.
func WordCount(els []domain.Element) int {
	n := 0
	for _, e := range els {
		n += Words(e.Content)
	}
	return n
}

// PageCount estimates pages from a word count.
func PageCount(words int) int {
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerPage))
}

// CharCount sums the content length of all elements in runes.
func CharCount(els []domain.Element) int {
	n := 0
	for _, e := range els {
		n += utf8.RuneCountInString(e.Content)
	}
	return n
}

// OutlineEntry is one heading of the outline.
type OutlineEntry struct {
	Number    int    `json:"number"`   // 1-based
	Position  int    `json:"position"` // index in the element list
	ElementID string `json:"elementId"`
	Title     string `json:"title"`
}

// Outline lists the genre's heading elements in document order.
func Outline(g grammar.Grammar, els []domain.Element) []OutlineEntry {
	var out []OutlineEntry
	h := g.Heading()
	for i, e := range els {
		if e.Type != h {
			continue
		}
		out = append(out, OutlineEntry{
			Number:    len(out) + 1,
			Position:  i,
			ElementID: e.ID,
			Title:     strings.TrimSpace(e.Content),
		})
	}
	return out
}

// percent guards zero totals.
func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
