/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package analysis

import (
	"regexp"
	"sort"
	"strings"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

var (
	scenePrefix = regexp.MustCompile(`(?i)^\s*(?:INT\./EXT\.|INT/EXT\.?|I/E\.?|INT\.|EXT\.|INT\b|EXT\b)\s*`)
	dayPart     = regexp.MustCompile(`(?i)\s*-+\s*(?:DAY|NIGHT|MORNING|AFTERNOON|EVENING|DAWN|DUSK|CONTINUOUS|LATER|MOMENTS LATER|SAME|SAME TIME)\s*$`)
)

// ExtractCharacters returns the unique upper-cased character cues, sorted.
func ExtractCharacters(els []domain.Element) []string {
	set := map[string]struct{}{}
	for _, e := range els {
		if e.Type != grammar.Character {
			continue
		}
		if name := strings.ToUpper(strings.TrimSpace(e.Content)); name != "" {
			set[name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ExtractLocations returns the unique location phrases of all scene headings, sorted.
func ExtractLocations(els []domain.Element) []string {
	set := map[string]struct{}{}
	for _, e := range els {
		if e.Type != grammar.SceneHeading {
			continue
		}
		if loc := Location(e.Content); loc != "" {
			set[loc] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Location extracts the place from a scene heading such as "INT. KITCHEN - NIGHT".
func Location(heading string) string {
	s := scenePrefix.ReplaceAllString(heading, "")
	s = dayPart.ReplaceAllString(s, "")
	return strings.ToUpper(strings.TrimSpace(s))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
