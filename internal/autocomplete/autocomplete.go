/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package autocomplete derives suggestion lists for the active element from
// the character names and scene locations known for a script.
package autocomplete

import (
	"strings"
	"unicode/utf8"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// DisplayLimit caps how many suggestions are shown at once.
const DisplayLimit = 5

// minSceneInput is the length a scene heading must exceed before locations are offered.
const minSceneInput = 4

// Index carries the known names a script has accumulated.
type Index struct {
	Characters []string `json:"characters"`
	Locations  []string `json:"locations"`
}

// Clone returns a copy that does not alias i.
func (i Index) Clone() Index {
	return Index{
		Characters: append([]string(nil), i.Characters...),
		Locations:  append([]string(nil), i.Locations...),
	}
}

// scene prefixes, longest first so INT./EXT. wins over INT.
var scenePrefixes = []string{"INT./EXT.", "INT/EXT.", "I/E.", "INT.", "EXT."}

const defaultScenePrefix = "INT."

// Derive returns every suggestion for the active element. The result backs
// keyboard navigation; use Visible for display.
func Derive(g grammar.Grammar, active domain.Element, idx Index) []string {
	typed := strings.TrimSpace(active.Content)
	switch {
	case g.Character() != "" && active.Type == g.Character():
		return characters(typed, idx.Characters)
	case g.SceneHeading() != "" && active.Type == g.SceneHeading():
		return locations(typed, idx.Locations)
	default:
		return nil
	}
}

func characters(typed string, known []string) []string {
	if typed == "" {
		return nil
	}
	lt := strings.ToLower(typed)
	var out []string
	seen := map[string]bool{}
	for _, name := range known {
		ln := strings.ToLower(strings.TrimSpace(name))
		if ln == "" || ln == lt || seen[ln] || !strings.HasPrefix(ln, lt) {
			continue
		}
		seen[ln] = true
		out = append(out, strings.TrimSpace(name))
	}
	return out
}

func locations(typed string, known []string) []string {
	if utf8.RuneCountInString(typed) <= minSceneInput {
		return nil
	}
	prefix, rest := splitScenePrefix(typed)
	needle := strings.ToLower(rest)
	var out []string
	seen := map[string]bool{}
	for _, loc := range known {
		l := strings.ToUpper(strings.TrimSpace(loc))
		if l == "" {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(l), needle) {
			continue
		}
		s := prefix + " " + l + " - DAY"
		if seen[s] || strings.EqualFold(s, typed) {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// splitScenePrefix separates a leading INT./EXT. marker from the location
// being typed. A trailing day part already typed is ignored.
func splitScenePrefix(typed string) (string, string) {
	upper := strings.ToUpper(typed)
	prefix := defaultScenePrefix
	rest := typed
	for _, p := range scenePrefixes {
		if strings.HasPrefix(upper, p) {
			prefix = p
			rest = typed[len(p):]
			break
		}
	}
	rest = strings.TrimSpace(rest)
	if i := strings.Index(rest, " -"); i >= 0 {
		rest = strings.TrimSpace(rest[:i])
	}
	return prefix, rest
}

// Visible returns the displayed slice of items.
func Visible(items []string) []string {
	if len(items) > DisplayLimit {
		return items[:DisplayLimit]
	}
	return items
}
