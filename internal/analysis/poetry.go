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
	"strings"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

var (
	nonLetters = regexp.MustCompile(`[^a-z]+`)
	silentEnd  = regexp.MustCompile(`(?:[^aeiouy]es|[^aeiouy]ed|[^aeiouy]e)$`)
	leadingY   = regexp.MustCompile(`^y`)
	vowelGroup = regexp.MustCompile(`[aeiouy]{1,2}`)
	rhymeTail  = regexp.MustCompile(`[aeiouy][^aeiouy]*$`)
)

// PoemLine is the analysis of one verse element.
type PoemLine struct {
	ElementID string `json:"elementId"`
	Text      string `json:"text"`
	Syllables int    `json:"syllables"`
	LastWord  string `json:"lastWord"`
	RhymeKey  string `json:"rhymeKey"`
	Letter    string `json:"letter"`
}

// PoetryStats carries per-line syllables and the rhyme scheme.
type PoetryStats struct {
	Lines  []PoemLine `json:"lines"`
	Scheme string     `json:"scheme"`
}

func clean(word string) string {
	return nonLetters.ReplaceAllString(strings.ToLower(word), "")
}

// CountSyllables is a heuristic: short words are one syllable, otherwise a
// silent ending and a leading y are dropped and vowel groups are counted.
func CountSyllables(word string) int {
	w := clean(word)
	if w == "" {
		return 0
	}
	if len(w) <= 3 {
		return 1
	}
	w = silentEnd.ReplaceAllString(w, "")
	w = leadingY.ReplaceAllString(w, "")
	if n := len(vowelGroup.FindAllString(w, -1)); n > 0 {
		return n
	}
	return 1
}

// LineSyllables sums CountSyllables over the words of text.
func LineSyllables(text string) int {
	n := 0
	for _, w := range strings.Fields(text) {
		n += CountSyllables(w)
	}
	return n
}

// RhymeKey reduces a word to its terminal vowel-led suffix, or its last two
// letters when it has no vowel.
func RhymeKey(word string) string {
	w := clean(word)
	if w == "" {
		return ""
	}
	if m := rhymeTail.FindString(w); m != "" {
		return m
	}
	if len(w) <= 2 {
		return w
	}
	return w[len(w)-2:]
}

// RhymeScheme assigns a letter to every distinct rhyme key in first-seen order.
func RhymeScheme(words []string) string {
	var b strings.Builder
	letters := map[string]string{}
	for _, w := range words {
		b.WriteString(letterFor(letters, RhymeKey(w)))
	}
	return b.String()
}

func letterFor(seen map[string]string, key string) string {
	l, ok := seen[key]
	if !ok {
		l = Letter(len(seen))
		seen[key] = l
	}
	return l
}

// Letter maps 0 to A, 25 to Z, 26 to AA, 27 to AB and so on.
func Letter(n int) string {
	var buf []byte
	for n >= 0 {
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n = n/26 - 1
	}
	return string(buf)
}

func isVerse(t grammar.ElementType) bool {
	return t == grammar.Line || t == grammar.Couplet || t == grammar.Stanza
}

func lastWord(text string) string {
	fields := strings.Fields(text)
	for i := len(fields) - 1; i >= 0; i-- {
		if w := clean(fields[i]); w != "" {
			return w
		}
	}
	return ""
}

// Poetry analyzes verse elements. Elements without letters are skipped.
func Poetry(els []domain.Element) PoetryStats {
	var st PoetryStats
	seen := map[string]string{}
	var b strings.Builder
	for _, e := range els {
		if !isVerse(e.Type) {
			continue
		}
		lw := lastWord(e.Content)
		if lw == "" {
			continue
		}
		key := RhymeKey(lw)
		letter := letterFor(seen, key)
		b.WriteString(letter)
		st.Lines = append(st.Lines, PoemLine{
			ElementID: e.ID,
			Text:      e.Content,
			Syllables: LineSyllables(e.Content),
			LastWord:  lw,
			RhymeKey:  key,
			Letter:    letter,
		})
	}
	st.Scheme = b.String()
	return st
}
