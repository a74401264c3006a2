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
	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// Report is the complete analysis of a document. Exactly one of the genre
// sections is set.
type Report struct {
	Genre      grammar.Genre    `json:"genre"`
	Words      int              `json:"words"`
	Pages      int              `json:"pages"`
	Chars      int              `json:"chars"`
	Elements   int              `json:"elements"`
	Outline    []OutlineEntry   `json:"outline"`
	Screenplay *ScreenplayStats `json:"screenplay,omitempty"`
	Poetry     *PoetryStats     `json:"poetry,omitempty"`
	Fiction    *FictionStats    `json:"fiction,omitempty"`
}

// Analyze recomputes the full report for doc.
func Analyze(doc *domain.Document) Report {
	return AnalyzeContent(doc.Genre(), doc.Elements())
}

// AnalyzeContent is Analyze over a raw element list.
func AnalyzeContent(genre grammar.Genre, els []domain.Element) Report {
	g := grammar.For(genre)
	words := WordCount(els)
	r := Report{
		Genre:    g.Genre(),
		Words:    words,
		Pages:    PageCount(words),
		Chars:    CharCount(els),
		Elements: len(els),
		Outline:  Outline(g, els),
	}
	switch g.Genre() {
	case grammar.Poetry:
		st := Poetry(els)
		r.Poetry = &st
	case grammar.Fiction:
		st := Fiction(els)
		r.Fiction = &st
	default:
		st := Screenplay(els)
		r.Screenplay = &st
	}
	return r
}
