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
	"strings"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// OpeningTitle names the implicit chapter before the first heading.
const OpeningTitle = "Opening"

// Chapter is a word count per chapter heading.
type Chapter struct {
	Title     string `json:"title"`
	ElementID string `json:"elementId,omitempty"`
	Words     int    `json:"words"`
}

// FictionStats is the chapter breakdown of a prose document.
type FictionStats struct {
	Chapters []Chapter `json:"chapters"`
}

// Fiction segments the element stream at chapter headings. Text before the
// first heading forms an Opening chapter, kept only if it has words or no
// heading exists.
func Fiction(els []domain.Element) FictionStats {
	opening := Chapter{Title: OpeningTitle}
	var chapters []Chapter
	for _, e := range els {
		if e.Type == grammar.ChapterHeading {
			title := strings.TrimSpace(e.Content)
			if title == "" {
				title = "Untitled"
			}
			chapters = append(chapters, Chapter{Title: title, ElementID: e.ID})
			continue
		}
		w := Words(e.Content)
		if len(chapters) == 0 {
			opening.Words += w
		} else {
			chapters[len(chapters)-1].Words += w
		}
	}
	if opening.Words > 0 || len(chapters) == 0 {
		chapters = append([]Chapter{opening}, chapters...)
	}
	return FictionStats{Chapters: chapters}
}
