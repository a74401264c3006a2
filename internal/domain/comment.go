/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"time"
	"unicode/utf8"
)

// MaxVersions is how many snapshots a script keeps; older ones are evicted.
const MaxVersions = 20

// DeletedElementPlaceholder replaces the excerpt of a comment whose element is gone.
const DeletedElementPlaceholder = "[deleted element]"

// Comment is a note attached to an element by id. The element may vanish.
type Comment struct {
	ID        string    `json:"id"`
	ElementID string    `json:"elementId"`
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentPatch is a partial update; nil fields are left alone.
type CommentPatch struct {
	Resolved *bool   `json:"resolved,omitempty"`
	Text     *string `json:"text,omitempty"`
	Color    *string `json:"color,omitempty"`
}

// Apply returns c with the patch applied.
func (p CommentPatch) Apply(c Comment) Comment {
	if p.Resolved != nil {
		c.Resolved = *p.Resolved
	}
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}

// Version is a named full snapshot of a script's content.
type Version struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	WordCount int       `json:"wordCount"`
	Content   Content   `json:"content"`
}

// VersionSummary is a version without its content, as listed to clients.
type VersionSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	WordCount int       `json:"wordCount"`
}

func (v Version) Summary() VersionSummary {
	return VersionSummary{ID: v.ID, Name: v.Name, CreatedAt: v.CreatedAt, WordCount: v.WordCount}
}

const excerptRunes = 60

// CommentView is a comment resolved against the current document.
type CommentView struct {
	Comment  Comment
	Index    int // element position, -1 when dangling
	Excerpt  string
	Dangling bool
}

// AnnotateComments resolves every comment against doc. Comments pointing at
// elements that no longer exist are kept and marked dangling.
func AnnotateComments(doc *Document, comments []Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		v := CommentView{Comment: c, Index: -1, Excerpt: DeletedElementPlaceholder, Dangling: true}
		if doc != nil {
			if i := doc.IndexOf(c.ElementID); i >= 0 {
				el, _ := doc.At(i)
				v.Index = i
				v.Excerpt = excerpt(el.Content)
				v.Dangling = false
			}
		}
		out = append(out, v)
	}
	return out
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	r := []rune(s)
	return string(r[:excerptRunes]) + "…"
}
