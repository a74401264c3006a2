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

// This file defines the persisted shape of a script: typed elements plus a
// free-form title page. It serializes to the JSON used by script files and the
// SQL store alike.

import (
	"sort"

	"github.com/google/uuid"

	"hobodraft/internal/grammar"
)

// NewID returns a fresh opaque identifier. Tests may swap it for deterministic ids.
var NewID = uuid.NewString

// Element is one typed, independently editable block of text.
type Element struct {
	ID      string              `json:"id"`
	Type    grammar.ElementType `json:"type"`
	Content string              `json:"content"`
}

// TitlePage holds the cover metadata of a script.
type TitlePage struct {
	Title   string            `json:"title,omitempty"`
	Author  string            `json:"author,omitempty"`
	Contact string            `json:"contact,omitempty"`
	Draft   string            `json:"draft,omitempty"`
	Date    string            `json:"date,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Field is one labelled title page entry.
type Field struct {
	Key   string
	Value string
}

// Fields lists the non-empty entries in canonical order, extras sorted by key.
func (tp TitlePage) Fields() []Field {
	var out []Field
	add := func(k, v string) {
		if v != "" {
			out = append(out, Field{Key: k, Value: v})
		}
	}
	add("Title", tp.Title)
	add("Author", tp.Author)
	add("Contact", tp.Contact)
	add("Draft", tp.Draft)
	add("Date", tp.Date)
	keys := make([]string, 0, len(tp.Extra))
	for k := range tp.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, tp.Extra[k])
	}
	return out
}

// Empty reports whether no field is set.
func (tp TitlePage) Empty() bool { return len(tp.Fields()) == 0 }

func (tp TitlePage) clone() TitlePage {
	out := tp
	if tp.Extra != nil {
		out.Extra = make(map[string]string, len(tp.Extra))
		for k, v := range tp.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func (tp TitlePage) equal(o TitlePage) bool {
	if tp.Title != o.Title || tp.Author != o.Author || tp.Contact != o.Contact || tp.Draft != o.Draft || tp.Date != o.Date {
		return false
	}
	if len(tp.Extra) != len(o.Extra) {
		return false
	}
	for k, v := range tp.Extra {
		if ov, ok := o.Extra[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Content is the full persisted payload of a script body.
type Content struct {
	Elements  []Element `json:"elements"`
	TitlePage TitlePage `json:"titlePage"`
}

// Clone returns a deep copy.
func (c Content) Clone() Content {
	out := Content{TitlePage: c.TitlePage.clone()}
	if c.Elements != nil {
		out.Elements = make([]Element, len(c.Elements))
		copy(out.Elements, c.Elements)
	}
	return out
}
