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

import "hobodraft/internal/grammar"

// Document is the editable, ordered sequence of elements of one script.
// It is not safe for concurrent use; the editing session serializes access.
//
// Invariant: a document always holds at least one element.
type Document struct {
	genre    grammar.Genre
	gr       grammar.Grammar
	elements []Element
	title    TitlePage
	rev      uint64
	onChange func()
}

// NewDocument builds a document of the given genre from a deep copy of c.
// Elements without an id get one; an empty content gets a single default element.
func NewDocument(genre grammar.Genre, c Content) *Document {
	gr := grammar.For(genre)
	d := &Document{genre: gr.Genre(), gr: gr}
	d.load(c)
	return d
}

func (d *Document) load(c Content) {
	c = c.Clone()
	for i := range c.Elements {
		if c.Elements[i].ID == "" {
			c.Elements[i].ID = NewID()
		}
		if c.Elements[i].Type == "" {
			c.Elements[i].Type = d.gr.Default()
		}
	}
	if len(c.Elements) == 0 {
		c.Elements = []Element{{ID: NewID(), Type: d.gr.Default()}}
	}
	d.elements = c.Elements
	d.title = c.TitlePage
}

// OnChange registers fn to run after every effective mutation.
func (d *Document) OnChange(fn func()) { d.onChange = fn }

func (d *Document) touch() {
	d.rev++
	if d.onChange != nil {
		d.onChange()
	}
}

func (d *Document) Genre() grammar.Genre     { return d.genre }
func (d *Document) Grammar() grammar.Grammar { return d.gr }

// Revision counts effective mutations since construction.
func (d *Document) Revision() uint64 { return d.rev }

func (d *Document) Len() int { return len(d.elements) }

// IndexOf returns the position of id, or -1.
func (d *Document) IndexOf(id string) int {
	for i := range d.elements {
		if d.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Element looks up an element by id.
func (d *Document) Element(id string) (Element, bool) {
	if i := d.IndexOf(id); i >= 0 {
		return d.elements[i], true
	}
	return Element{}, false
}

// At returns the element at position i.
func (d *Document) At(i int) (Element, bool) {
	if i < 0 || i >= len(d.elements) {
		return Element{}, false
	}
	return d.elements[i], true
}

// Elements returns a copy of the element sequence.
func (d *Document) Elements() []Element {
	out := make([]Element, len(d.elements))
	copy(out, d.elements)
	return out
}

func (d *Document) TitlePage() TitlePage { return d.title.clone() }

// Content returns a deep copy suitable for saving or snapshotting.
func (d *Document) Content() Content {
	return Content{Elements: d.Elements(), TitlePage: d.title.clone()}
}

// InsertAfter inserts a new element right after id and returns its id.
// An empty typ takes the grammar successor of the anchor. Unknown ids yield "".
func (d *Document) InsertAfter(id string, typ grammar.ElementType, content string) string {
	i := d.IndexOf(id)
	if i < 0 {
		return ""
	}
	if typ == "" {
		typ = d.gr.Successor(d.elements[i].Type)
	}
	el := Element{ID: NewID(), Type: typ, Content: content}
	d.elements = append(d.elements, Element{})
	copy(d.elements[i+2:], d.elements[i+1:])
	d.elements[i+1] = el
	d.touch()
	return el.ID
}

// Retype changes the type of id. Types foreign to the grammar are rejected.
func (d *Document) Retype(id string, typ grammar.ElementType) {
	i := d.IndexOf(id)
	if i < 0 || !d.gr.Has(typ) || d.elements[i].Type == typ {
		return
	}
	d.elements[i].Type = typ
	d.touch()
}

// SetContent replaces the text of id.
func (d *Document) SetContent(id, text string) {
	i := d.IndexOf(id)
	if i < 0 || d.elements[i].Content == text {
		return
	}
	d.elements[i].Content = text
	d.touch()
}

// DeleteMerge removes an empty element and returns the id that should take focus:
// the preceding element, or the new first element when index 0 was removed.
// The last remaining element and non-empty elements are never removed; their
// own id is returned. Unknown ids yield "".
func (d *Document) DeleteMerge(id string) string {
	i := d.IndexOf(id)
	if i < 0 {
		return ""
	}
	if len(d.elements) <= 1 || d.elements[i].Content != "" {
		return id
	}
	d.elements = append(d.elements[:i], d.elements[i+1:]...)
	d.touch()
	if i == 0 {
		return d.elements[0].ID
	}
	return d.elements[i-1].ID
}

// CycleType moves id dir steps through the grammar's type list and returns the new type.
func (d *Document) CycleType(id string, dir int) grammar.ElementType {
	i := d.IndexOf(id)
	if i < 0 {
		return ""
	}
	next := d.gr.Cycle(d.elements[i].Type, dir)
	if next != d.elements[i].Type {
		d.elements[i].Type = next
		d.touch()
	}
	return next
}

// SetTitlePage replaces the title page.
func (d *Document) SetTitlePage(tp TitlePage) {
	if d.title.equal(tp) {
		return
	}
	d.title = tp.clone()
	d.touch()
}

// Replace swaps the whole content, as done by a version restore.
func (d *Document) Replace(c Content) {
	d.load(c)
	d.touch()
}
