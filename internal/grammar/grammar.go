/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package grammar holds the per-genre element type tables: which block types a
// document may contain, how they are labelled and which type a freshly
// inserted block takes after a given one.
package grammar

import "strings"

// Genre is the grammar variant of a document.
type Genre string

const (
	Screenplay Genre = "screenplay"
	Poetry     Genre = "poetry"
	Fiction    Genre = "fiction"
)

// ElementType is the semantic type carried by every element.
type ElementType string

// Screenplay types.
const (
	SceneHeading  ElementType = "scene-heading"
	Action        ElementType = "action"
	Character     ElementType = "character"
	Parenthetical ElementType = "parenthetical"
	Dialogue      ElementType = "dialogue"
	Transition    ElementType = "transition"
	Shot          ElementType = "shot"
)

// Poetry types.
const (
	PoemTitle    ElementType = "poem-title"
	Epigraph     ElementType = "epigraph"
	Stanza       ElementType = "stanza"
	Line         ElementType = "line"
	Couplet      ElementType = "couplet"
	SectionBreak ElementType = "section-break"
)

// Fiction types. Fiction reuses Dialogue.
const (
	ChapterHeading ElementType = "chapter-heading"
	Paragraph      ElementType = "paragraph"
	SceneBreak     ElementType = "scene-break"
)

// Classify maps a document type tag to its genre. Unknown tags are screenplays.
func Classify(tag string) Genre {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "novel", "short-story", "novella", "fiction":
		return Fiction
	case "poem", "poetry":
		return Poetry
	default:
		return Screenplay
	}
}

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	return g == Screenplay || g == Poetry || g == Fiction
}

type entry struct {
	t     ElementType
	label string
	next  ElementType
}

// Grammar is an immutable lookup table for one genre.
type Grammar struct {
	genre     Genre
	entries   []entry
	heading   ElementType
	character ElementType
	scene     ElementType
	dialogue  ElementType
	action    ElementType
}

var registry = map[Genre]Grammar{
	Screenplay: {
		genre: Screenplay,
		entries: []entry{
			{SceneHeading, "Scene Heading", Action},
			{Action, "Action", Action},
			{Character, "Character", Dialogue},
			{Parenthetical, "Parenthetical", Dialogue},
			{Dialogue, "Dialogue", Character},
			{Transition, "Transition", SceneHeading},
			{Shot, "Shot", Action},
		},
		heading:   SceneHeading,
		character: Character,
		scene:     SceneHeading,
		dialogue:  Dialogue,
		action:    Action,
	},
	Poetry: {
		genre: Poetry,
		entries: []entry{
			{PoemTitle, "Title", Line},
			{Epigraph, "Epigraph", Line},
			{Stanza, "Stanza", Stanza},
			{Line, "Line", Line},
			{Couplet, "Couplet", Couplet},
			{SectionBreak, "Section Break", PoemTitle},
		},
		heading: PoemTitle,
		action:  Line,
	},
	Fiction: {
		genre: Fiction,
		entries: []entry{
			{ChapterHeading, "Chapter", Paragraph},
			{Paragraph, "Paragraph", Paragraph},
			{Dialogue, "Dialogue", Paragraph},
			{SceneBreak, "Scene Break", Paragraph},
		},
		heading:  ChapterHeading,
		dialogue: Dialogue,
		action:   Paragraph,
	},
}

// For returns the grammar of g. Unknown genres get the screenplay grammar.
func For(g Genre) Grammar {
	if gr, ok := registry[g]; ok {
		return gr
	}
	return registry[Screenplay]
}

// Genre returns the genre this grammar belongs to.
func (g Grammar) Genre() Genre { return g.genre }

// Types returns the ordered type list. The slice is a copy.
func (g Grammar) Types() []ElementType {
	out := make([]ElementType, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.t
	}
	return out
}

// Default is the first type of the ordered list.
func (g Grammar) Default() ElementType {
	if len(g.entries) == 0 {
		return ""
	}
	return g.entries[0].t
}

func (g Grammar) index(t ElementType) int {
	for i, e := range g.entries {
		if e.t == t {
			return i
		}
	}
	return -1
}

// Has reports whether t belongs to this grammar.
func (g Grammar) Has(t ElementType) bool { return g.index(t) >= 0 }

// Label returns the display label of t, or t itself for foreign types.
func (g Grammar) Label(t ElementType) string {
	if i := g.index(t); i >= 0 {
		return g.entries[i].label
	}
	return string(t)
}

// Successor is the type a new element takes when inserted after an element of type t.
func (g Grammar) Successor(t ElementType) ElementType {
	if i := g.index(t); i >= 0 && g.entries[i].next != "" {
		return g.entries[i].next
	}
	return g.Default()
}

// Cycle moves dir steps through the ordered type list, wrapping around.
// A type outside the grammar is treated as sitting at index 0, so it joins
// the list on the first step and a full loop ends on a grammar type, not on it.
func (g Grammar) Cycle(t ElementType, dir int) ElementType {
	n := len(g.entries)
	if n == 0 {
		return t
	}
	i := g.index(t)
	if i < 0 {
		i = 0
	}
	return g.entries[((i+dir)%n+n)%n].t
}

// Heading is the type that opens an outline entry.
func (g Grammar) Heading() ElementType { return g.heading }

// Character is the speaker-cue type, empty for genres without one.
func (g Grammar) Character() ElementType { return g.character }

// SceneHeading is the location-bearing heading type, empty for genres without one.
func (g Grammar) SceneHeading() ElementType { return g.scene }

// Dialogue is the spoken-line type, empty for genres without one.
func (g Grammar) Dialogue() ElementType { return g.dialogue }

// Action is the body-text type.
func (g Grammar) Action() ElementType { return g.action }
