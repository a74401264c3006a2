/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor implements the keyboard-driven editing state machine over a
// document: active element tracking, structural edits bound to keys and the
// autocomplete sub-state.
package editor

import (
	"log/slog"
	"sync"

	"hobodraft/internal/autocomplete"
	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
	applog "hobodraft/internal/log"
	"hobodraft/internal/undo"
)

// Options configures a Session. The zero value is a desktop session without history.
type Options struct {
	Env     Environment
	Index   autocomplete.Index
	History *undo.Manager
	// HistoryKey separates documents sharing one History; defaults to "default".
	HistoryKey string
	Logger     *slog.Logger
}

// Session owns one document and its editing state. All methods are safe for
// concurrent use so a background save can snapshot while keys are handled.
type Session struct {
	mu    sync.Mutex
	doc   *domain.Document
	state State
	env   Environment
	idx   autocomplete.Index
	hist  *undo.Manager
	key   string
	log   *slog.Logger
}

// NewSession starts editing doc with its first element active.
func NewSession(doc *domain.Document, opts Options) *Session {
	s := &Session{
		doc:  doc,
		env:  opts.Env,
		idx:  opts.Index.Clone(),
		hist: opts.History,
		key:  opts.HistoryKey,
		log:  opts.Logger,
	}
	if s.env == nil {
		s.env = Fixed(false)
	}
	if s.key == "" {
		s.key = "default"
	}
	if s.log == nil {
		s.log = applog.WithComponent("editor")
	}
	if first, ok := doc.At(0); ok {
		s.state.Active = first.ID
	}
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Active returns the active element.
func (s *Session) Active() (domain.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Element(s.state.Active)
}

// Elements returns a copy of the document's elements.
func (s *Session) Elements() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Elements()
}

// Snapshot returns a deep copy of the document content for saving.
func (s *Session) Snapshot() domain.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Content()
}

// Revision is the document's mutation counter.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Revision()
}

// SetIndex replaces the known characters and locations, e.g. after a save.
func (s *Session) SetIndex(idx autocomplete.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx.Clone()
}

// Focus makes id the active element and closes autocomplete. Unknown ids are ignored.
func (s *Session) Focus(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.IndexOf(id) < 0 {
		return
	}
	s.swap(State{Active: id})
}

// Input replaces the active element's content and recomputes suggestions.
func (s *Session) Input(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureActive()
	id := s.state.Active
	s.mutate(func() { s.doc.SetContent(id, text) })
	s.swap(State{Active: id, Autocomplete: s.derive(id)})
}

// SetTitlePage replaces the title page.
func (s *Session) SetTitlePage(tp domain.TitlePage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutate(func() { s.doc.SetTitlePage(tp) })
}

// Restore replaces the whole content, as after a version restore. It can be undone.
func (s *Session) Restore(c domain.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutate(func() { s.doc.Replace(c) })
	s.swap(State{Active: s.firstID()})
	s.log.Info("content restored", "elements", s.doc.Len())
}

// HandleKey runs the transition table for ev, first matching rule wins.
func (s *Session) HandleKey(ev KeyEvent) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureActive()
	st := s.state
	ac := st.Autocomplete

	if ac.Open && len(ac.Items) > 0 {
		switch ev.Key {
		case KeyDown, KeyUp:
			h := ac.Highlight
			if ev.Key == KeyDown {
				h++
			} else {
				h--
			}
			h = max(0, min(h, len(ac.Items)-1))
			next := st.clone()
			next.Autocomplete.Highlight = h
			s.swap(next)
			return s.outcome(ActionHighlight)
		case KeyTab, KeyEnter:
			pick := ac.Items[ac.Highlight]
			id := st.Active
			s.mutate(func() { s.doc.SetContent(id, pick) })
			s.swap(State{Active: id})
			return s.outcome(ActionAccept)
		case KeyEscape:
			s.swap(State{Active: st.Active})
			return s.outcome(ActionDismiss)
		}
	}

	switch ev.Key {
	case KeyEnter:
		create := !ev.Shift
		if s.env.IsTouch() {
			create = ev.Shift
		}
		if !create {
			break
		}
		cur, ok := s.doc.Element(st.Active)
		if !ok {
			break
		}
		typ := s.doc.Grammar().Successor(cur.Type)
		var id string
		s.mutate(func() { id = s.doc.InsertAfter(cur.ID, typ, "") })
		s.swap(State{Active: id})
		s.log.Debug("element inserted", "after", cur.ID, "id", id, "type", typ)
		return s.outcome(ActionInsert)
	case KeyTab:
		dir := 1
		if ev.Shift {
			dir = -1
		}
		id := st.Active
		var typ grammar.ElementType
		s.mutate(func() { typ = s.doc.CycleType(id, dir) })
		s.log.Debug("element retyped", "id", id, "type", typ)
		return s.outcome(ActionCycle)
	case KeyBackspace:
		cur, ok := s.doc.Element(st.Active)
		if !ok || cur.Content != "" || s.doc.Len() <= 1 {
			break
		}
		var target string
		s.mutate(func() { target = s.doc.DeleteMerge(cur.ID) })
		s.swap(State{Active: target})
		return s.outcome(ActionMerge)
	}
	return Outcome{Focus: s.state.Active}
}

// Undo reverts the last recorded change. It reports false without history.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hist == nil {
		return false
	}
	prev, ok := s.hist.Undo(s.key, s.doc.Content())
	if !ok {
		return false
	}
	s.doc.Replace(prev)
	s.settle()
	return true
}

// Redo re-applies the last undone change.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hist == nil {
		return false
	}
	next, ok := s.hist.Redo(s.key, s.doc.Content())
	if !ok {
		return false
	}
	s.doc.Replace(next)
	s.settle()
	return true
}

// mutate runs fn and records the prior content in the history when fn changed the document.
func (s *Session) mutate(fn func()) {
	if s.hist == nil {
		fn()
		return
	}
	before := s.doc.Content()
	rev := s.doc.Revision()
	fn()
	if s.doc.Revision() != rev {
		s.hist.Push(s.key, before)
	}
}

func (s *Session) swap(next State) { s.state = next }

func (s *Session) outcome(a Action) Outcome {
	return Outcome{Intercepted: true, Action: a, Focus: s.state.Active}
}

func (s *Session) derive(id string) Suggestions {
	el, ok := s.doc.Element(id)
	if !ok {
		return Suggestions{}
	}
	items := autocomplete.Derive(s.doc.Grammar(), el, s.idx)
	if len(items) == 0 {
		return Suggestions{}
	}
	return Suggestions{Open: true, Items: items}
}

func (s *Session) firstID() string {
	if el, ok := s.doc.At(0); ok {
		return el.ID
	}
	return ""
}

// ensureActive recovers from an active id that vanished under an external replace.
func (s *Session) ensureActive() {
	if s.doc.IndexOf(s.state.Active) < 0 {
		s.swap(State{Active: s.firstID()})
	}
}

// settle keeps the active element after undo/redo when it still exists.
func (s *Session) settle() {
	s.ensureActive()
	s.swap(State{Active: s.state.Active})
}
