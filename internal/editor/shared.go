/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"sync"

	"hobodraft/internal/domain"
	"hobodraft/internal/share"
)

// ErrReadOnly is returned when a read-only shared view tries to edit.
var ErrReadOnly = errors.New("shared view is read-only")

// SharedSession is the reduced-trust view behind a share link. It renders the
// same elements but offers no structural operations; content edits are
// accepted only in edit mode and are last-write-wins.
type SharedSession struct {
	mu   sync.Mutex
	doc  *domain.Document
	mode share.Mode
}

func NewShared(doc *domain.Document, mode share.Mode) *SharedSession {
	return &SharedSession{doc: doc, mode: mode}
}

func (s *SharedSession) Mode() share.Mode { return s.mode }

// CanEdit reports whether content edits are accepted.
func (s *SharedSession) CanEdit() bool { return s.mode == share.ModeEdit }

func (s *SharedSession) Elements() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Elements()
}

func (s *SharedSession) TitlePage() domain.TitlePage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.TitlePage()
}

// SetContent edits one element's text. Unknown ids are ignored.
func (s *SharedSession) SetContent(id, text string) error {
	if !s.CanEdit() {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SetContent(id, text)
	return nil
}

func (s *SharedSession) Snapshot() domain.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Content()
}
