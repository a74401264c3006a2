/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"hobodraft/internal/domain"
)

// Entry is one recorded document state.
type Entry struct {
	Content domain.Content
	TS      time.Time
	size    int
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap across all documents; the oldest entries are pruned when exceeded.
	MaxBytes int
	// MaxDepth limits the undo entries kept per document (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces a burst: a push within the interval of the previous
	// one is dropped, so the whole burst undoes in one step.
	MinInterval time.Duration
	// Now is the time source, time.Now when nil.
	Now func() time.Time
}

// Manager keeps in-memory undo/redo stacks per document key.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-document stacks
	undo map[string][]Entry
	redo map[string][]Entry
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 750 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Entry), redo: make(map[string][]Entry)}
}

func sizeOf(c domain.Content) int {
	n := 0
	for _, e := range c.Elements {
		n += len(e.ID) + len(e.Type) + len(e.Content)
	}
	for _, f := range c.TitlePage.Fields() {
		n += len(f.Key) + len(f.Value)
	}
	return n
}

func newEntry(c domain.Content, ts time.Time) Entry {
	c = c.Clone()
	return Entry{Content: c, TS: ts, size: sizeOf(c)}
}

// Push records the state before a mutation. Any push clears the redo stack.
// It reports whether a new entry was kept (false when coalesced into the burst).
func (m *Manager) Push(key string, before domain.Content) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.cfg.Now()
	m.redo[key] = nil
	stack := m.undo[key]
	if n := len(stack); n > 0 && now.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		// Same burst: keep the older state, extend the burst window.
		stack[n-1].TS = now
		return false
	}
	e := newEntry(before, now)
	m.undo[key] = append(stack, e)
	m.totalBytes += e.size
	m.enforceCapsLocked(key)
	return true
}

// Undo returns the most recent recorded state and moves current onto the redo stack.
func (m *Manager) Undo(key string, current domain.Content) (domain.Content, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	if len(stack) == 0 {
		return domain.Content{}, false
	}
	e := stack[len(stack)-1]
	m.undo[key] = stack[:len(stack)-1]
	m.totalBytes -= e.size
	m.redo[key] = append(m.redo[key], newEntry(current, m.cfg.Now()))
	return e.Content.Clone(), true
}

// Redo reverses the last Undo and moves current back onto the undo stack.
func (m *Manager) Redo(key string, current domain.Content) (domain.Content, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[key]
	if len(r) == 0 {
		return domain.Content{}, false
	}
	e := r[len(r)-1]
	m.redo[key] = r[:len(r)-1]
	// A redo is never coalesced; back-date it so the next edit starts a new burst.
	back := newEntry(current, m.cfg.Now().Add(-m.cfg.MinInterval))
	m.undo[key] = append(m.undo[key], back)
	m.totalBytes += back.size
	m.enforceCapsLocked(key)
	return e.Content.Clone(), true
}

// CanUndo reports whether key has recorded states.
func (m *Manager) CanUndo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[key]) > 0
}

// CanRedo reports whether key has undone states.
func (m *Manager) CanRedo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[key]) > 0
}

// Clear drops both stacks of a document, e.g. after a version restore.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.undo[key] {
		m.totalBytes -= e.size
	}
	delete(m.undo, key)
	delete(m.redo, key)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, docs int, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs = len(m.undo)
	for _, v := range m.undo {
		entries += len(v)
	}
	return m.totalBytes, docs, entries
}

func (m *Manager) enforceCapsLocked(key string) {
	if m.cfg.MaxDepth > 0 {
		stack := m.undo[key]
		if len(stack) > m.cfg.MaxDepth {
			toDrop := len(stack) - m.cfg.MaxDepth
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= stack[i].size
			}
			m.undo[key] = append([]Entry{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest entry across all documents, but
	// never the newest entry of the document just pushed.
	for m.totalBytes > m.cfg.MaxBytes {
		oldestKey := ""
		found := false
		var oldestTS time.Time
		for k, stack := range m.undo {
			if len(stack) == 0 || (k == key && len(stack) == 1) {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestKey, oldestTS, found = k, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestKey]
		m.totalBytes -= stack[0].size
		m.undo[oldestKey] = stack[1:]
		if len(m.undo[oldestKey]) == 0 {
			delete(m.undo, oldestKey)
		}
	}
}
