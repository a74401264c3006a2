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
	"strings"
	"testing"
	"time"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }
func (f *fakeNow) add(d time.Duration) { f.t = f.t.Add(d) }

func content(text string) domain.Content {
	return domain.Content{Elements: []domain.Element{{ID: "a", Type: grammar.Action, Content: text}}}
}

func text(c domain.Content) string { return c.Elements[0].Content }

func TestUndoRedoBasic(t *testing.T) {
	clk := &fakeNow{t: time.Unix(0, 0)}
	m := NewManager(Config{MaxDepth: 10, MinInterval: 10 * time.Millisecond, Now: clk.now})
	m.Push("doc", content("a"))
	clk.add(20 * time.Millisecond)
	m.Push("doc", content("b"))
	if _, docs, total := m.Stats(); docs != 1 || total != 2 {
		t.Fatalf("expected 1 doc and 2 entries, got docs=%d total=%d", docs, total)
	}
	got, ok := m.Undo("doc", content("c"))
	if !ok || text(got) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v %q", ok, text(got))
	}
	got, ok = m.Redo("doc", got)
	if !ok || text(got) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v %q", ok, text(got))
	}
	if !m.CanUndo("doc") || m.CanRedo("doc") {
		t.Fatalf("unexpected stack state after redo")
	}
}

func TestCoalesceKeepsBurstStart(t *testing.T) {
	clk := &fakeNow{t: time.Unix(0, 0)}
	m := NewManager(Config{MinInterval: 50 * time.Millisecond, Now: clk.now})
	m.Push("doc", content("1"))
	clk.add(10 * time.Millisecond)
	if m.Push("doc", content("2")) {
		t.Fatalf("push within interval must coalesce")
	}
	_, _, total := m.Stats()
	if total != 1 {
		t.Fatalf("expected coalesced to 1 entry, got %d", total)
	}
	got, ok := m.Undo("doc", content("3"))
	if !ok || text(got) != "1" {
		t.Fatalf("expected burst start '1', got ok=%v %q", ok, text(got))
	}
}

func TestPushClearsRedo(t *testing.T) {
	clk := &fakeNow{t: time.Unix(0, 0)}
	m := NewManager(Config{MinInterval: time.Millisecond, Now: clk.now})
	m.Push("doc", content("1"))
	m.Undo("doc", content("2"))
	clk.add(time.Second)
	m.Push("doc", content("1"))
	if m.CanRedo("doc") {
		t.Fatalf("new push must clear redo")
	}
}

func TestDepthCap(t *testing.T) {
	clk := &fakeNow{t: time.Unix(0, 0)}
	m := NewManager(Config{MaxDepth: 2, MinInterval: time.Millisecond, Now: clk.now})
	for i := 0; i < 10; i++ {
		clk.add(time.Second)
		m.Push("doc", content("xxxxx"))
	}
	if _, _, total := m.Stats(); total != 2 {
		t.Fatalf("expected MaxDepth cap to limit to 2, got %d", total)
	}
}

func TestByteCapPrunesOldestAcrossDocs(t *testing.T) {
	clk := &fakeNow{t: time.Unix(0, 0)}
	m := NewManager(Config{MaxBytes: 40, MinInterval: time.Millisecond, Now: clk.now})
	big := strings.Repeat("x", 15)
	for i := 0; i < 5; i++ {
		clk.add(time.Second)
		m.Push("one", content(big))
		clk.add(time.Second)
		m.Push("two", content(big))
	}
	bytes, _, _ := m.Stats()
	if bytes > 40 {
		t.Fatalf("byte cap exceeded: %d", bytes)
	}
	if !m.CanUndo("two") {
		t.Fatalf("newest entry must survive pruning")
	}
}

func TestClear(t *testing.T) {
	m := NewManager(Config{})
	m.Push("doc", content("x"))
	m.Clear("doc")
	if bytes, docs, _ := m.Stats(); bytes != 0 || docs != 0 {
		t.Fatalf("clear left bytes=%d docs=%d", bytes, docs)
	}
	if _, ok := m.Undo("doc", content("y")); ok {
		t.Fatalf("undo after clear must report false")
	}
}
