/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hobodraft/internal/autosave"
	"hobodraft/internal/editor"
	"hobodraft/internal/grammar"
	"hobodraft/internal/storage"
)

func TestRunWriteBuildsScreenplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.hobo")
	h, err := storage.NewFile(path, "Lab", "screenplay")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	in := strings.Join([]string{
		"INT. LAB - NIGHT",
		"Sparks fly.",
		"",
		"/tab",
		"REYES",
		"Cut the power.",
		"/show",
		"/quit",
	}, "\n")
	var out bytes.Buffer
	clock := autosave.NewFakeClock(time.Unix(0, 0))
	err = runWrite(context.Background(), strings.NewReader(in), &out, h, writeOptions{env: editor.Fixed(false), clock: clock})
	if err != nil {
		t.Fatalf("runWrite: %v", err)
	}
	if !strings.HasSuffix(out.String(), "saved\n") {
		t.Fatalf("expected final save, got:\n%s", out.String())
	}

	got, err := storage.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	want := []struct {
		typ     grammar.ElementType
		content string
	}{
		{grammar.SceneHeading, "INT. LAB - NIGHT"},
		{grammar.Action, "Sparks fly."},
		{grammar.Character, "REYES"},
		{grammar.Dialogue, "Cut the power."},
	}
	if len(got.Doc.Elements) != len(want) {
		t.Fatalf("elements: got %+v", got.Doc.Elements)
	}
	for i, w := range want {
		e := got.Doc.Elements[i]
		if e.Type != w.typ || e.Content != w.content {
			t.Fatalf("element %d: got %s %q want %s %q", i, e.Type, e.Content, w.typ, w.content)
		}
	}
}

func TestRunWriteWithoutChangesSkipsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idle.hobo")
	h, err := storage.NewFile(path, "Idle", "poetry")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	var out bytes.Buffer
	clock := autosave.NewFakeClock(time.Unix(0, 0))
	if err := runWrite(context.Background(), strings.NewReader("/undo\n"), &out, h, writeOptions{clock: clock}); err != nil {
		t.Fatalf("runWrite: %v", err)
	}
	if !strings.Contains(out.String(), "nothing to undo") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), storage.BackupsDirName)); !os.IsNotExist(err) {
		t.Fatalf("file was rewritten without changes: %v", err)
	}
}

// stdinThatDies returns data on the first read and panics on the next.
type stdinThatDies struct {
	data string
	read bool
}

func (r *stdinThatDies) Read(p []byte) (int, error) {
	if r.read {
		panic("stdin gone")
	}
	r.read = true
	return copy(p, r.data), nil
}

func TestCrashDuringWriteSnapshotsUnsavedEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.hobo")
	h, err := storage.NewFile(path, "Lab", "screenplay")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	clock := autosave.NewFakeClock(time.Unix(0, 0))
	in := &stdinThatDies{data: "INT. LAB - NIGHT\nSparks fly.\n"}
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("expected a panic")
			}
		}()
		_ = runWrite(context.Background(), in, io.Discard, h, writeOptions{env: editor.Fixed(false), clock: clock})
	}()
	if clock.Pending() != 1 {
		t.Fatalf("expected a pending autosave, got %d", clock.Pending())
	}
	disk, _ := os.ReadFile(path)
	if strings.Contains(string(disk), "Sparks fly.") {
		t.Fatalf("edits were saved before the crash")
	}
	snap, err := storage.AutosaveCrashSnapshot(h)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot: %v", err)
	}
	b, err := os.ReadFile(snap)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.Contains(string(b), "Sparks fly.") {
		t.Fatalf("snapshot misses unsaved edits:\n%s", b)
	}
}
