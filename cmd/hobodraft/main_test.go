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
	"context"
	"path/filepath"
	"testing"

	"hobodraft/internal/grammar"
	applog "hobodraft/internal/log"
	"hobodraft/internal/storage"
)

func TestNewFileClassifiesTypeTag(t *testing.T) {
	c := &cli{ctx: context.Background(), log: applog.WithComponent("cli")}
	dir := t.TempDir()
	cases := []struct {
		tag   string
		genre grammar.Genre
		first grammar.ElementType
	}{
		{"novel", grammar.Fiction, grammar.ChapterHeading},
		{"poem", grammar.Poetry, grammar.PoemTitle},
		{"feature", grammar.Screenplay, grammar.SceneHeading},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.tag+storage.FileExt)
		if err := c.newFile(path, "T", tc.tag); err != nil {
			t.Fatalf("new %s: %v", tc.tag, err)
		}
		h, err := storage.OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		if h.Doc.Kind != tc.tag || h.Doc.Genre() != tc.genre {
			t.Fatalf("%s: kind %q genre %s", tc.tag, h.Doc.Kind, h.Doc.Genre())
		}
		if got := h.Doc.Elements[0].Type; got != tc.first {
			t.Fatalf("%s: first element %s, want %s", tc.tag, got, tc.first)
		}
	}
}
