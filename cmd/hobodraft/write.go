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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"hobodraft/internal/analysis"
	"hobodraft/internal/autocomplete"
	"hobodraft/internal/autosave"
	"hobodraft/internal/crash"
	"hobodraft/internal/domain"
	"hobodraft/internal/editor"
	applog "hobodraft/internal/log"
	"hobodraft/internal/storage"
	"hobodraft/internal/undo"
)

const writeHelp = `Each line of text goes into the active element; a non-empty element is
followed by a new one of the natural next type. Commands:
  /tab /untab     cycle the active element type
  /accept         take the highlighted suggestion
  /next /prev     move the suggestion highlight
  /back           delete the empty active element
  /undo /redo     step through history
  /show           print the script
  /save           save now
  /quit           save and leave`

func (c *cli) write(path string) error {
	h, err := c.open(path)
	if err != nil {
		return err
	}
	opts := writeOptions{
		env:   editor.FromSetting(c.cfg.General.Device, nil),
		delay: c.cfg.Editor.AutosaveDelay(),
		clock: autosave.SystemClock{},
		onPanic: func(r any) {
			crash.Handle(r, func() *storage.FileHandle { return h })
		},
	}
	fmt.Println(writeHelp)
	return runWrite(c.ctx, os.Stdin, os.Stdout, h, opts)
}

type writeOptions struct {
	env   editor.Environment
	delay time.Duration // zero uses the autosave default
	clock autosave.Clock
	// onPanic handles a panic on the autosave timer goroutine.
	onPanic func(any)
}

// runWrite drives an editor session from line input, autosaving to h.
func runWrite(ctx context.Context, in io.Reader, out io.Writer, h *storage.FileHandle, opt writeOptions) error {
	doc := h.Document()
	els := doc.Elements()
	sess := editor.NewSession(doc, editor.Options{
		Env: opt.env,
		Index: autocomplete.Index{
			Characters: analysis.ExtractCharacters(els),
			Locations:  analysis.ExtractLocations(els),
		},
		History:    undo.NewManager(undo.Config{MaxDepth: 200}),
		HistoryKey: h.Path,
		Logger:     applog.WithComponent("editor"),
	})
	if n := len(els); n > 0 {
		sess.Focus(els[n-1].ID)
	}
	h.Live = sess.Snapshot

	save := func(_ context.Context, content domain.Content) (autosave.Derived, error) {
		h.Doc.Content = content
		if err := storage.SaveFile(h); err != nil {
			return autosave.Derived{}, err
		}
		return autosave.Derived{
			Characters: analysis.ExtractCharacters(content.Elements),
			Locations:  analysis.ExtractLocations(content.Elements),
		}, nil
	}
	saver := autosave.NewSaver(sess.Snapshot, save, autosave.Options{
		Delay:  opt.delay,
		Clock:  opt.clock,
		Logger: applog.WithComponent("autosave"),
		OnSaved: func(d autosave.Derived) {
			sess.SetIndex(autocomplete.Index{Characters: d.Characters, Locations: d.Locations})
		},
		OnPanic: opt.onPanic,
	})
	doc.OnChange(saver.MarkDirty)

	touch := opt.env != nil && opt.env.IsTouch()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch strings.TrimSpace(line) {
		case "/quit":
			return finish(ctx, out, saver)
		case "/tab":
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyTab})
		case "/untab":
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyTab, Shift: true})
		case "/accept":
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyEnter})
		case "/next":
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyDown})
		case "/prev":
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyUp})
		case "/back":
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyBackspace})
		case "/undo":
			if !sess.Undo() {
				_, _ = fmt.Fprintln(out, "nothing to undo")
			}
		case "/redo":
			if !sess.Redo() {
				_, _ = fmt.Fprintln(out, "nothing to redo")
			}
		case "/show":
			for _, e := range sess.Elements() {
				_, _ = fmt.Fprintf(out, "%-16s %s\n", e.Type, e.Content)
			}
			continue
		case "/save":
			if err := saver.SaveNow(ctx); err != nil {
				_, _ = fmt.Fprintln(out, "save failed:", err)
			}
		default:
			enterText(sess, line, touch)
		}
		printActive(out, sess, saver)
	}
	if err := sc.Err(); err != nil {
		_ = saver.Close(ctx)
		return err
	}
	return finish(ctx, out, saver)
}

// enterText places line into the active element, opening a new element first
// when the active one already has content. Touch sessions open elements with Shift+Enter.
func enterText(sess *editor.Session, line string, touch bool) {
	if cur, ok := sess.Active(); ok && cur.Content != "" {
		if sess.State().Autocomplete.Open {
			sess.HandleKey(editor.KeyEvent{Key: editor.KeyEscape})
		}
		sess.HandleKey(editor.KeyEvent{Key: editor.KeyEnter, Shift: touch})
	}
	sess.Input(line)
}

func printActive(out io.Writer, sess *editor.Session, saver *autosave.Saver) {
	cur, ok := sess.Active()
	if !ok {
		return
	}
	_, _ = fmt.Fprintf(out, "[%s] %s  (%s)\n", cur.Type, cur.Content, saver.Status())
	st := sess.State()
	if st.Autocomplete.Open {
		for i, s := range st.Autocomplete.Visible() {
			mark := " "
			if i == st.Autocomplete.Highlight {
				mark = ">"
			}
			_, _ = fmt.Fprintf(out, "  %s %s\n", mark, s)
		}
	}
}

func finish(ctx context.Context, out io.Writer, saver *autosave.Saver) error {
	if err := saver.Close(ctx); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	_, _ = fmt.Fprintln(out, "saved")
	return nil
}
