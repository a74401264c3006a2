/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hobodraft/internal/domain"
	applog "hobodraft/internal/log"
)

// DefaultDelay is the quiet period after the last mutation before a save.
const DefaultDelay = 2000 * time.Millisecond

// Status is the save state shown to the writer.
type Status int

const (
	Clean Status = iota
	Dirty
	Saving
)

func (s Status) String() string {
	switch s {
	case Dirty:
		return "unsaved"
	case Saving:
		return "saving"
	default:
		return "saved"
	}
}

// Derived is what the store re-derives from saved content.
type Derived struct {
	Characters []string `json:"characters"`
	Locations  []string `json:"locations"`
}

// SaveFunc persists a full content snapshot.
type SaveFunc func(ctx context.Context, c domain.Content) (Derived, error)

// ErrClosed is returned by SaveNow after Close.
var ErrClosed = errors.New("autosave: saver closed")

// Options configures a Saver.
type Options struct {
	Delay  time.Duration
	Clock  Clock
	Logger *slog.Logger
	// OnSaved receives the derived lists of every successful save, in completion order.
	OnSaved func(Derived)
	// OnPanic receives a panic raised by a debounced save on the timer goroutine.
	OnPanic func(any)
}

// Saver debounces saves of a document. Snapshot and save are called without
// the saver lock held.
type Saver struct {
	mu       sync.Mutex
	snapshot func() domain.Content
	save     SaveFunc
	delay    time.Duration
	task     *Task
	log      *slog.Logger
	onSaved  func(Derived)
	gen      uint64 // bumped by MarkDirty
	saved    uint64 // highest gen covered by a successful save
	inflight int
	err      error
	closed   bool
}

func NewSaver(snapshot func() domain.Content, save SaveFunc, opts Options) *Saver {
	s := &Saver{
		snapshot: snapshot,
		save:     save,
		delay:    opts.Delay,
		log:      opts.Logger,
		onSaved:  opts.OnSaved,
	}
	if s.delay <= 0 {
		s.delay = DefaultDelay
	}
	if s.log == nil {
		s.log = applog.WithComponent("autosave")
	}
	s.task = NewTask(opts.Clock, func() { _ = s.run(context.Background(), "debounce") })
	s.task.SetPanicHandler(opts.OnPanic)
	return s
}

// MarkDirty records a mutation and restarts the debounce delay.
func (s *Saver) MarkDirty() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.mu.Unlock()
	s.task.Schedule(s.delay)
}

// SaveNow cancels the pending debounce and saves immediately.
func (s *Saver) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	s.task.Cancel()
	return s.run(ctx, "explicit")
}

// Close performs a final save when there are unsaved changes. Later
// mutations are ignored.
func (s *Saver) Close(ctx context.Context) error {
	s.task.Cancel()
	s.mu.Lock()
	s.closed = true
	dirty := s.statusLocked() != Clean
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.run(ctx, "close")
}

// Status returns the current save state.
func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Err returns the error of the last failed save, nil after a success.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Pending reports whether a debounced save is scheduled.
func (s *Saver) Pending() bool { return s.task.Pending() }

func (s *Saver) statusLocked() Status {
	switch {
	case s.inflight > 0:
		return Saving
	case s.gen > s.saved || s.err != nil:
		return Dirty
	default:
		return Clean
	}
}

func (s *Saver) run(ctx context.Context, reason string) error {
	s.mu.Lock()
	gen := s.gen
	s.inflight++
	s.mu.Unlock()

	content := s.snapshot()
	start := time.Now()
	d, err := s.save(ctx, content)

	s.mu.Lock()
	s.inflight--
	if err != nil {
		s.err = err
	} else {
		s.err = nil
		if gen > s.saved {
			s.saved = gen
		}
	}
	onSaved := s.onSaved
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("save failed", "reason", reason, "err", err)
		return err
	}
	s.log.Debug("saved", "reason", reason, "elements", len(content.Elements), "dur", time.Since(start))
	if onSaved != nil {
		onSaved(d)
	}
	return nil
}
