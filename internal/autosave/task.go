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
	"sync"
	"time"
)

// Task is a single cancellable scheduled callback. Rescheduling replaces the
// pending run, which gives trailing-edge debounce semantics.
type Task struct {
	mu    sync.Mutex
	clock Clock
	fn    func()
	timer Timer
	gen   uint64
	// onPanic receives a panic from a timer run; nil lets it crash the process.
	onPanic func(any)
}

func NewTask(clock Clock, fn func()) *Task {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Task{clock: clock, fn: fn}
}

// SetPanicHandler routes panics of timer runs to fn. FireNow runs on the
// caller goroutine and is not covered.
func (t *Task) SetPanicHandler(fn func(any)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPanic = fn
}

// Schedule runs the callback after d, dropping any earlier pending run.
func (t *Task) Schedule(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() { t.fire(gen) })
}

// Cancel drops the pending run, if any.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// FireNow cancels the pending run and runs the callback on the caller goroutine.
func (t *Task) FireNow() {
	t.Cancel()
	t.fn()
}

// Pending reports whether a run is scheduled.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// fire ignores runs whose timer was stopped after it started firing.
func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.timer == nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	onPanic := t.onPanic
	t.mu.Unlock()
	if onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				onPanic(r)
			}
		}()
	}
	t.fn()
}
