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

import "hobodraft/internal/autocomplete"

// Key names the keys the editor reacts to. Any other key is passed through.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyTab       Key = "Tab"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
	KeyUp        Key = "ArrowUp"
	KeyDown      Key = "ArrowDown"
)

// KeyEvent is one key press with its modifier state.
type KeyEvent struct {
	Key   Key
	Shift bool
}

// Action tells the caller what an intercepted key did.
type Action string

const (
	ActionNone      Action = ""
	ActionHighlight Action = "highlight"
	ActionAccept    Action = "accept"
	ActionDismiss   Action = "dismiss"
	ActionInsert    Action = "insert"
	ActionCycle     Action = "cycle"
	ActionMerge     Action = "merge"
)

// Outcome is the result of HandleKey. When Intercepted is false the caller
// lets native text editing handle the key.
type Outcome struct {
	Intercepted bool
	Action      Action
	Focus       string // active element after the event
}

// Suggestions is the autocomplete sub-state.
type Suggestions struct {
	Open      bool
	Items     []string
	Highlight int
}

// Visible returns the suggestions to display.
func (s Suggestions) Visible() []string {
	return autocomplete.Visible(s.Items)
}

// State is the editor state swapped in whole on every transition.
type State struct {
	Active       string
	Autocomplete Suggestions
}

func (s State) clone() State {
	s.Autocomplete.Items = append([]string(nil), s.Autocomplete.Items...)
	return s
}
