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

import "strings"

// TouchMaxWidth is the widest viewport still treated as a touch device.
const TouchMaxWidth = 768

// Environment reports the device class. It is consulted on every key event.
type Environment interface {
	IsTouch() bool
}

type fixed bool

func (f fixed) IsTouch() bool { return bool(f) }

// Fixed returns an environment that always reports the given device class.
func Fixed(touch bool) Environment { return fixed(touch) }

// Viewport derives the device class from live pointer and width probes.
// Nil probes are treated as a fine pointer and an unknown width.
type Viewport struct {
	CoarsePointer func() bool
	Width         func() int
}

func (v Viewport) IsTouch() bool {
	if v.CoarsePointer != nil && v.CoarsePointer() {
		return true
	}
	if v.Width != nil {
		if w := v.Width(); w > 0 && w <= TouchMaxWidth {
			return true
		}
	}
	return false
}

// FromSetting maps the configured device ("touch", "desktop", "auto") to an
// environment. auto defers to probe, desktop when probe is nil.
func FromSetting(device string, probe Environment) Environment {
	switch strings.ToLower(strings.TrimSpace(device)) {
	case "touch":
		return Fixed(true)
	case "desktop":
		return Fixed(false)
	}
	if probe == nil {
		return Fixed(false)
	}
	return probe
}
