/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package analysis

import (
	"sort"
	"strings"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// DistributionLimit is how many speakers the dialogue distribution reports.
const DistributionLimit = 10

// CharacterShare is one speaker's slice of the dialogue.
type CharacterShare struct {
	Name    string  `json:"name"`
	Words   int     `json:"words"`
	Percent float64 `json:"percent"`
}

// ScreenplayStats summarizes dialogue and action balance.
type ScreenplayStats struct {
	DialogueWords int              `json:"dialogueWords"`
	ActionWords   int              `json:"actionWords"`
	SceneCount    int              `json:"sceneCount"`
	ByCharacter   map[string]int   `json:"byCharacter"`
	Distribution  []CharacterShare `json:"distribution"`
}

// Screenplay attributes each dialogue element to the most recent character cue.
// Dialogue before the first cue counts toward DialogueWords only.
func Screenplay(els []domain.Element) ScreenplayStats {
	st := ScreenplayStats{ByCharacter: map[string]int{}}
	speaker := ""
	for _, e := range els {
		switch e.Type {
		case grammar.SceneHeading:
			st.SceneCount++
		case grammar.Action:
			st.ActionWords += Words(e.Content)
		case grammar.Character:
			speaker = strings.ToUpper(strings.TrimSpace(e.Content))
		case grammar.Dialogue:
			w := Words(e.Content)
			st.DialogueWords += w
			if speaker != "" {
				st.ByCharacter[speaker] += w
			}
		}
	}
	st.Distribution = distribution(st.ByCharacter, st.DialogueWords)
	return st
}

func distribution(by map[string]int, total int) []CharacterShare {
	out := make([]CharacterShare, 0, len(by))
	for name, w := range by {
		out = append(out, CharacterShare{Name: name, Words: w, Percent: percent(w, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Words != out[j].Words {
			return out[i].Words > out[j].Words
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > DistributionLimit {
		out = out[:DistributionLimit]
	}
	return out
}
