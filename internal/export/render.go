/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"strings"
	"unicode"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

// rule renders one element's content to a block, without trailing blank line.
type rule func(content string) string

// ruleSet is the per-format rendering table.
type ruleSet struct {
	title func(domain.TitlePage) string
	rules map[grammar.ElementType]rule
	// attached types follow a speaker cue directly, without a blank line.
	attached map[grammar.ElementType]bool
}

var tables = map[Format]ruleSet{
	Fountain: {
		title: fountainTitle,
		rules: map[grammar.ElementType]rule{
			grammar.SceneHeading:  fountainScene,
			grammar.Action:        fountainAction,
			grammar.Character:     upper,
			grammar.Parenthetical: parens,
			grammar.Dialogue:      strings.TrimSpace,
			grammar.Transition:    func(s string) string { return "> " + upper(s) },
			grammar.Shot:          upper,
		},
		attached: map[grammar.ElementType]bool{grammar.Parenthetical: true, grammar.Dialogue: true},
	},
	Markdown: {
		title: markdownTitle,
		rules: map[grammar.ElementType]rule{
			grammar.SceneHeading:   func(s string) string { return "## " + upper(s) },
			grammar.Shot:           func(s string) string { return "### " + upper(s) },
			grammar.Character:      func(s string) string { return "**" + upper(s) + "**" },
			grammar.Parenthetical:  func(s string) string { return "*" + parens(s) + "*" },
			grammar.Dialogue:       func(s string) string { return prefixLines(s, "> ") },
			grammar.Transition:     func(s string) string { return "*" + upper(s) + "*" },
			grammar.PoemTitle:      func(s string) string { return "## " + strings.TrimSpace(s) },
			grammar.Epigraph:       func(s string) string { return prefixLines("*"+strings.TrimSpace(s)+"*", "> ") },
			grammar.Line:           hardBreaks,
			grammar.Couplet:        hardBreaks,
			grammar.Stanza:         hardBreaks,
			grammar.SectionBreak:   func(string) string { return "* * *" },
			grammar.ChapterHeading: func(s string) string { return "## " + strings.TrimSpace(s) },
			grammar.SceneBreak:     func(string) string { return "* * *" },
		},
	},
	Text: {
		title: textTitle,
		rules: map[grammar.ElementType]rule{
			grammar.SceneHeading:   boxed,
			grammar.Action:         strings.TrimSpace,
			grammar.Character:      func(s string) string { return indent(upper(s), 20) },
			grammar.Parenthetical:  func(s string) string { return indent(parens(s), 15) },
			grammar.Dialogue:       func(s string) string { return indent(strings.TrimSpace(s), 10) },
			grammar.Transition:     func(s string) string { return indent(upper(s), 40) },
			grammar.Shot:           upper,
			grammar.PoemTitle:      underlined,
			grammar.Epigraph:       func(s string) string { return indent(strings.TrimSpace(s), 4) },
			grammar.SectionBreak:   func(string) string { return indent("* * *", 10) },
			grammar.ChapterHeading: underlined,
			grammar.Paragraph:      func(s string) string { return "    " + strings.TrimSpace(s) },
			grammar.SceneBreak:     func(string) string { return indent("* * *", 10) },
		},
		attached: map[grammar.ElementType]bool{grammar.Parenthetical: true, grammar.Dialogue: true},
	},
}

// Render serializes doc to one of the text formats. Types without a rule
// fall back to their raw content so nothing is dropped.
func Render(doc *domain.Document, f Format) (string, error) {
	rs, ok := tables[f]
	if !ok {
		return "", fmt.Errorf("render: %q is not a text format", f)
	}
	var b strings.Builder
	if tp := doc.TitlePage(); !tp.Empty() && rs.title != nil {
		b.WriteString(rs.title(tp))
		b.WriteString("\n\n")
	}
	var prev grammar.ElementType
	wrote := false
	for _, el := range doc.Elements() {
		r, ok := rs.rules[el.Type]
		if !ok {
			r = raw
		}
		block := r(el.Content)
		if strings.TrimSpace(block) == "" {
			continue
		}
		if wrote {
			if rs.attached[el.Type] && isSpeech(prev) {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(block)
		prev = el.Type
		wrote = true
	}
	if wrote {
		b.WriteString("\n")
	}
	return b.String(), nil
}

func isSpeech(t grammar.ElementType) bool {
	return t == grammar.Character || t == grammar.Parenthetical || t == grammar.Dialogue
}

func raw(s string) string { return strings.TrimRight(s, " \t\r\n") }

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func parens(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	return "(" + strings.TrimSpace(s) + ")"
}

func indent(s string, n int) string { return prefixLines(s, strings.Repeat(" ", n)) }

func prefixLines(s, p string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = p + l
	}
	return strings.Join(lines, "\n")
}

// hardBreaks keeps verse line breaks in markdown.
func hardBreaks(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "  \n")
}

func boxed(s string) string {
	h := upper(s)
	rule := strings.Repeat("=", max(runeLen(h), 20))
	return rule + "\n" + h + "\n" + rule
}

func underlined(s string) string {
	h := upper(s)
	return h + "\n" + strings.Repeat("-", runeLen(h))
}

func runeLen(s string) int { return len([]rune(s)) }

var scenePrefixes = []string{"INT./EXT.", "INT/EXT", "I/E", "INT.", "EXT.", "EST."}

func fountainScene(s string) string {
	h := upper(s)
	for _, p := range scenePrefixes {
		if strings.HasPrefix(h, p) {
			return h
		}
	}
	return "." + h
}

// fountainAction forces action that would otherwise read as a cue or shot.
func fountainAction(s string) string {
	s = strings.TrimSpace(s)
	if isUpperLine(s) {
		return "!" + s
	}
	return s
}

func isUpperLine(s string) bool {
	letters := false
	for _, r := range s {
		if r == '\n' {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters
}

func fountainTitle(tp domain.TitlePage) string {
	var lines []string
	for _, f := range tp.Fields() {
		key := f.Key
		if key == "Draft" {
			key = "Draft date"
		}
		lines = append(lines, key+": "+oneLine(f.Value))
	}
	return strings.Join(lines, "\n")
}

func markdownTitle(tp domain.TitlePage) string {
	var parts []string
	if tp.Title != "" {
		parts = append(parts, "# "+tp.Title)
	}
	for _, f := range tp.Fields() {
		if f.Key == "Title" {
			continue
		}
		parts = append(parts, "**"+f.Key+":** "+oneLine(f.Value))
	}
	return strings.Join(parts, "\n\n") + "\n\n---"
}

func textTitle(tp domain.TitlePage) string {
	var lines []string
	width := 0
	for _, f := range tp.Fields() {
		l := f.Key + ": " + oneLine(f.Value)
		if f.Key == "Title" {
			l = strings.ToUpper(oneLine(f.Value))
		}
		width = max(width, runeLen(l))
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n") + "\n" + strings.Repeat("=", width)
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
