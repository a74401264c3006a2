/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package fountain

import (
	"bufio"
	"regexp"
	"strings"
	"unicode"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

var (
	reTitleKey   = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*):\s*(.*)$`)
	reScene      = regexp.MustCompile(`(?i)^(?:INT\./EXT|INT/EXT|INT|EXT|EST|I/E)[. ]`)
	reTransition = regexp.MustCompile(`^[^a-z]*TO:$`)
)

// Parse converts fountain text into elements and a title page.
// Supported syntax:
//   - Title page: "Key: value" lines at the top, indented lines continue a value.
//   - Scene headings: INT./EXT./INT./EXT./I/E/EST lines, or forced with a leading ".".
//   - Transitions: upper-case lines ending in "TO:", or forced with ">".
//   - Character cues: upper-case line directly followed by text, or forced with "@".
//     Lines in "(...)" under a cue are parentheticals, the rest is dialogue.
//   - Shots: a lone upper-case line.
//   - Action: everything else; "!" forces action.
//
// Notes [[...]] and boneyard /* ... */ are dropped; sections (#) and synopses (=)
// are outline-only and skipped. Problems are reported, never fatal.
func Parse(input string) (domain.Content, []Error) {
	var errs []Error
	text := strings.ReplaceAll(input, "\r\n", "\n")
	text, errs = strip(text, "/*", "*/", "unterminated boneyard", errs)
	text, errs = strip(text, "[[", "]]", "unterminated note", errs)

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t"))
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: len(lines) + 1, Column: 1, Message: err.Error()})
	}

	c := domain.Content{}
	start := parseTitlePage(lines, &c.TitlePage)

	for _, p := range paragraphs(lines, start) {
		c.Elements = append(c.Elements, classify(p)...)
	}
	return c, errs
}

type paragraph struct {
	lineNo int // 1-based line of the first entry
	lines  []string
}

func paragraphs(lines []string, from int) []paragraph {
	var out []paragraph
	var cur *paragraph
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			cur = nil
			continue
		}
		if cur == nil {
			out = append(out, paragraph{lineNo: i + 1})
			cur = &out[len(out)-1]
		}
		cur.lines = append(cur.lines, lines[i])
	}
	return out
}

// parseTitlePage fills tp from the leading key/value block and returns the
// index of the first body line.
func parseTitlePage(lines []string, tp *domain.TitlePage) int {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return i
	}
	m := reTitleKey.FindStringSubmatch(strings.TrimSpace(lines[i]))
	if m == nil || !knownKeys[strings.ToLower(strings.TrimSpace(m[1]))] {
		return 0
	}
	values := map[string][]string{}
	var order []string
	key := ""
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			break
		}
		if (strings.HasPrefix(line, "   ") || strings.HasPrefix(line, "\t")) && key != "" {
			values[key] = append(values[key], strings.TrimSpace(line))
			continue
		}
		m := reTitleKey.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			break
		}
		key = strings.TrimSpace(m[1])
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		if v := strings.TrimSpace(m[2]); v != "" {
			values[key] = append(values[key], v)
		} else if values[key] == nil {
			values[key] = []string{}
		}
	}
	for _, k := range order {
		v := strings.Join(values[k], "\n")
		switch titleKeys[strings.ToLower(k)] {
		case "title":
			tp.Title = v
		case "author":
			tp.Author = v
		case "contact":
			tp.Contact = v
		case "draft":
			tp.Draft = v
		case "date":
			tp.Date = v
		default:
			if tp.Extra == nil {
				tp.Extra = map[string]string{}
			}
			tp.Extra[k] = v
		}
	}
	return i
}

func classify(p paragraph) []domain.Element {
	first := strings.TrimSpace(p.lines[0])
	rest := p.lines[1:]
	switch {
	case strings.HasPrefix(first, "#") || (strings.HasPrefix(first, "=") && !isPageBreak(first)):
		return nil
	case isPageBreak(first):
		return action(rest)
	case strings.HasPrefix(first, "!"):
		return action(append([]string{strings.TrimPrefix(first, "!")}, rest...))
	case strings.HasPrefix(first, ".") && !strings.HasPrefix(first, ".."):
		return withAction(el(grammar.SceneHeading, strings.TrimSpace(first[1:])), rest)
	case reScene.MatchString(first):
		return withAction(el(grammar.SceneHeading, first), rest)
	case strings.HasPrefix(first, ">") && !strings.HasSuffix(first, "<"):
		return withAction(el(grammar.Transition, strings.TrimSpace(first[1:])), rest)
	case strings.HasPrefix(first, ">") && strings.HasSuffix(first, "<"):
		centered := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(first, ">"), "<"))
		return action(append([]string{centered}, rest...))
	case isUpper(first) && reTransition.MatchString(first) && len(rest) == 0:
		return []domain.Element{el(grammar.Transition, first)}
	case strings.HasPrefix(first, "@") && len(rest) > 0:
		return speech(strings.TrimSpace(first[1:]), rest)
	case isUpper(first) && len(rest) > 0:
		return speech(first, rest)
	case isUpper(first):
		return []domain.Element{el(grammar.Shot, first)}
	default:
		return action(p.lines)
	}
}

func isPageBreak(s string) bool {
	return len(s) >= 3 && strings.Trim(s, "=") == ""
}

func el(t grammar.ElementType, content string) domain.Element {
	return domain.Element{ID: domain.NewID(), Type: t, Content: content}
}

func action(lines []string) []domain.Element {
	var kept []string
	for _, l := range lines {
		kept = append(kept, strings.TrimRight(l, " \t"))
	}
	text := strings.TrimSpace(strings.Join(kept, "\n"))
	if text == "" {
		return nil
	}
	return []domain.Element{el(grammar.Action, text)}
}

func withAction(head domain.Element, rest []string) []domain.Element {
	return append([]domain.Element{head}, action(rest)...)
}

// speech splits a dialogue block into cue, parentheticals and dialogue runs.
func speech(cue string, lines []string) []domain.Element {
	out := []domain.Element{el(grammar.Character, cue)}
	var run []string
	flush := func() {
		if len(run) > 0 {
			out = append(out, el(grammar.Dialogue, strings.Join(run, "\n")))
			run = nil
		}
	}
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
			flush()
			out = append(out, el(grammar.Parenthetical, strings.TrimSpace(t[1:len(t)-1])))
			continue
		}
		run = append(run, t)
	}
	flush()
	return out
}

// isUpper reports whether s has letters and none of them is lower-case.
func isUpper(s string) bool {
	letters := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return letters
}

// strip removes every begin...end span, keeping its line breaks so reported
// line numbers stay true to the input.
func strip(s, begin, end, msg string, errs []Error) (string, []Error) {
	var b strings.Builder
	for {
		i := strings.Index(s, begin)
		if i < 0 {
			b.WriteString(s)
			return b.String(), errs
		}
		b.WriteString(s[:i])
		j := strings.Index(s[i+len(begin):], end)
		if j < 0 {
			line := strings.Count(b.String(), "\n") + 1
			col := i - strings.LastIndex(s[:i], "\n")
			errs = append(errs, Error{Line: line, Column: col, Message: msg})
			b.WriteString(s[i:])
			return b.String(), errs
		}
		span := s[i : i+len(begin)+j+len(end)]
		b.WriteString(strings.Repeat("\n", strings.Count(span, "\n")))
		s = s[i+len(span):]
	}
}
