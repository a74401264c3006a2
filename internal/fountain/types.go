/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package fountain imports fountain-style plain-text screenplays into
// document elements.
package fountain

import "fmt"

// Error represents a parse problem with position context.
type Error struct {
	Line    int // 1-based
	Column  int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// titleKeys maps lower-cased title page keys to domain fields.
// Keys outside this set go to TitlePage.Extra.
var titleKeys = map[string]string{
	"title":      "title",
	"author":     "author",
	"authors":    "author",
	"contact":    "contact",
	"draft date": "draft",
	"draft":      "draft",
	"date":       "date",
}

// knownKeys may open a title page. Any key is accepted once the page has started.
var knownKeys = map[string]bool{
	"title": true, "credit": true, "author": true, "authors": true, "source": true,
	"draft date": true, "draft": true, "date": true, "contact": true, "notes": true, "copyright": true,
}
