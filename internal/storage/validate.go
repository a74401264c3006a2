/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"hobodraft/internal/grammar"
)

const (
	MaxCommentLength = 2000
	MaxTitleLength   = 200
	MaxVersionName   = 120
	MaxKindLength    = 40
)

// Palette lists the named comment colors; any #rrggbb value is accepted as well.
var Palette = []string{"yellow", "green", "blue", "pink", "orange"}

// DefaultColor is used when a comment is created without a color.
const DefaultColor = "yellow"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validColor(value interface{}) error {
	s, _ := value.(string)
	if hexColor.MatchString(s) {
		return nil
	}
	for _, p := range Palette {
		if s == p {
			return nil
		}
	}
	return errors.New("must be a palette color or #rrggbb")
}

// kindTag normalizes a document type tag. Any tag is accepted; unknown ones
// classify as screenplays.
func kindTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return string(grammar.Screenplay)
	}
	return tag
}

type scriptInput struct {
	Title string
	Kind  string
}

func (in *scriptInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Length(0, MaxTitleLength)),
		validation.Field(&in.Kind, validation.Required, validation.RuneLength(1, MaxKindLength)),
	)
}

type commentInput struct {
	ScriptID  string
	ElementID string
	Text      string
	Color     string
}

func (in *commentInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.ScriptID, validation.Required),
		validation.Field(&in.ElementID, validation.Required),
		validation.Field(&in.Text, validation.Required, validation.RuneLength(1, MaxCommentLength)),
		validation.Field(&in.Color, validation.Required, validation.By(validColor)),
	)
}

type versionInput struct {
	ScriptID string
	Name     string
}

func (in *versionInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.ScriptID, validation.Required),
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, MaxVersionName)),
	)
}

// invalid wraps a validation failure so callers can match ErrInvalidInput and
// still reach the per-field ozzo errors.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func clean(s string) string { return strings.TrimSpace(s) }
