/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export serializes documents to external formats: a fountain-style
// screenplay markup, markdown, indented plain text and PDF.
package export

import (
	"fmt"
	"strings"
)

// Format is an export target.
type Format string

const (
	Fountain Format = "fountain"
	Markdown Format = "markdown"
	Text     Format = "text"
	PDF      Format = "pdf"
)

// ParseFormat accepts format names and common extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "fountain":
		return Fountain, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "plain":
		return Text, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case Fountain:
		return "fountain"
	case Markdown:
		return "md"
	case PDF:
		return "pdf"
	default:
		return "txt"
	}
}

// MIMEType is the content type handed to the download collaborator.
func (f Format) MIMEType() string {
	switch f {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case PDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}
