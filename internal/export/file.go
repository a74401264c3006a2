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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"hobodraft/internal/domain"
)

// DefaultName is the filename stem used when a script has no title.
const DefaultName = "script"

// Output is a rendered export ready for download.
type Output struct {
	Body     []byte
	Filename string
	MIMEType string
}

// File renders doc and names the result after its title.
func File(doc *domain.Document, f Format) (Output, error) {
	var body []byte
	if f == PDF {
		var buf bytes.Buffer
		if err := WritePDF(&buf, doc, PDFOptions{}); err != nil {
			return Output{}, err
		}
		body = buf.Bytes()
	} else {
		s, err := Render(doc, f)
		if err != nil {
			return Output{}, err
		}
		body = []byte(s)
	}
	return Output{Body: body, Filename: Filename(doc.TitlePage().Title, f), MIMEType: f.MIMEType()}, nil
}

// Filename derives "{title}.{ext}", replacing characters that are unsafe in paths.
func Filename(title string, f Format) string {
	stem := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	stem = strings.Trim(stem, ". ")
	if stem == "" {
		stem = DefaultName
	}
	return stem + "." + f.Ext()
}

// Downloader receives finished exports.
type Downloader interface {
	Download(body []byte, filename, mimeType string) error
}

// DirDownloader saves downloads into a directory, replacing existing files atomically.
type DirDownloader struct {
	Dir string
}

// Path is where filename would be written.
func (d DirDownloader) Path(filename string) string {
	return filepath.Join(d.Dir, filepath.Base(filename))
}

func (d DirDownloader) Download(body []byte, filename, _ string) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	target := d.Path(filename)
	tmp, err := os.CreateTemp(d.Dir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Deliver renders doc and hands it to dl.
func Deliver(dl Downloader, doc *domain.Document, f Format) (Output, error) {
	out, err := File(doc, f)
	if err != nil {
		return Output{}, err
	}
	if err := dl.Download(out.Body, out.Filename, out.MIMEType); err != nil {
		return Output{}, fmt.Errorf("download %s: %w", out.Filename, err)
	}
	return out, nil
}
