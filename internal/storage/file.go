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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
	applog "hobodraft/internal/log"
)

const (
	FileFormat     = "hobodraft"
	FileVersion    = 1
	FileExt        = ".hobo"
	BackupsDirName = "backups"
	backupStamp    = "20060102-150405"
)

//go:embed script.schema.json
var fileSchema []byte

var fileSchemaLoader = gojsonschema.NewBytesLoader(fileSchema)

// FileDocument is the on-disk shape of a script file.
type FileDocument struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	Kind    string    `json:"kind"`
	SavedAt time.Time `json:"savedAt,omitempty"`
	domain.Content
	Comments []domain.Comment `json:"comments,omitempty"`
}

// Genre classifies the document type tag of the file.
func (d FileDocument) Genre() grammar.Genre { return grammar.Classify(d.Kind) }

// FileHandle tracks a script file loaded from or saved to disk.
// Recovered is set when the file itself was unreadable and a backup was used.
type FileHandle struct {
	Path      string
	Doc       FileDocument
	Recovered bool
	// Live returns the content of an editing session open on the file. It
	// is ahead of Doc until the session's next save completes.
	Live func() domain.Content
}

// Current is Doc with the live session content, if any, in place of the
// last loaded or saved content.
func (h *FileHandle) Current() FileDocument {
	doc := h.Doc
	if h.Live != nil {
		doc.Content = h.Live()
	}
	return doc
}

// Document returns the editable model of the file content.
func (h *FileHandle) Document() *domain.Document {
	return domain.NewDocument(h.Doc.Genre(), h.Doc.Content)
}

// NewFile writes a fresh script to path. kind is the document type tag, kept
// as given; its genre comes from grammar.Classify.
func NewFile(path, title, kind string) (*FileHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file path is required")
	}
	kind = kindTag(kind)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists", path)
	}
	doc := domain.NewDocument(grammar.Classify(kind), domain.Content{TitlePage: domain.TitlePage{Title: strings.TrimSpace(title)}})
	h := &FileHandle{Path: path, Doc: FileDocument{Kind: kind, Content: doc.Content()}}
	if err := SaveFile(h); err != nil {
		return nil, err
	}
	return h, nil
}

// OpenFile loads a script file. If it cannot be read, parsed or validated the
// latest backup is used instead.
func OpenFile(path string) (*FileHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open_file").With(slog.String("path", path))
	b, err := os.ReadFile(path)
	if err == nil {
		var doc FileDocument
		if doc, err = decodeFile(b); err == nil {
			return &FileHandle{Path: path, Doc: doc}, nil
		}
	}
	doc, berr := openFromLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open script file: %w; backup attempt: %v", err, berr)
	}
	l.Warn("script file unreadable, recovered from backup", slog.Any("err", err))
	return &FileHandle{Path: path, Doc: doc, Recovered: true}, nil
}

// ValidateFile checks raw file bytes against the embedded schema.
func ValidateFile(data []byte) error {
	res, err := gojsonschema.Validate(fileSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func decodeFile(b []byte) (FileDocument, error) {
	if err := ValidateFile(b); err != nil {
		return FileDocument{}, err
	}
	var doc FileDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return FileDocument{}, fmt.Errorf("parse script file: %w", err)
	}
	return doc, nil
}

func encodeFile(doc FileDocument) ([]byte, error) {
	doc.Format, doc.Version, doc.Kind = FileFormat, FileVersion, kindTag(doc.Kind)
	if doc.Elements == nil {
		doc.Elements = []domain.Element{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal script file: %w", err)
	}
	return append(data, '\n'), nil
}

// SaveFile writes the handle to disk with transactional semantics and a
// timestamped backup of the previous file (if present).
func SaveFile(h *FileHandle) error {
	if h == nil {
		return errors.New("nil FileHandle")
	}
	if h.Path == "" {
		return errors.New("invalid FileHandle: missing path")
	}
	h.Doc.SavedAt = time.Now().UTC()
	data, err := encodeFile(h.Doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(h.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure script dir: %w", err)
	}

	if _, statErr := os.Stat(h.Path); statErr == nil {
		bdir := filepath.Join(dir, BackupsDirName)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), time.Now().Format(backupStamp))
		if cerr := copyFile(h.Path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current file: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp file: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace script file: %w", rerr)
	}
	h.Recovered = false
	return nil
}

// AutosaveCrashSnapshot writes the in-memory document (live session content
// when set) next to the file's
// backups without touching the file itself and returns the snapshot path.
func AutosaveCrashSnapshot(h *FileHandle) (string, error) {
	if h == nil || h.Path == "" {
		return "", errors.New("invalid FileHandle")
	}
	data, err := encodeFile(h.Current())
	if err != nil {
		return "", err
	}
	bdir := filepath.Join(filepath.Dir(h.Path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.Path), time.Now().Format(backupStamp)))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries the newest timestamped backup of path.
func openFromLatestBackup(path string) (FileDocument, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return FileDocument{}, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return FileDocument{}, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return FileDocument{}, fmt.Errorf("read latest backup: %w", err)
	}
	return decodeFile(b)
}
