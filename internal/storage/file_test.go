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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

func TestNewFileConformsToSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft"+FileExt)
	h, err := NewFile(path, "Odes", "poetry")
	require.NoError(t, err)
	require.Len(t, h.Doc.Elements, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, ValidateFile(data))

	_, err = NewFile(path, "again", "poetry")
	require.Error(t, err)
}

func TestNewFileClassifiesKindTag(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]grammar.Genre{
		"novel":   grammar.Fiction,
		"poem":    grammar.Poetry,
		"feature": grammar.Screenplay,
	}
	for tag, genre := range cases {
		path := filepath.Join(dir, tag+FileExt)
		h, err := NewFile(path, tag, tag)
		require.NoError(t, err, tag)
		require.Equal(t, tag, h.Doc.Kind)
		require.Equal(t, genre, h.Document().Genre())

		back, err := OpenFile(path)
		require.NoError(t, err)
		require.False(t, back.Recovered)
		require.Equal(t, tag, back.Doc.Kind)
		require.Equal(t, genre, back.Doc.Genre())
	}
}

func TestValidateFileRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"wrong format":  `{"format":"other","version":1,"kind":"poetry","elements":[]}`,
		"empty kind":    `{"format":"hobodraft","version":1,"kind":"","elements":[]}`,
		"element no id": `{"format":"hobodraft","version":1,"kind":"poetry","elements":[{"type":"line","content":""}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, ValidateFile([]byte(doc)))
		})
	}
}

func TestSaveFileWritesBackupAndReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "play"+FileExt)
	h, err := NewFile(path, "Play", "screenplay")
	require.NoError(t, err)

	h.Doc.Elements = append(h.Doc.Elements, domain.Element{ID: "x", Type: grammar.Action, Content: "Rain."})
	h.Doc.Comments = []domain.Comment{{ID: "c1", ElementID: "x", Text: "wetter", Color: "blue"}}
	require.NoError(t, SaveFile(h))

	ents, err := os.ReadDir(filepath.Join(dir, BackupsDirName))
	require.NoError(t, err)
	require.NotEmpty(t, ents)
	require.True(t, strings.HasSuffix(ents[0].Name(), ".bak"))

	got, err := OpenFile(path)
	require.NoError(t, err)
	require.False(t, got.Recovered)
	require.Len(t, got.Doc.Elements, 2)
	require.Equal(t, "Rain.", got.Doc.Elements[1].Content)
	require.Equal(t, "wetter", got.Doc.Comments[0].Text)
	require.Equal(t, "Play", got.Doc.TitlePage.Title)
	require.Equal(t, 2, got.Document().Len())

	// no stray temp files
	top, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range top {
		require.False(t, strings.Contains(e.Name(), ".tmp-"), e.Name())
	}
}

func TestOpenFileFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poem"+FileExt)
	h, err := NewFile(path, "Sonnet", "poetry")
	require.NoError(t, err)
	require.NoError(t, SaveFile(h))

	require.NoError(t, os.WriteFile(path, []byte("{garbage"), 0o644))
	got, err := OpenFile(path)
	require.NoError(t, err)
	require.True(t, got.Recovered)
	require.Equal(t, "Sonnet", got.Doc.TitlePage.Title)

	_, err = OpenFile(filepath.Join(dir, "missing"+FileExt))
	require.Error(t, err)
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crash"+FileExt)
	h, err := NewFile(path, "Crash Snapshot", "fiction")
	require.NoError(t, err)
	h.Doc.Elements[0].Content = "unsaved words"

	snap, err := AutosaveCrashSnapshot(h)
	require.NoError(t, err)
	b, err := os.ReadFile(snap)
	require.NoError(t, err)
	require.NoError(t, ValidateFile(b))
	var got FileDocument
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, "unsaved words", got.Elements[0].Content)

	// The file itself is untouched.
	disk, err := OpenFile(path)
	require.NoError(t, err)
	require.Equal(t, "", disk.Doc.Elements[0].Content)
}
