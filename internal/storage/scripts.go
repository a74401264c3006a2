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
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hobodraft/internal/analysis"
	"hobodraft/internal/autosave"
	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
	"hobodraft/internal/share"
)

// Script is the metadata row of a stored script.
type Script struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Kind      string     `json:"kind"`
	ShareMode share.Mode `json:"shareMode,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Genre classifies the stored document type tag.
func (sc Script) Genre() grammar.Genre { return grammar.Classify(sc.Kind) }

// Loaded is everything an editing session needs to open a script.
type Loaded struct {
	Script     Script                  `json:"script"`
	Content    domain.Content          `json:"content"`
	Characters []string                `json:"characters"`
	Locations  []string                `json:"locations"`
	Comments   []domain.Comment        `json:"comments"`
	Versions   []domain.VersionSummary `json:"versions"`
	Report     analysis.Report         `json:"report"`
}

// CreateScript stores a new script holding one default element. kind is the
// document type tag; its genre is resolved with grammar.Classify and an empty
// tag is stored as "screenplay".
func (s *Store) CreateScript(ctx context.Context, title, kind string) (Script, error) {
	in := scriptInput{Title: clean(title), Kind: kindTag(kind)}
	if err := in.Validate(); err != nil {
		return Script{}, invalid(err)
	}
	doc := domain.NewDocument(grammar.Classify(in.Kind), domain.Content{TitlePage: domain.TitlePage{Title: in.Title}})
	body, err := json.Marshal(doc.Content())
	if err != nil {
		return Script{}, fmt.Errorf("marshal content: %w", err)
	}
	now := s.now()
	sc := Script{ID: domain.NewID(), Title: in.Title, Kind: in.Kind, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO scripts (id, title, kind, content, characters, locations, created_at, updated_at)
		VALUES (?, ?, ?, ?, '[]', '[]', ?, ?)`),
		sc.ID, sc.Title, sc.Kind, string(body), formatTime(now), formatTime(now))
	if err != nil {
		return Script{}, fmt.Errorf("insert script: %w", err)
	}
	s.log.Info("script created", slog.String("script", sc.ID), slog.String("kind", sc.Kind), slog.String("genre", string(sc.Genre())))
	return sc, nil
}

// ListScripts returns all scripts, most recently updated first.
func (s *Store) ListScripts(ctx context.Context) ([]Script, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, title, kind, COALESCE(share_mode, ''), created_at, updated_at
		FROM scripts ORDER BY updated_at DESC, id`))
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Script
	for rows.Next() {
		var (
			sc               Script
			kind, mode       string
			created, updated string
		)
		if err := rows.Scan(&sc.ID, &sc.Title, &kind, &mode, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		sc.Kind, sc.ShareMode = kind, share.Mode(mode)
		sc.CreatedAt, sc.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, sc)
	}
	return out, rows.Err()
}

type scriptRow struct {
	Script
	content    domain.Content
	characters []string
	locations  []string
	shareToken string
}

func (s *Store) getScript(ctx context.Context, q querier, id string) (scriptRow, error) {
	var (
		r                scriptRow
		kind, mode       string
		body, chars, loc string
		created, updated string
	)
	err := q.QueryRowContext(ctx, s.q(`
		SELECT id, title, kind, content, characters, locations,
		       COALESCE(share_token, ''), COALESCE(share_mode, ''), created_at, updated_at
		FROM scripts WHERE id = ?`), id).
		Scan(&r.ID, &r.Title, &kind, &body, &chars, &loc, &r.shareToken, &mode, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return scriptRow{}, ErrNotFound
	}
	if err != nil {
		return scriptRow{}, fmt.Errorf("get script: %w", err)
	}
	r.Kind, r.ShareMode = kind, share.Mode(mode)
	r.CreatedAt, r.UpdatedAt = parseTime(created), parseTime(updated)
	if err := json.Unmarshal([]byte(body), &r.content); err != nil {
		return scriptRow{}, fmt.Errorf("decode content of %s: %w", id, err)
	}
	_ = json.Unmarshal([]byte(chars), &r.characters)
	_ = json.Unmarshal([]byte(loc), &r.locations)
	return r, nil
}

// Load returns a script with its content, known names, comments, version
// summaries and an analysis report of the stored content.
func (s *Store) Load(ctx context.Context, id string) (Loaded, error) {
	r, err := s.getScript(ctx, s.db, id)
	if err != nil {
		return Loaded{}, err
	}
	comments, err := s.ListComments(ctx, id)
	if err != nil {
		return Loaded{}, err
	}
	versions, err := s.ListVersions(ctx, id)
	if err != nil {
		return Loaded{}, err
	}
	doc := domain.NewDocument(r.Genre(), r.content)
	return Loaded{
		Script:     r.Script,
		Content:    doc.Content(),
		Characters: nonNil(r.characters),
		Locations:  nonNil(r.locations),
		Comments:   comments,
		Versions:   versions,
		Report:     analysis.Analyze(doc),
	}, nil
}

// SaveContent replaces the stored content and returns the re-derived
// character and location lists. Last write wins.
func (s *Store) SaveContent(ctx context.Context, id string, c domain.Content) (autosave.Derived, error) {
	var d autosave.Derived
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		d, err = s.saveContent(ctx, tx, id, c)
		return err
	})
	if err != nil {
		return autosave.Derived{}, err
	}
	return d, nil
}

func (s *Store) saveContent(ctx context.Context, q querier, id string, c domain.Content) (autosave.Derived, error) {
	d := autosave.Derived{
		Characters: nonNil(analysis.ExtractCharacters(c.Elements)),
		Locations:  nonNil(analysis.ExtractLocations(c.Elements)),
	}
	if c.Elements == nil {
		c.Elements = []domain.Element{}
	}
	body, err := json.Marshal(c)
	if err != nil {
		return d, fmt.Errorf("marshal content: %w", err)
	}
	chars, _ := json.Marshal(d.Characters)
	locs, _ := json.Marshal(d.Locations)
	res, err := q.ExecContext(ctx, s.q(`
		UPDATE scripts SET content = ?, characters = ?, locations = ?, title = COALESCE(NULLIF(?, ''), title), updated_at = ?
		WHERE id = ?`),
		string(body), string(chars), string(locs), c.TitlePage.Title, s.stamp(), id)
	if err != nil {
		return d, fmt.Errorf("update script: %w", err)
	}
	if err := affected(res); err != nil {
		return d, err
	}
	return d, nil
}

// Saver adapts SaveContent for one script to the autosave collaborator.
func (s *Store) Saver(id string) autosave.SaveFunc {
	return func(ctx context.Context, c domain.Content) (autosave.Derived, error) {
		return s.SaveContent(ctx, id, c)
	}
}

// DeleteScript removes a script with its comments and versions.
func (s *Store) DeleteScript(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM comments WHERE script_id = ?`,
			`DELETE FROM versions WHERE script_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, s.q(stmt), id); err != nil {
				return fmt.Errorf("delete script children: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM scripts WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete script: %w", err)
		}
		return affected(res)
	})
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
