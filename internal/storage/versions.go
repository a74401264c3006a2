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

	"hobodraft/internal/analysis"
	"hobodraft/internal/domain"
)

// AutoRestoreName names the snapshot taken before a restore overwrites content.
const AutoRestoreName = "Auto-save before restore"

// CreateVersion snapshots the stored content of a script under name and
// evicts the oldest versions beyond domain.MaxVersions.
func (s *Store) CreateVersion(ctx context.Context, scriptID, name string) (domain.VersionSummary, error) {
	in := versionInput{ScriptID: scriptID, Name: clean(name)}
	if err := in.Validate(); err != nil {
		return domain.VersionSummary{}, invalid(err)
	}
	var v domain.Version
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := s.getScript(ctx, tx, scriptID)
		if err != nil {
			return err
		}
		v, err = s.insertVersion(ctx, tx, scriptID, in.Name, r.content)
		return err
	})
	if err != nil {
		return domain.VersionSummary{}, err
	}
	return v.Summary(), nil
}

func (s *Store) insertVersion(ctx context.Context, tx *sql.Tx, scriptID, name string, c domain.Content) (domain.Version, error) {
	v := domain.Version{
		ID:        domain.NewID(),
		Name:      name,
		CreatedAt: s.now().UTC(),
		WordCount: analysis.WordCount(c.Elements),
		Content:   c.Clone(),
	}
	body, err := json.Marshal(v.Content)
	if err != nil {
		return domain.Version{}, fmt.Errorf("marshal version: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO versions (id, script_id, name, word_count, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		v.ID, scriptID, v.Name, v.WordCount, string(body), formatTime(v.CreatedAt))
	if err != nil {
		return domain.Version{}, fmt.Errorf("insert version: %w", err)
	}
	if err := s.pruneVersions(ctx, tx, scriptID); err != nil {
		return domain.Version{}, err
	}
	return v, nil
}

func (s *Store) pruneVersions(ctx context.Context, tx *sql.Tx, scriptID string) error {
	rows, err := tx.QueryContext(ctx, s.q(`
		SELECT id FROM versions WHERE script_id = ? ORDER BY created_at DESC, id DESC`), scriptID)
	if err != nil {
		return fmt.Errorf("list versions for prune: %w", err)
	}
	var stale []string
	n := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan version id: %w", err)
		}
		n++
		if n > domain.MaxVersions {
			stale = append(stale, id)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM versions WHERE id = ?`), id); err != nil {
			return fmt.Errorf("prune version: %w", err)
		}
	}
	if len(stale) > 0 {
		s.log.Debug("versions pruned", slog.String("script", scriptID), slog.Int("count", len(stale)))
	}
	return nil
}

// ListVersions returns version summaries, newest first.
func (s *Store) ListVersions(ctx context.Context, scriptID string) ([]domain.VersionSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, name, word_count, created_at
		FROM versions WHERE script_id = ? ORDER BY created_at DESC, id DESC`), scriptID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []domain.VersionSummary{}
	for rows.Next() {
		var (
			v       domain.VersionSummary
			created string
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.WordCount, &created); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.CreatedAt = parseTime(created)
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVersion returns a full version including its content.
func (s *Store) GetVersion(ctx context.Context, scriptID, versionID string) (domain.Version, error) {
	return s.getVersion(ctx, s.db, scriptID, versionID)
}

func (s *Store) getVersion(ctx context.Context, q querier, scriptID, versionID string) (domain.Version, error) {
	var (
		v             domain.Version
		body, created string
	)
	err := q.QueryRowContext(ctx, s.q(`
		SELECT id, name, word_count, content, created_at
		FROM versions WHERE id = ? AND script_id = ?`), versionID, scriptID).
		Scan(&v.ID, &v.Name, &v.WordCount, &body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Version{}, ErrNotFound
	}
	if err != nil {
		return domain.Version{}, fmt.Errorf("get version: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &v.Content); err != nil {
		return domain.Version{}, fmt.Errorf("decode version %s: %w", versionID, err)
	}
	v.CreatedAt = parseTime(created)
	return v, nil
}

// RestoreVersion snapshots the current content as AutoRestoreName, then
// overwrites the script with the stored copy and returns it.
func (s *Store) RestoreVersion(ctx context.Context, scriptID, versionID string) (domain.Content, error) {
	var restored domain.Content
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		v, err := s.getVersion(ctx, tx, scriptID, versionID)
		if err != nil {
			return err
		}
		cur, err := s.getScript(ctx, tx, scriptID)
		if err != nil {
			return err
		}
		if _, err := s.insertVersion(ctx, tx, scriptID, AutoRestoreName, cur.content); err != nil {
			return err
		}
		if _, err := s.saveContent(ctx, tx, scriptID, v.Content); err != nil {
			return err
		}
		restored = v.Content
		return nil
	})
	if err != nil {
		return domain.Content{}, err
	}
	s.log.Info("version restored", slog.String("script", scriptID), slog.String("version", versionID))
	return restored, nil
}

// DeleteVersion removes one version of a script.
func (s *Store) DeleteVersion(ctx context.Context, scriptID, versionID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM versions WHERE id = ? AND script_id = ?`), versionID, scriptID)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	return affected(res)
}
