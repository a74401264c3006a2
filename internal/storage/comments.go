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
	"errors"
	"fmt"

	"hobodraft/internal/domain"
)

// CreateComment attaches a comment to an element of a script. The element is
// not checked; comments may outlive the element they point at.
func (s *Store) CreateComment(ctx context.Context, scriptID, elementID, text, color string) (domain.Comment, error) {
	if clean(color) == "" {
		color = DefaultColor
	}
	in := commentInput{ScriptID: scriptID, ElementID: elementID, Text: clean(text), Color: clean(color)}
	if err := in.Validate(); err != nil {
		return domain.Comment{}, invalid(err)
	}
	if err := s.exists(ctx, s.db, scriptID); err != nil {
		return domain.Comment{}, err
	}
	c := domain.Comment{
		ID:        domain.NewID(),
		ElementID: in.ElementID,
		Text:      in.Text,
		Color:     in.Color,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO comments (id, script_id, element_id, text, color, resolved, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`),
		c.ID, scriptID, c.ElementID, c.Text, c.Color, formatTime(c.CreatedAt))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// UpdateComment applies a partial update and returns the stored result.
func (s *Store) UpdateComment(ctx context.Context, id string, patch domain.CommentPatch) (domain.Comment, error) {
	var out domain.Comment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, scriptID, err := s.getComment(ctx, tx, id)
		if err != nil {
			return err
		}
		next := patch.Apply(cur)
		next.Text, next.Color = clean(next.Text), clean(next.Color)
		in := commentInput{ScriptID: scriptID, ElementID: next.ElementID, Text: next.Text, Color: next.Color}
		if err := in.Validate(); err != nil {
			return invalid(err)
		}
		_, err = tx.ExecContext(ctx, s.q(`UPDATE comments SET text = ?, color = ?, resolved = ? WHERE id = ?`),
			next.Text, next.Color, boolInt(next.Resolved), id)
		if err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return affected(res)
}

// ListComments returns the comments of a script, oldest first.
func (s *Store) ListComments(ctx context.Context, scriptID string) ([]domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, element_id, text, color, resolved, created_at
		FROM comments WHERE script_id = ? ORDER BY created_at, id`), scriptID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanComment(sc scanner) (domain.Comment, error) {
	var (
		c        domain.Comment
		resolved int
		created  string
	)
	if err := sc.Scan(&c.ID, &c.ElementID, &c.Text, &c.Color, &resolved, &created); err != nil {
		return domain.Comment{}, err
	}
	c.Resolved = resolved != 0
	c.CreatedAt = parseTime(created)
	return c, nil
}

func (s *Store) getComment(ctx context.Context, q querier, id string) (domain.Comment, string, error) {
	var scriptID string
	row := q.QueryRowContext(ctx, s.q(`
		SELECT script_id, id, element_id, text, color, resolved, created_at
		FROM comments WHERE id = ?`), id)
	var (
		c        domain.Comment
		resolved int
		created  string
	)
	err := row.Scan(&scriptID, &c.ID, &c.ElementID, &c.Text, &c.Color, &resolved, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Comment{}, "", ErrNotFound
	}
	if err != nil {
		return domain.Comment{}, "", fmt.Errorf("get comment: %w", err)
	}
	c.Resolved = resolved != 0
	c.CreatedAt = parseTime(created)
	return c, scriptID, nil
}

func (s *Store) exists(ctx context.Context, q querier, scriptID string) error {
	var one int
	err := q.QueryRowContext(ctx, s.q(`SELECT 1 FROM scripts WHERE id = ?`), scriptID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup script: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
