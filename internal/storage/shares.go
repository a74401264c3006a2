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
	"log/slog"

	"hobodraft/internal/share"
)

// EnableShare issues a new token for a script, replacing any previous one.
func (s *Store) EnableShare(ctx context.Context, scriptID string, mode share.Mode) (string, error) {
	if s.issuer == nil {
		return "", ErrSharingDisabled
	}
	if _, err := share.ParseMode(string(mode)); err != nil {
		return "", invalid(err)
	}
	token, err := s.issuer.Issue(scriptID, mode)
	if err != nil {
		return "", err
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE scripts SET share_token = ?, share_mode = ? WHERE id = ?`),
		token, string(mode), scriptID)
	if err != nil {
		return "", fmt.Errorf("store share token: %w", err)
	}
	if err := affected(res); err != nil {
		return "", err
	}
	s.log.Info("share enabled", slog.String("script", scriptID), slog.String("mode", string(mode)))
	return token, nil
}

// DisableShare revokes the current token of a script.
func (s *Store) DisableShare(ctx context.Context, scriptID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE scripts SET share_token = NULL, share_mode = NULL WHERE id = ?`), scriptID)
	if err != nil {
		return fmt.Errorf("clear share token: %w", err)
	}
	return affected(res)
}

// ResolveShare verifies a token and returns the script and mode it grants.
// Tokens that were revoked or replaced resolve to ErrNotFound.
func (s *Store) ResolveShare(ctx context.Context, token string) (string, share.Mode, error) {
	if s.issuer == nil {
		return "", "", ErrSharingDisabled
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return "", "", err
	}
	var stored string
	err = s.db.QueryRowContext(ctx, s.q(`SELECT COALESCE(share_token, '') FROM scripts WHERE id = ?`), claims.ScriptID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("lookup share token: %w", err)
	}
	if stored == "" || stored != token {
		return "", "", ErrNotFound
	}
	return claims.ScriptID, claims.Mode, nil
}
