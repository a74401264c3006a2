/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Edit ")
	require.NoError(t, err)
	require.Equal(t, ModeEdit, m)

	_, err = ParseMode("admin")
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	tok, err := iss.Issue("script-1", ModeRead)
	require.NoError(t, err)

	c, err := iss.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "script-1", c.ScriptID)
	require.Equal(t, ModeRead, c.Mode)
	require.NotEmpty(t, c.ID)
}

func TestEveryIssueIsDistinct(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("secret-secret-secret-secret-0000"), 0)
	a, err := iss.Issue("s", ModeEdit)
	require.NoError(t, err)
	b, err := iss.Issue("s", ModeEdit)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("secret"), time.Minute)
	base := time.Now()
	iss.now = func() time.Time { return base }
	tok, err := iss.Issue("s", ModeRead)
	require.NoError(t, err)

	iss.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer([]byte("right"), 0).Issue("s", ModeRead)
	require.NoError(t, err)
	_, err = NewIssuer([]byte("wrong"), 0).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer([]byte("k"), 0).Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer([]byte("k"), 0).Issue("s", Mode("owner"))
	require.ErrorIs(t, err, ErrInvalidMode)
	_, err = NewIssuer(nil, 0).Issue("s", ModeRead)
	require.Error(t, err)
}
