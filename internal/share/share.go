/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package share issues and verifies the signed tokens behind share links.
package share

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Mode is the access a share link grants.
type Mode string

const (
	ModeRead Mode = "read"
	ModeEdit Mode = "edit"
)

var (
	ErrInvalidMode  = errors.New("invalid share mode")
	ErrInvalidToken = errors.New("invalid share token")
	ErrTokenExpired = errors.New("share token expired")
)

// ParseMode accepts "read" or "edit" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRead:
		return ModeRead, nil
	case ModeEdit:
		return ModeEdit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

const issuerName = "hobodraft"

// Claims is the token payload: the script and access mode, plus a unique id
// so every enable produces a distinct token.
type Claims struct {
	jwt.RegisteredClaims
	ScriptID string `json:"sid"`
	Mode     Mode   `json:"mode"`
}

// Issuer signs share tokens with an HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer; ttl 0 means tokens never expire.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for scriptID.
func (i *Issuer) Issue(scriptID string, mode Mode) (string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return "", err
	}
	if len(i.secret) == 0 {
		return "", errors.New("share: empty signing secret")
	}
	now := i.now()
	rc := jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		Issuer:   issuerName,
		Subject:  scriptID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if i.ttl > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: rc, ScriptID: scriptID, Mode: mode})
	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign share token: %w", err)
	}
	return s, nil
}

// Verify checks signature, issuer and expiry and returns the claims.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ScriptID == "" {
		return Claims{}, ErrInvalidToken
	}
	if _, err := ParseMode(string(claims.Mode)); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
