/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService  = "HoboDraft"
	keyringShareKey = "share_signing_secret"
)

// SecretStore abstracts the OS keyring so tests can stub it.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// ErrSecretNotFound is returned by SecretStore implementations for missing keys.
var ErrSecretNotFound = errors.New("secret not found")

// osKeyring implements SecretStore using github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return v, err
}

func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }

func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

var secretStore SecretStore = osKeyring{}

// ShareSecret returns the HMAC secret used to sign share tokens. A fresh
// random secret is generated and stored in the keychain on first use.
func ShareSecret() ([]byte, error) {
	return shareSecretFrom(secretStore)
}

func shareSecretFrom(store SecretStore) ([]byte, error) {
	v, err := store.Get(keyringService, keyringShareKey)
	if err == nil && strings.TrimSpace(v) != "" {
		b, derr := base64.StdEncoding.DecodeString(v)
		if derr == nil && len(b) >= 32 {
			return b, nil
		}
	}
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return nil, fmt.Errorf("read share secret: %w", err)
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate share secret: %w", err)
	}
	if err := store.Set(keyringService, keyringShareKey, base64.StdEncoding.EncodeToString(b)); err != nil {
		return nil, fmt.Errorf("store share secret: %w", err)
	}
	return b, nil
}

// RotateShareSecret drops the stored secret; every issued share token stops verifying.
func RotateShareSecret() error {
	return secretStore.Delete(keyringService, keyringShareKey)
}
