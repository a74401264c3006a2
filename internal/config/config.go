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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "hobodraft/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Share         ShareConfig   `yaml:"share"`
	Export        ExportConfig  `yaml:"export"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	DefaultType string `yaml:"default_type"` // document type tag of new scripts, e.g. "screenplay", "novel" or "poem"
	Device      string `yaml:"device"`       // "auto" | "touch" | "desktop"
}

type EditorConfig struct {
	AutosaveDelayMs int `yaml:"autosave_delay_ms"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	DSN    string `yaml:"dsn"`
}

type ShareConfig struct {
	TokenTTLHours int `yaml:"token_ttl_hours"` // 0 = tokens never expire
	// The signing secret is not stored on disk; it lives in the OS keychain.
}

type ExportConfig struct {
	OutDir string `yaml:"out_dir"`
}

// ServerConfig configures the share server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DefaultType: "screenplay", Device: "auto"},
		Editor:        EditorConfig{AutosaveDelayMs: 2000},
		Storage:       StorageConfig{Driver: "sqlite", DSN: ""},
		Share:         ShareConfig{TokenTTLHours: 0},
		Export:        ExportConfig{OutDir: "exports"},
		Server:        ServerConfig{Addr: ":8080"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvDefaultType   = "HD_DEFAULT_TYPE"
	EnvDevice        = "HD_DEVICE"
	EnvAutosaveDelay = "HD_AUTOSAVE_DELAY_MS"
	EnvDBDriver      = "HD_DB_DRIVER"
	EnvDBDSN         = "HD_DB_DSN"
	EnvShareTTLHours = "HD_SHARE_TTL_HOURS"
	EnvExportDir     = "HD_EXPORT_DIR"
	EnvConfigFile    = "HD_CONFIG_FILE"
	EnvAddr          = "HD_ADDR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "HD_LOG_LEVEL"
	EnvLogFormat = "HD_LOG_FORMAT"
	EnvLogSource = "HD_LOG_SOURCE"
	EnvLogFile   = "HD_LOG_FILE"
)

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "HoboDraft")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "HoboDraft")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "hobodraft")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "hobodraft")
		}
	}
	if base == "" || base == "HoboDraft" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path. HD_CONFIG_FILE wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. A malformed file is logged and ignored.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring malformed config file", "path", path, "err", err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	if strings.TrimSpace(cfg.Storage.DSN) == "" && cfg.Storage.Driver == "sqlite" {
		if dir, derr := ConfigDir(); derr == nil {
			cfg.Storage.DSN = filepath.Join(dir, "hobodraft.sqlite")
		}
	}
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.DefaultType); s != "" {
		dst.General.DefaultType = strings.ToLower(s)
	}
	if d := normalizeDevice(src.General.Device); d != "" {
		dst.General.Device = d
	}
	if src.Editor.AutosaveDelayMs > 0 {
		dst.Editor.AutosaveDelayMs = src.Editor.AutosaveDelayMs
	}
	if s := strings.TrimSpace(src.Storage.Driver); s != "" {
		dst.Storage.Driver = normalizeDriver(s)
	}
	if s := strings.TrimSpace(src.Storage.DSN); s != "" {
		dst.Storage.DSN = s
	}
	if src.Share.TokenTTLHours > 0 {
		dst.Share.TokenTTLHours = src.Share.TokenTTLHours
	}
	if s := strings.TrimSpace(src.Export.OutDir); s != "" {
		dst.Export.OutDir = s
	}
	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultType)); v != "" {
		cfg.General.DefaultType = strings.ToLower(v)
	}
	if d := normalizeDevice(os.Getenv(EnvDevice)); d != "" {
		cfg.General.Device = d
	}
	if n, ok := envInt(EnvAutosaveDelay); ok && n > 0 {
		cfg.Editor.AutosaveDelayMs = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBDriver)); v != "" {
		cfg.Storage.Driver = normalizeDriver(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if n, ok := envInt(EnvShareTTLHours); ok && n >= 0 {
		cfg.Share.TokenTTLHours = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		cfg.Export.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.default_type":     EnvDefaultType,
		"general.device":           EnvDevice,
		"editor.autosave_delay_ms": EnvAutosaveDelay,
		"storage.driver":           EnvDBDriver,
		"storage.dsn":              EnvDBDSN,
		"share.token_ttl_hours":    EnvShareTTLHours,
		"export.out_dir":           EnvExportDir,
		"server.addr":              EnvAddr,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}
	name, ok := names[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// AutosaveDelay returns the debounce delay, falling back to the default when unset.
func (e EditorConfig) AutosaveDelay() time.Duration {
	if e.AutosaveDelayMs <= 0 {
		return time.Duration(Defaults().Editor.AutosaveDelayMs) * time.Millisecond
	}
	return time.Duration(e.AutosaveDelayMs) * time.Millisecond
}

// TokenTTL returns the share token lifetime; zero means no expiry.
func (s ShareConfig) TokenTTL() time.Duration {
	if s.TokenTTLHours <= 0 {
		return 0
	}
	return time.Duration(s.TokenTTLHours) * time.Hour
}

// SQLDriver maps the configured driver to the database/sql driver name.
func (s StorageConfig) SQLDriver() string {
	if normalizeDriver(s.Driver) == "postgres" {
		return "pgx"
	}
	return "sqlite"
}

// Logging converts the logging section into logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func normalizeDevice(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "touch", "mobile":
		return "touch"
	case "desktop":
		return "desktop"
	case "auto":
		return "auto"
	default:
		return ""
	}
}

func normalizeDriver(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "postgres", "postgresql", "pgx", "pg":
		return "postgres"
	default:
		return "sqlite"
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}
