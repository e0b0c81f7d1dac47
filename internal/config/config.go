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

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in
// the user scope. Environment variables are treated as read-only overrides
// at runtime. The AI API key is never stored on disk; it lives in the OS
// keyring.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type AIConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries int    `yaml:"max_retries"`
	// The API key is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	DataDir string `yaml:"data_dir"` // empty = default under the user config dir
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	AI            AIConfig      `yaml:"ai"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults. An empty AI base URL targets
// the OpenAI API directly.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DataDir: ""},
		AI:            AIConfig{BaseURL: "", Model: "gpt-4o-mini", TimeoutMs: 120000, MaxRetries: 3},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvAIBaseURL    = "PF_AI_BASE_URL"
	EnvAIModel      = "PF_AI_MODEL"
	EnvAITimeoutMs  = "PF_AI_TIMEOUT_MS"
	EnvAIMaxRetries = "PF_AI_MAX_RETRIES"
	EnvAIAPIKey     = "PF_AI_API_KEY"
	EnvDataDir      = "PF_DATA_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PF_LOG_LEVEL"
	EnvLogFormat = "PF_LOG_FORMAT"
	EnvLogSource = "PF_LOG_SOURCE"
	EnvLogFile   = "PF_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "PromptForge"
	keyringAPIKey  = "ai_api_key"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = &osKeyring{}

// osKeyring implements TokenStore on the OS keyring via
// github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) {
	return keyring.Get(service, key)
}
func (k *osKeyring) Set(service, key, value string) error {
	return keyring.Set(service, key, value)
}
func (k *osKeyring) Delete(service, key string) error {
	return keyring.Delete(service, key)
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PromptForge")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PromptForge")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "promptforge")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and
// merges environment overrides. The AI API key is looked up in the keyring
// and returned separately; PF_AI_API_KEY overrides it.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)

	key := strings.TrimSpace(os.Getenv(EnvAIAPIKey))
	if key == "" {
		key, _ = tokenStore.Get(keyringService, keyringAPIKey)
	}
	return cfg, key, nil
}

// Save writes the user config YAML and persists the API key into the OS
// keyring (if non-empty).
func Save(cfg AppConfig, apiKey string) error {
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
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if apiKey != "" {
		if err := tokenStore.Set(keyringService, keyringAPIKey, apiKey); err != nil {
			return err
		}
	}
	return nil
}

// ForgetAPIKey removes the stored key from the keyring.
func ForgetAPIKey() error {
	return tokenStore.Delete(keyringService, keyringAPIKey)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.DataDir) != "" {
		dst.General.DataDir = strings.TrimSpace(src.General.DataDir)
	}
	if src.AI.BaseURL != "" {
		dst.AI.BaseURL = src.AI.BaseURL
	}
	if src.AI.Model != "" {
		dst.AI.Model = src.AI.Model
	}
	if src.AI.TimeoutMs != 0 {
		dst.AI.TimeoutMs = src.AI.TimeoutMs
	}
	if src.AI.MaxRetries != 0 {
		dst.AI.MaxRetries = src.AI.MaxRetries
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAIBaseURL)); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIModel)); v != "" {
		cfg.AI.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAITimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AI.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIMaxRetries)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AI.MaxRetries = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.General.DataDir = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "ai.base_url":
		if os.Getenv(EnvAIBaseURL) != "" {
			return EnvAIBaseURL, true
		}
	case "ai.model":
		if os.Getenv(EnvAIModel) != "" {
			return EnvAIModel, true
		}
	case "ai.timeout_ms":
		if os.Getenv(EnvAITimeoutMs) != "" {
			return EnvAITimeoutMs, true
		}
	case "ai.max_retries":
		if os.Getenv(EnvAIMaxRetries) != "" {
			return EnvAIMaxRetries, true
		}
	case "general.data_dir":
		if os.Getenv(EnvDataDir) != "" {
			return EnvDataDir, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}
