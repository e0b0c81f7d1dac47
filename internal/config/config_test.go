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
	"testing"
)

// memStore keeps keyring entries in memory for tests.
type memStore struct {
	entries map[string]string
}

func (m *memStore) key(service, key string) string { return service + "/" + key }

func (m *memStore) Get(service, key string) (string, error) {
	v, ok := m.entries[m.key(service, key)]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m *memStore) Set(service, key, value string) error {
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[m.key(service, key)] = value
	return nil
}

func (m *memStore) Delete(service, key string) error {
	delete(m.entries, m.key(service, key))
	return nil
}

func withMemStore(t *testing.T) *memStore {
	t.Helper()
	old := tokenStore
	m := &memStore{}
	tokenStore = m
	t.Cleanup(func() { tokenStore = old })
	return m
}

func TestEnvOverridesAIBaseURL(t *testing.T) {
	withMemStore(t)
	old := os.Getenv(EnvAIBaseURL)
	_ = os.Setenv(EnvAIBaseURL, "https://openrouter.ai/api/v1")
	t.Cleanup(func() { _ = os.Setenv(EnvAIBaseURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.AI.BaseURL, "https://openrouter.ai/api/v1"; got != want {
		t.Fatalf("AI.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	m := withMemStore(t)
	_ = m.Set(keyringService, keyringAPIKey, "from-keyring")
	old := os.Getenv(EnvAIAPIKey)
	_ = os.Setenv(EnvAIAPIKey, "from-env")
	t.Cleanup(func() { _ = os.Setenv(EnvAIAPIKey, old) })
	_, key, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "from-env" {
		t.Fatalf("key = %q, env must win over keyring", key)
	}
}

func TestAPIKeyFallsBackToKeyring(t *testing.T) {
	m := withMemStore(t)
	_ = m.Set(keyringService, keyringAPIKey, "from-keyring")
	old := os.Getenv(EnvAIAPIKey)
	_ = os.Unsetenv(EnvAIAPIKey)
	t.Cleanup(func() { _ = os.Setenv(EnvAIAPIKey, old) })
	_, key, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "from-keyring" {
		t.Fatalf("key = %q, want keyring value", key)
	}
}

func TestMergeIncludesAI(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.AI.Model = "deepseek/deepseek-chat"
	src.AI.TimeoutMs = 30000
	src.AI.MaxRetries = 5
	mergeInto(&dst, &src)
	if dst.AI.Model != "deepseek/deepseek-chat" || dst.AI.TimeoutMs != 30000 || dst.AI.MaxRetries != 5 {
		t.Fatalf("ai fields not merged correctly: %#v", dst.AI)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/pf.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pf.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	withMemStore(t)
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "/tmp/pf.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/pf.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}
