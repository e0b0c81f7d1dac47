/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package persist implements the key-value persistence contract the store
// writes through. The file-backed implementation keeps one JSON document per
// key with transactional replace semantics and timestamped backups, and
// falls back to the latest backup when the current document is unreadable.
package persist

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "promptforge/internal/log"
)

// StateKey is the fixed, versioned key the application state is stored
// under. A future incompatible shape change moves to a new key instead of
// relying solely on in-place migration.
const StateKey = "promptforge-state-v3"

const backupsDirName = "backups"

// KV is the narrow persistence contract consumed by the store. Set is
// fire-and-forget from the core's perspective: callers log failures but do
// not surface them to the user.
type KV interface {
	// Get returns the blob for key, with ok=false when the key is absent.
	Get(key string) (blob []byte, ok bool, err error)
	// Set stores the blob under key.
	Set(key string, blob []byte) error
}

// FileKV stores each key as <dir>/<key>.json. It keeps up to maxBackups
// timestamped copies of each document under <dir>/backups.
type FileKV struct {
	Dir        string
	MaxBackups int
}

// NewFileKV opens (creating if needed) a file-backed KV rooted at dir.
func NewFileKV(dir string) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("persist dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, backupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create persist dir: %w", err)
	}
	return &FileKV{Dir: dir, MaxBackups: 5}, nil
}

// DefaultDir resolves the per-user data directory for the application.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "promptforge"), nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

// Get reads the document for key. When the current file is missing it tries
// the most recent backup before reporting the key as absent.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if err == nil {
		return b, true, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if b, ok := f.latestBackup(key); ok {
		applog.WithComponent("persist").Warn("current document missing, using latest backup",
			slog.String("key", key))
		return b, true, nil
	}
	return nil, false, nil
}

// Set replaces the document for key transactionally: the previous version is
// copied to a timestamped backup, the new content is written to a temp file,
// fsynced and renamed over the target.
func (f *FileKV) Set(key string, blob []byte) error {
	target := f.path(key)
	if _, err := os.Stat(target); err == nil {
		if err := f.backupCurrent(key); err != nil {
			return fmt.Errorf("backup %s: %w", key, err)
		}
	}
	temp := filepath.Join(f.Dir, fmt.Sprintf(".%s.tmp-%d-%d", key, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, blob); err != nil {
		return fmt.Errorf("write temp for %s: %w", key, err)
	}
	// On Windows, rename does not replace; remove the destination first.
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if err := os.Rename(temp, target); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) backupCurrent(key string) error {
	src, err := os.ReadFile(f.path(key))
	if err != nil {
		return err
	}
	stamp := time.Now().Format("20060102-150405.000")
	name := fmt.Sprintf("%s.%s.bak", key, strings.ReplaceAll(stamp, ".", ""))
	if err := writeFileSync(filepath.Join(f.Dir, backupsDirName, name), src); err != nil {
		return err
	}
	f.pruneBackups(key)
	return nil
}

func (f *FileKV) backups(key string) []string {
	ents, err := os.ReadDir(filepath.Join(f.Dir, backupsDirName))
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, key+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(f.Dir, backupsDirName, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out
}

func (f *FileKV) latestBackup(key string) ([]byte, bool) {
	candidates := f.backups(key)
	if len(candidates) == 0 {
		return nil, false
	}
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return nil, false
	}
	return b, true
}

func (f *FileKV) pruneBackups(key string) {
	if f.MaxBackups <= 0 {
		return
	}
	candidates := f.backups(key)
	for len(candidates) > f.MaxBackups {
		_ = os.Remove(candidates[0])
		candidates = candidates[1:]
	}
}

// writeFileSync writes data to a file and ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := fh.Write(data); err != nil {
		return err
	}
	return fh.Sync()
}
