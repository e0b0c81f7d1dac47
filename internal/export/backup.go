/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns application state into files a user can carry around:
// full-state JSON backups, a printable storyboard PDF and shareable style
// packs. Nothing here mutates state; imports hand their payload back to the
// store, which owns validation and confirmation.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "promptforge/internal/log"
	"log/slog"
)

// BackupFileName returns the dated default name for a state backup.
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("promptforge-backup-%s.json", now.Format("2006-01-02"))
}

// WriteBackup writes an exported state blob to destPath. When destPath is a
// directory, the dated default file name is appended. It returns the final
// path written.
func WriteBackup(destPath string, blob []byte) (string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "backup")
	if strings.TrimSpace(destPath) == "" {
		return "", errors.New("destination path is required")
	}
	if info, err := os.Stat(destPath); err == nil && info.IsDir() {
		destPath = filepath.Join(destPath, BackupFileName(time.Now()))
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure backup dir: %w", err)
	}
	if err := os.WriteFile(destPath, blob, 0o644); err != nil {
		l.Error("backup write failed", slog.Any("err", err))
		return "", fmt.Errorf("write backup: %w", err)
	}
	l.Info("backup written", slog.String("path", destPath), slog.Int("bytes", len(blob)))
	return destPath, nil
}

// ReadBackup loads a backup file for the store to validate and import.
func ReadBackup(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("backup path is required")
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return blob, nil
}
