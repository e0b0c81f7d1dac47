/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"promptforge/internal/domain"
	applog "promptforge/internal/log"
	"log/slog"
)

const packStylesName = "styles.json"
const packManifestName = "stylepack.manifest.txt"

// WriteStylePack zips the given styles (typically a project's favorites)
// into a shareable pack: a JSON document plus a human-readable manifest.
func WriteStylePack(destZipPath, projectName string, styles []domain.Style) error {
	l := applog.WithOperation(applog.WithComponent("export"), "stylepack").With(
		slog.String("project", projectName))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destination path is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("PromptForge Style Pack\nCreated: %s\nProject: %s\nStyles: %d\n",
		time.Now().Format(time.RFC3339), projectName, len(styles))
	w, err := zw.Create(packManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	blob, err := json.MarshalIndent(styles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode styles: %w", err)
	}
	w, err = zw.Create(packStylesName)
	if err != nil {
		return fmt.Errorf("add styles: %w", err)
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("write styles: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("styles", len(styles)), slog.String("zip", destZipPath))
	return nil
}

// ReadStylePack opens a pack and returns the styles it carries. Validation
// is structural only; merging into a project is the caller's business.
func ReadStylePack(packZipPath string) ([]domain.Style, error) {
	if strings.TrimSpace(packZipPath) == "" {
		return nil, errors.New("pack path is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()
	for _, f := range r.File {
		if f.Name != packStylesName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open styles entry: %w", err)
		}
		blob, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read styles entry: %w", err)
		}
		var styles []domain.Style
		if err := json.Unmarshal(blob, &styles); err != nil {
			return nil, fmt.Errorf("decode styles: %w", err)
		}
		return styles, nil
	}
	return nil, fmt.Errorf("pack has no %s entry", packStylesName)
}

// MergeStyles appends incoming styles to existing, skipping ids already
// present. It returns the merged slice and the number of styles added.
func MergeStyles(existing, incoming []domain.Style) ([]domain.Style, int) {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s.ID] = true
	}
	out := append([]domain.Style(nil), existing...)
	added := 0
	for _, s := range incoming {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
		added++
	}
	return out, added
}
