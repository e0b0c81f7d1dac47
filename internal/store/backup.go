/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"promptforge/internal/migrate"
)

// backupSchema is the structural gate for imported backups. Anything missing
// one of the three top-level keys is rejected before any state is touched.
const backupSchema = `{
  "type": "object",
  "required": ["projects", "settings", "activeProjectId"],
  "properties": {
    "projects": {"type": "object"},
    "settings": {"type": "object"},
    "activeProjectId": {"type": ["string", "null"]}
  }
}`

// ExportAll serializes the full application state as indented UTF-8 JSON.
// Export is pure and always succeeds for a well-formed state. Ephemeral UI
// fields are written as their defaults: the migration engine resets them on
// load anyway, and keeping them out of the blob means a transient notice
// never changes what an export contains.
func (s *Store) ExportAll() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := *s.state
	snap.IsLoading = false
	snap.LoadingMessage = ""
	snap.Error = ""
	snap.Toast = ""
	snap.IsSettingsOpen = false
	snap.IsProjectModalOpen = false
	snap.IsChatting = false
	snap.IsFocusMode = false
	blob, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializar estado: %w", err)
	}
	return blob, nil
}

// ImportAll replaces the whole state with the backup blob after schema
// validation and user confirmation. The blob runs through the migration
// engine so legacy backups import cleanly. The store is left exactly as it
// was on any failure or declined confirmation.
func (s *Store) ImportAll(blob []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(backupSchema),
		gojsonschema.NewBytesLoader(blob),
	)
	if err != nil || !result.Valid() {
		s.Toast(ErrInvalidBackup.Error())
		return ErrInvalidBackup
	}

	state, err := migrate.Load(blob)
	if err != nil {
		s.Toast(ErrInvalidBackup.Error())
		return ErrInvalidBackup
	}

	if s.confirm != nil && !s.confirm("Importar este backup substituirá todos os projetos atuais. Continuar?") {
		return nil
	}

	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	state.IsSettingsOpen = false
	state.IsProjectModalOpen = false
	s.state = state
	s.modelTurnOpen = false
	s.toastLocked("Backup importado com sucesso!")
	s.commitLocked()
	s.log.Info("backup imported", slog.Int("projects", len(state.Projects)))
	return nil
}
