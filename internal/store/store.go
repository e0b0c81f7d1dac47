/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store owns the application state: the project map, the active
// pointer, settings and the ephemeral UI fields. All mutation funnels
// through its operations; no other component touches nested collections
// directly. Every committed change is written through the persistence
// collaborator, whose failures are logged and never surfaced.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"sync"

	"promptforge/internal/domain"
	applog "promptforge/internal/log"
	"promptforge/internal/migrate"
	"promptforge/internal/persist"
)

// CopySuffix is appended to a duplicated project's name.
const CopySuffix = " (Cópia)"

// Confirmer asks the user to approve a destructive operation. The CLI wires
// a terminal prompt; tests wire a stub.
type Confirmer func(question string) bool

// Store is the single shared mutable resource. All reads and writes go
// through its methods under one mutex; asynchronous generation work only
// touches it at commit points.
type Store struct {
	mu      sync.Mutex
	state   *domain.AppState
	kv      persist.KV
	confirm Confirmer
	log     *slog.Logger

	// modelTurnOpen tracks whether a streaming assistant turn is in
	// progress for the active project's chat.
	modelTurnOpen bool

	// onCommit, when set, observes every committed state (used to keep the
	// search index fresh). Called outside user-visible error paths.
	onCommit func(*domain.AppState)

	// notify, when set, observes toast/error channel updates.
	notify Notifier

	// pending queues notices raised inside locked sections; deliverNotices
	// hands them to the notifier once the lock is released.
	pending []notice
}

type notice struct {
	kind    string
	message string
}

// Notice kinds passed to a Notifier.
const (
	NoticeError = "error"
	NoticeToast = "toast"
)

// Notifier receives user-visible channel updates. The callback must not call
// back into the store.
type Notifier func(kind, message string)

// Open loads persisted state through the migration engine, falling back to
// a fresh single-project state when nothing usable exists.
func Open(kv persist.KV, confirm Confirmer) *Store {
	l := applog.WithComponent("store")
	s := &Store{kv: kv, confirm: confirm, log: l}

	var state *domain.AppState
	blob, ok, err := kv.Get(persist.StateKey)
	if err != nil {
		l.Warn("persisted state unreadable", slog.Any("err", err))
	}
	if ok {
		state, err = migrate.Load(blob)
		if err != nil {
			l.Warn("migration failed, starting fresh", slog.Any("err", err))
		}
	}
	if state == nil {
		state = domain.FreshState()
	}
	s.state = state
	return s
}

// NewWithState builds a store around an already-loaded state. Used by tests
// and by import.
func NewWithState(state *domain.AppState, kv persist.KV, confirm Confirmer) *Store {
	return &Store{state: state, kv: kv, confirm: confirm, log: applog.WithComponent("store")}
}

// OnNotify registers an observer of toast/error updates.
func (s *Store) OnNotify(fn Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// OnCommit registers an observer of committed states.
func (s *Store) OnCommit(fn func(*domain.AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommit = fn
}

// toastLocked publishes a transient notice from inside a locked section.
func (s *Store) toastLocked(message string) {
	s.state.Toast = message
	s.pending = append(s.pending, notice{NoticeToast, message})
}

// errorLocked records a user-visible error from inside a locked section.
func (s *Store) errorLocked(message string) {
	s.state.Error = message
	s.pending = append(s.pending, notice{NoticeError, message})
}

// deliverNotices flushes queued notices to the notifier. It must run after
// the store lock is released; callers stack it under the unlock defer.
func (s *Store) deliverNotices() {
	s.mu.Lock()
	fn := s.notify
	pend := s.pending
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return
	}
	for _, n := range pend {
		fn(n.kind, n.message)
	}
}

// commitLocked persists the current state. Write failures are non-fatal:
// the app keeps operating in memory.
func (s *Store) commitLocked() {
	if s.kv == nil {
		return
	}
	blob, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		s.log.Error("marshal state failed", slog.Any("err", err))
		return
	}
	if err := s.kv.Set(persist.StateKey, blob); err != nil {
		s.log.Error("persist state failed", slog.Any("err", err))
	}
	if s.onCommit != nil {
		s.onCommit(s.state)
	}
}

// Flush forces a persist of the current state. Normal mutations commit on
// their own; this exists for shutdown and crash paths.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	blob, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.kv.Set(persist.StateKey, blob); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// View runs fn with the live state under the store lock. fn must treat the
// state as read-only and must not retain references past the call.
func (s *Store) View(fn func(state *domain.AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// ActiveProject returns a deep copy of the active project, or ok=false when
// none is active.
func (s *Store) ActiveProject() (*domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// ActiveProjectID returns the active project id ("" when none).
func (s *Store) ActiveProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveProjectID
}

func (s *Store) activeLocked() *domain.Project {
	if s.state.ActiveProjectID == "" {
		return nil
	}
	return s.state.Projects[s.state.ActiveProjectID]
}

// Settings returns a copy of the process-wide settings.
func (s *Store) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// SaveSettings replaces the settings, closes the settings surface and
// acknowledges with a toast.
func (s *Store) SaveSettings(settings domain.Settings) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	s.state.Settings = settings
	s.state.IsSettingsOpen = false
	s.toastLocked("Configurações salvas!")
	s.commitLocked()
}

// CreateProject inserts a new project, activates it and returns its id.
func (s *Store) CreateProject(name string) string {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	id := domain.NewID()
	s.state.Projects[id] = domain.NewProject(name)
	s.state.ActiveProjectID = id
	s.state.IsProjectModalOpen = false
	s.toastLocked(fmt.Sprintf("Projeto %q criado!", name))
	s.modelTurnOpen = false
	s.commitLocked()
	s.log.Info("project created", slog.String("id", id), slog.String("name", name))
	return id
}

// LoadProject activates the given project. Unknown ids are a silent no-op.
func (s *Store) LoadProject(id string) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p, ok := s.state.Projects[id]
	if !ok {
		return
	}
	s.state.ActiveProjectID = id
	s.state.IsProjectModalOpen = false
	s.toastLocked(fmt.Sprintf("Projeto %q carregado!", p.ProjectName))
	s.modelTurnOpen = false
	s.commitLocked()
}

// DeleteProject removes a project after user confirmation. Deleting the
// last remaining project fails with ErrCannotDeleteLastProject; deleting
// the active project elects an arbitrary remaining project as active.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p, ok := s.state.Projects[id]
	if !ok {
		return nil
	}
	if len(s.state.Projects) <= 1 {
		s.toastLocked(ErrCannotDeleteLastProject.Error())
		return ErrCannotDeleteLastProject
	}
	if s.confirm != nil && !s.confirm(fmt.Sprintf("Tem certeza que deseja excluir o projeto %q?", p.ProjectName)) {
		return nil
	}
	name := p.ProjectName
	delete(s.state.Projects, id)
	if s.state.ActiveProjectID == id {
		s.state.ActiveProjectID = ""
		for remaining := range s.state.Projects {
			s.state.ActiveProjectID = remaining
			break
		}
	}
	s.toastLocked(fmt.Sprintf("Projeto %q excluído.", name))
	s.commitLocked()
	s.log.Info("project deleted", slog.String("id", id), slog.String("name", name))
	return nil
}

// RenameProject renames a project. Unknown ids are a silent no-op.
func (s *Store) RenameProject(id, newName string) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p, ok := s.state.Projects[id]
	if !ok {
		return
	}
	p.ProjectName = newName
	s.toastLocked("Projeto renomeado!")
	s.commitLocked()
}

// DuplicateProject deep-copies a project under a new id with a copy suffix.
// The duplicate is not activated. Returns the new id ("" for unknown ids).
func (s *Store) DuplicateProject(id string) string {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p, ok := s.state.Projects[id]
	if !ok {
		return ""
	}
	dup := p.Clone()
	dup.ProjectName = p.ProjectName + CopySuffix
	newID := domain.NewID()
	s.state.Projects[newID] = dup
	s.toastLocked(fmt.Sprintf("Projeto %q duplicado!", p.ProjectName))
	s.commitLocked()
	return newID
}

// RestartProject replaces the active project's content with a fresh project
// of the same name after confirmation. The chat version is bumped so the
// assistant session is rebuilt.
func (s *Store) RestartProject() {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		s.toastLocked("Erro: Projeto ativo não encontrado.")
		return
	}
	name := p.ProjectName
	if s.confirm != nil && !s.confirm(fmt.Sprintf(
		"Tem certeza que deseja reiniciar o projeto %q? Todo o progresso (roteiro, cenas, estilos) será perdido.", name)) {
		return
	}
	fresh := domain.NewProject(name)
	fresh.ChatVersion = p.ChatVersion + 1
	s.state.Projects[s.state.ActiveProjectID] = fresh
	s.toastLocked(fmt.Sprintf("Projeto %q reiniciado.", name))
	s.modelTurnOpen = false
	s.commitLocked()
	s.log.Info("project restarted", slog.String("name", name))
}

// UpdateActive applies a mutation to the active project and commits. It is
// a silent no-op when no project is active.
func (s *Store) UpdateActive(apply func(p *domain.Project)) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	apply(p)
	s.commitLocked()
}

// ProjectPatch is a typed partial update over the active project's directly
// writable fields. Nil fields are left untouched.
type ProjectPatch struct {
	Script             *string
	Channel            *domain.Channel
	Language           *domain.Language
	CharacterBrief     *string
	CustomStylePrompt  *string
	SegmentationConfig *domain.SegmentationConfig
}

// UpdateProjectFields applies a patch to the active project and commits.
func (s *Store) UpdateProjectFields(patch ProjectPatch) {
	s.UpdateActive(func(p *domain.Project) {
		if patch.Script != nil {
			p.Script = *patch.Script
		}
		if patch.Channel != nil {
			p.Channel = *patch.Channel
		}
		if patch.Language != nil {
			p.Language = *patch.Language
		}
		if patch.CharacterBrief != nil {
			p.CharacterBrief = *patch.CharacterBrief
		}
		if patch.CustomStylePrompt != nil {
			p.CustomStylePrompt = *patch.CustomStylePrompt
		}
		if patch.SegmentationConfig != nil {
			p.SegmentationConfig = *patch.SegmentationConfig
		}
	})
}

// --- ephemeral UI state -------------------------------------------------

// BeginLoading implements orchestrate.StatusSink.
func (s *Store) BeginLoading(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = true
	s.state.LoadingMessage = message
	s.state.Error = ""
}

// UpdateLoading implements orchestrate.StatusSink.
func (s *Store) UpdateLoading(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LoadingMessage = message
}

// EndLoading implements orchestrate.StatusSink.
func (s *Store) EndLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	s.state.LoadingMessage = ""
}

// ReportError records the single most-recent user-visible error. It stays
// until the next successful operation or explicit dismissal.
func (s *Store) ReportError(message string) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	s.errorLocked(message)
}

// DismissError clears the error channel.
func (s *Store) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// Toast publishes a transient notice on the channel independent of errors.
func (s *Store) Toast(message string) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	s.toastLocked(message)
}

// ClearToast expires the current notice.
func (s *Store) ClearToast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Toast = ""
}

// SetFocusMode toggles distraction-free mode.
func (s *Store) SetFocusMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsFocusMode = on
}

// SetWelcomeScreen shows or hides the welcome surface and persists the
// choice.
func (s *Store) SetWelcomeScreen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowWelcomeScreen = on
	s.commitLocked()
}

// SetSettingsOpen opens or closes the settings surface.
func (s *Store) SetSettingsOpen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsSettingsOpen = on
}

// SetProjectModalOpen opens or closes the project-management surface.
func (s *Store) SetProjectModalOpen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsProjectModalOpen = on
}
