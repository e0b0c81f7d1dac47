/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package migrate upgrades a previously persisted state blob of unknown or
// older shape into the current domain.AppState shape. Upgrades run per
// project, each tolerant of missing fields, as an ordered pipeline of pure
// steps over the raw JSON object. Migrating an already-current blob is a
// no-op.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"promptforge/internal/domain"
	applog "promptforge/internal/log"
)

// FailureReason classifies why a persisted blob could not be loaded.
type FailureReason string

const (
	NotFound   FailureReason = "not_found"
	ParseError FailureReason = "parse_error"
	Empty      FailureReason = "empty"
)

// LoadFailure signals that the caller should fall back to a fresh state.
type LoadFailure struct {
	Reason FailureReason
	Err    error
}

func (f *LoadFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("load state: %s: %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("load state: %s", f.Reason)
}

func (f *LoadFailure) Unwrap() error { return f.Err }

// rawObject is the intermediate duck-typed shape each upgrade step operates
// on. Steps mutate it in place and must be no-ops on already-current input.
type rawObject = map[string]json.RawMessage

// projectUpgrades run in order against every project in the blob.
var projectUpgrades = []func(rawObject){
	upgradeSceneShape,
	upgradeProjectDefaults,
	upgradeSegmentationConfig,
}

// Load parses and upgrades a persisted blob. On failure it returns a
// *LoadFailure; the caller is expected to fall back to domain.FreshState.
func Load(raw []byte) (*domain.AppState, error) {
	l := applog.WithComponent("migrate")
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &LoadFailure{Reason: NotFound}
	}

	var root rawObject
	if err := json.Unmarshal(raw, &root); err != nil {
		l.Warn("state blob unparsable", slog.Any("err", err))
		return nil, &LoadFailure{Reason: ParseError, Err: err}
	}

	var projects map[string]rawObject
	if pr, ok := root["projects"]; ok {
		if err := json.Unmarshal(pr, &projects); err != nil {
			l.Warn("projects map unparsable", slog.Any("err", err))
			return nil, &LoadFailure{Reason: ParseError, Err: err}
		}
	}
	if len(projects) == 0 {
		return nil, &LoadFailure{Reason: Empty}
	}

	for id, proj := range projects {
		if proj == nil {
			delete(projects, id)
			continue
		}
		for _, step := range projectUpgrades {
			step(proj)
		}
	}
	if len(projects) == 0 {
		return nil, &LoadFailure{Reason: Empty}
	}
	upgraded, err := json.Marshal(projects)
	if err != nil {
		return nil, &LoadFailure{Reason: ParseError, Err: err}
	}
	root["projects"] = upgraded

	upgradeSettings(root)

	merged, err := json.Marshal(root)
	if err != nil {
		return nil, &LoadFailure{Reason: ParseError, Err: err}
	}
	var state domain.AppState
	if err := json.Unmarshal(merged, &state); err != nil {
		l.Warn("upgraded state does not fit current shape", slog.Any("err", err))
		return nil, &LoadFailure{Reason: ParseError, Err: err}
	}
	if len(state.Projects) == 0 {
		return nil, &LoadFailure{Reason: Empty}
	}
	for _, p := range state.Projects {
		normalizeProject(p)
	}

	resetEphemeral(&state, root)
	l.Debug("state loaded", slog.Int("projects", len(state.Projects)))
	return &state, nil
}

// upgradeSceneShape converts the legacy flat scene sequence into the
// two-language mapping and defaults a missing mapping to empty sequences.
func upgradeSceneShape(p rawObject) {
	raw, ok := p["segmentedScenes"]
	if !ok || isJSONNull(raw) {
		p["segmentedScenes"] = mustMarshal(domain.SceneSet{PTBR: []string{}, EN: []string{}})
		return
	}
	var flat []string
	if err := json.Unmarshal(raw, &flat); err == nil {
		p["segmentedScenes"] = mustMarshal(domain.SceneSet{PTBR: flat, EN: []string{}})
	}
}

// upgradeProjectDefaults fills fields introduced after the first released
// state shape.
func upgradeProjectDefaults(p rawObject) {
	if isMissingOrNull(p, "characterBrief") {
		p["characterBrief"] = json.RawMessage(`""`)
	}
	if isMissingOrNull(p, "chatVersion") {
		p["chatVersion"] = json.RawMessage(`1`)
	}
	if isMissingOrNull(p, "generationContext") {
		p["generationContext"] = json.RawMessage(`[]`)
	}
	if isMissingOrNull(p, "musicSuggestions") {
		p["musicSuggestions"] = json.RawMessage(`[]`)
	}
	if isMissingOrNull(p, "viralAnalysis") {
		delete(p, "viralAnalysis")
	}
}

// upgradeSegmentationConfig maps the legacy isAutomatic boolean onto the
// mode field and drops the legacy flag.
func upgradeSegmentationConfig(p rawObject) {
	raw, ok := p["segmentationConfig"]
	if !ok || isJSONNull(raw) {
		return
	}
	var cfg rawObject
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return
	}
	if _, hasMode := cfg["mode"]; hasMode {
		return
	}
	legacy, hasLegacy := cfg["isAutomatic"]
	if !hasLegacy {
		return
	}
	var isAutomatic bool
	_ = json.Unmarshal(legacy, &isAutomatic)
	if isAutomatic {
		cfg["mode"] = mustMarshal(domain.SegmentationAutomatic)
	} else {
		cfg["mode"] = mustMarshal(domain.SegmentationManual)
	}
	delete(cfg, "isAutomatic")
	if _, ok := cfg["customScenes"]; !ok {
		cfg["customScenes"] = json.RawMessage(`""`)
	}
	p["segmentationConfig"] = mustMarshal(cfg)
}

// upgradeSettings defaults a missing assistant personality.
func upgradeSettings(root rawObject) {
	raw, ok := root["settings"]
	if !ok || isJSONNull(raw) {
		root["settings"] = mustMarshal(domain.DefaultSettings())
		return
	}
	var settings rawObject
	if err := json.Unmarshal(raw, &settings); err != nil {
		return
	}
	if isMissingOrNull(settings, "assistantPersonality") {
		settings["assistantPersonality"] = mustMarshal(domain.PersonalityCreative)
		root["settings"] = mustMarshal(settings)
	}
}

// resetEphemeral clears transient UI state on every load. showWelcomeScreen
// is preserved unless the blob carries an explicit false.
func resetEphemeral(state *domain.AppState, root rawObject) {
	state.IsLoading = false
	state.LoadingMessage = ""
	state.Error = ""
	state.Toast = ""
	state.IsSettingsOpen = false
	state.IsProjectModalOpen = false
	state.IsChatting = false
	state.IsFocusMode = false

	state.ShowWelcomeScreen = true
	if raw, ok := root["showWelcomeScreen"]; ok {
		var v bool
		if err := json.Unmarshal(raw, &v); err == nil && !v {
			state.ShowWelcomeScreen = false
		}
	}
}

// normalizeProject replaces nil nested collections with empty ones so store
// operations never need nil checks.
func normalizeProject(p *domain.Project) {
	if p.SegmentedScenes.PTBR == nil {
		p.SegmentedScenes.PTBR = []string{}
	}
	if p.SegmentedScenes.EN == nil {
		p.SegmentedScenes.EN = []string{}
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.MusicSuggestions == nil {
		p.MusicSuggestions = []string{}
	}
	if p.StyleProposals == nil {
		p.StyleProposals = []domain.Style{}
	}
	if p.SelectedStyles == nil {
		p.SelectedStyles = []domain.Style{}
	}
	if p.FavoriteStyles == nil {
		p.FavoriteStyles = []domain.Style{}
	}
	if p.PromptHistory == nil {
		p.PromptHistory = map[string][]domain.Prompt{}
	}
	if p.Favorites == nil {
		p.Favorites = []string{}
	}
	if p.ChatHistory == nil {
		p.ChatHistory = []domain.ChatMessage{}
	}
	if p.GenerationContext == nil {
		p.GenerationContext = []string{}
	}
	if p.ChatVersion == 0 {
		p.ChatVersion = 1
	}
	if p.Step < domain.StepScript || p.Step > domain.StepScenes {
		p.Step = domain.StepScript
	}
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isMissingOrNull(obj rawObject, key string) bool {
	raw, ok := obj[key]
	return !ok || isJSONNull(raw)
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Inputs are always marshalable shapes; reaching this is a bug.
		panic(err)
	}
	return b
}
