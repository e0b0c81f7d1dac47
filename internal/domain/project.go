/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "github.com/google/uuid"

// AssistantGreeting seeds the chat history of every new project.
const AssistantGreeting = "Olá! Sou seu copiloto criativo. Como posso ajudar a transformar seu roteiro em uma obra de arte visual hoje?"

// FirstProjectName names the project created when no saved state exists.
const FirstProjectName = "Meu Primeiro Projeto"

// DefaultSceneCount is the target scene count for manual segmentation.
const DefaultSceneCount = 25

// NewID returns a fresh unique identifier for projects, styles and prompts.
func NewID() string { return uuid.NewString() }

// NewProject constructs a Project with the documented defaults: empty
// script, no channel, automatic segmentation, empty collections and a single
// seeded assistant greeting.
func NewProject(name string) *Project {
	return &Project{
		Step:        StepScript,
		ProjectName: name,
		Script:      "",
		Channel:     "",
		Language:    LangPTBR,
		SegmentationConfig: SegmentationConfig{
			Mode:         SegmentationAutomatic,
			SceneCount:   DefaultSceneCount,
			CustomScenes: "",
		},
		SegmentedScenes:   SceneSet{PTBR: []string{}, EN: []string{}},
		Caption:           "",
		Hashtags:          []string{},
		MusicSuggestions:  []string{},
		CharacterBrief:    "",
		StyleProposals:    []Style{},
		SelectedStyles:    []Style{},
		CustomStylePrompt: "",
		FavoriteStyles:    []Style{},
		PromptHistory:     map[string][]Prompt{},
		Favorites:         []string{},
		ChatHistory: []ChatMessage{
			{Role: "model", Parts: []MessagePart{{Text: AssistantGreeting}}},
		},
		ChatVersion:       1,
		GenerationContext: []string{},
	}
}

// DefaultSettings returns the process-wide generation defaults.
func DefaultSettings() Settings {
	return Settings{
		NegativePrompt:       "",
		GlobalSuffix:         "--ar 9:16 --v 6.0",
		AssistantPersonality: PersonalityCreative,
	}
}

// FreshState builds a brand-new application state holding exactly one new
// project, used when no persisted state exists or it cannot be loaded.
func FreshState() *AppState {
	id := NewID()
	return &AppState{
		Projects:          map[string]*Project{id: NewProject(FirstProjectName)},
		ActiveProjectID:   id,
		Settings:          DefaultSettings(),
		ShowWelcomeScreen: true,
	}
}

// Clone returns a structural deep copy of the project. All nested slices and
// maps are copied so the clone shares no mutable state with the original.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.SegmentedScenes = SceneSet{
		PTBR: cloneStrings(p.SegmentedScenes.PTBR),
		EN:   cloneStrings(p.SegmentedScenes.EN),
	}
	cp.Hashtags = cloneStrings(p.Hashtags)
	cp.MusicSuggestions = cloneStrings(p.MusicSuggestions)
	cp.Favorites = cloneStrings(p.Favorites)
	cp.GenerationContext = cloneStrings(p.GenerationContext)
	if p.ViralAnalysis != nil {
		va := *p.ViralAnalysis
		va.Suggestions = cloneStrings(p.ViralAnalysis.Suggestions)
		cp.ViralAnalysis = &va
	}
	cp.StyleProposals = CloneStyles(p.StyleProposals)
	cp.SelectedStyles = CloneStyles(p.SelectedStyles)
	cp.FavoriteStyles = CloneStyles(p.FavoriteStyles)
	cp.PromptHistory = make(map[string][]Prompt, len(p.PromptHistory))
	for scene, prompts := range p.PromptHistory {
		cp.PromptHistory[scene] = ClonePrompts(prompts)
	}
	cp.ChatHistory = make([]ChatMessage, len(p.ChatHistory))
	for i, m := range p.ChatHistory {
		cm := m
		cm.Parts = append([]MessagePart(nil), m.Parts...)
		cm.Suggestions = cloneStrings(m.Suggestions)
		cp.ChatHistory[i] = cm
	}
	return &cp
}

// Clone returns a value copy of the style with its own tag slice.
func (s Style) Clone() Style {
	s.Tags = cloneStrings(s.Tags)
	return s
}

// CloneStyles copies a style slice by value.
func CloneStyles(in []Style) []Style {
	if in == nil {
		return nil
	}
	out := make([]Style, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// ClonePrompts copies a prompt slice by value.
func ClonePrompts(in []Prompt) []Prompt {
	if in == nil {
		return nil
	}
	out := make([]Prompt, len(in))
	for i, p := range in {
		p.SoundEffects = cloneStrings(p.SoundEffects)
		out[i] = p
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
