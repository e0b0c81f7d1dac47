/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for promptforge: projects, visual
// styles, generated prompts and the application root state. Everything here
// serializes to the human-readable JSON state file; behavior lives in the
// store and migrate packages.

// Channel identifies the target publication channel a project produces
// prompts for. An empty Channel means the user has not picked one yet.
type Channel string

const (
	ChannelDNACosmico     Channel = "dnacosmico"
	ChannelSombrasDarkive Channel = "sombrasdearkive"
	ChannelHQ             Channel = "hq"
	ChannelBW             Channel = "bw"
)

// Language is the script language a project works in.
type Language string

const (
	LangPTBR Language = "pt-br"
	LangEN   Language = "en"
	LangES   Language = "es"
)

// Personality selects the tone of the chat assistant.
type Personality string

const (
	PersonalityCreative  Personality = "creative"
	PersonalityTechnical Personality = "technical"
	PersonalitySarcastic Personality = "sarcastic"
)

// SegmentationMode controls how the script is split into scenes.
type SegmentationMode string

const (
	SegmentationAutomatic SegmentationMode = "automatic"
	SegmentationManual    SegmentationMode = "manual"
	SegmentationCustom    SegmentationMode = "custom"
)

// VariationType tags prompts derived from an original generation. The zero
// value means the prompt came from a plain per-scene generation.
type VariationType string

const (
	VariationPrompt VariationType = "variation"
	VariationScene  VariationType = "scene_variation"
	VariationAsset  VariationType = "asset"
)

// Workflow steps. A project is always in exactly one of them.
const (
	StepScript = 1 // script input & segmentation
	StepStyle  = 2 // style selection
	StepScenes = 3 // per-scene prompt generation
)

// Settings are process-wide generation preferences, mutated only via an
// explicit save.
type Settings struct {
	NegativePrompt       string      `json:"negativePrompt"`
	GlobalSuffix         string      `json:"globalSuffix"`
	AssistantPersonality Personality `json:"assistantPersonality"`
}

// Style is a reusable visual-aesthetic descriptor applied to prompt
// generation. Styles are copied by value between proposal, selection and
// favorite lists; only the prompt text is editable after selection.
type Style struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Prompt       string   `json:"prompt"`
	Tags         []string `json:"tags"`
	IsPredefined bool     `json:"isPredefined"`
	IsExtra      bool     `json:"isExtra,omitempty"`
}

// Prompt is one generated image/video description tied to a scene.
// At most one prompt per scene may have IsSelected set; the history engine
// enforces that.
type Prompt struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	IsSelected    bool          `json:"isSelected"`
	MotionPrompt  string        `json:"motionPrompt,omitempty"`
	SoundEffects  []string      `json:"soundEffects,omitempty"`
	VariationType VariationType `json:"variationType,omitempty"`
}

// MessagePart is a fragment of a chat message.
type MessagePart struct {
	Text string `json:"text"`
}

// ChatMessage is one turn of the assistant conversation. Suggestions carry
// optional clickable creative guidelines attached to a model turn.
type ChatMessage struct {
	Role        string        `json:"role"` // "user" or "model"
	Parts       []MessagePart `json:"parts"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// ViralAnalysis is the structured result of the viral-potential analysis.
type ViralAnalysis struct {
	Score       int      `json:"score"` // 0..100
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
}

// PlotTwist is one suggested visual twist for the script.
type PlotTwist struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SegmentationConfig captures how the user wants the script segmented.
type SegmentationConfig struct {
	Mode         SegmentationMode `json:"mode"`
	SceneCount   int              `json:"sceneCount"`
	CustomScenes string           `json:"customScenes"`
}

// SceneSet holds the segmented scenes in both working languages. The two
// sequences are index-aligned: reordering one reorders the other at the same
// position.
type SceneSet struct {
	PTBR []string `json:"pt-br"`
	EN   []string `json:"en"`
}

// SocialContent is the caption/hashtags/music bundle generated from a script.
type SocialContent struct {
	Caption          string   `json:"caption"`
	Hashtags         []string `json:"hashtags"`
	MusicSuggestions []string `json:"musicSuggestions"`
}

// Project is one named body of work: a script, its segmentation, the chosen
// visual styles and the per-scene prompt history. It is mutated exclusively
// through store operations.
type Project struct {
	Step               int                 `json:"step"`
	ProjectName        string              `json:"projectName"`
	Script             string              `json:"script"`
	Channel            Channel             `json:"channel"`
	Language           Language            `json:"language"`
	SegmentationConfig SegmentationConfig  `json:"segmentationConfig"`
	SegmentedScenes    SceneSet            `json:"segmentedScenes"`
	Caption            string              `json:"caption"`
	Hashtags           []string            `json:"hashtags"`
	MusicSuggestions   []string            `json:"musicSuggestions"`
	ViralAnalysis      *ViralAnalysis      `json:"viralAnalysis,omitempty"`
	CharacterBrief     string              `json:"characterBrief"`
	StyleProposals     []Style             `json:"styleProposals"`
	SelectedStyles     []Style             `json:"selectedStyles"`
	CustomStylePrompt  string              `json:"customStylePrompt"`
	FavoriteStyles     []Style             `json:"favoriteStyles"`
	PromptHistory      map[string][]Prompt `json:"promptHistory"`
	Favorites          []string            `json:"favorites"`
	ChatHistory        []ChatMessage       `json:"chatHistory"`
	ChatVersion        int                 `json:"chatVersion"`
	GenerationContext  []string            `json:"generationContext"`
}

// AppState is the root application state: the project map, the active
// pointer and the process-wide settings. The trailing fields are ephemeral
// UI state; they are serialized for export fidelity but reset to known
// defaults on every load.
type AppState struct {
	Projects        map[string]*Project `json:"projects"`
	ActiveProjectID string              `json:"activeProjectId"`
	Settings        Settings            `json:"settings"`

	// Ephemeral; reset by migrate.Load.
	IsLoading          bool   `json:"isLoading"`
	LoadingMessage     string `json:"loadingMessage"`
	Error              string `json:"error"`
	Toast              string `json:"toast"`
	IsSettingsOpen     bool   `json:"isSettingsOpen"`
	IsProjectModalOpen bool   `json:"isProjectModalOpen"`
	IsChatting         bool   `json:"isChatting"`
	IsFocusMode        bool   `json:"isFocusMode"`
	ShowWelcomeScreen  bool   `json:"showWelcomeScreen"`
}
