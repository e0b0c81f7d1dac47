/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import "promptforge/internal/domain"

// Prompt history operations. Each works on the active project's history map,
// keyed by the pt-br scene text. History keys stay a subset of the segmented
// pt-br scenes: operations against unknown scenes are silent no-ops.

// PromptPatch is a partial update applied to exactly one prompt. Nil fields
// are left untouched.
type PromptPatch struct {
	Text         *string
	MotionPrompt *string
	SoundEffects []string
}

// RecordGeneration replaces the scene's history wholesale with fresh prompt
// records. Used for first-time and regenerate calls.
func (s *Store) RecordGeneration(scene string, texts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil || !sceneKnown(p, scene) {
		return
	}
	prompts := make([]domain.Prompt, len(texts))
	for i, text := range texts {
		prompts[i] = domain.Prompt{ID: domain.NewID(), Text: text}
	}
	p.PromptHistory[scene] = prompts
	s.commitLocked()
}

// InsertAfter splices new prompt records immediately after the anchor prompt,
// preserving the rest of the order. Missing scene or anchor is a no-op.
func (s *Store) InsertAfter(scene, anchorID string, texts []string, vt domain.VariationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	history, ok := p.PromptHistory[scene]
	if !ok {
		return
	}
	anchor := -1
	for i, pr := range history {
		if pr.ID == anchorID {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return
	}
	inserted := make([]domain.Prompt, len(texts))
	for i, text := range texts {
		inserted[i] = domain.Prompt{ID: domain.NewID(), Text: text, VariationType: vt}
	}
	next := make([]domain.Prompt, 0, len(history)+len(inserted))
	next = append(next, history[:anchor+1]...)
	next = append(next, inserted...)
	next = append(next, history[anchor+1:]...)
	p.PromptHistory[scene] = next
	s.commitLocked()
}

// AppendAfterAll appends what-if prompts to the end of the scene's existing
// history rather than interleaving them.
func (s *Store) AppendAfterAll(scene string, texts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil || !sceneKnown(p, scene) {
		return
	}
	history := p.PromptHistory[scene]
	for _, text := range texts {
		history = append(history, domain.Prompt{ID: domain.NewID(), Text: text})
	}
	p.PromptHistory[scene] = history
	s.commitLocked()
}

// MutatePrompt applies a partial update to one prompt by id. No-op when the
// scene or prompt is unknown.
func (s *Store) MutatePrompt(scene, promptID string, patch PromptPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	history := p.PromptHistory[scene]
	for i := range history {
		if history[i].ID != promptID {
			continue
		}
		if patch.Text != nil {
			history[i].Text = *patch.Text
		}
		if patch.MotionPrompt != nil {
			history[i].MotionPrompt = *patch.MotionPrompt
		}
		if patch.SoundEffects != nil {
			history[i].SoundEffects = append([]string(nil), patch.SoundEffects...)
		}
		s.commitLocked()
		return
	}
}

// SelectPrompt marks one prompt selected and deselects every other prompt of
// the scene, keeping at most one selection per scene.
func (s *Store) SelectPrompt(scene, promptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	history, ok := p.PromptHistory[scene]
	if !ok {
		return
	}
	for i := range history {
		history[i].IsSelected = history[i].ID == promptID
	}
	s.commitLocked()
}

// ReorderScenes moves the scene at src to dst in both language sequences.
// History keys are scene text, not position, so the map is untouched.
func (s *Store) ReorderScenes(src, dst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil || src == dst {
		return
	}
	n := len(p.SegmentedScenes.PTBR)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return
	}
	p.SegmentedScenes.PTBR = moveString(p.SegmentedScenes.PTBR, src, dst)
	if len(p.SegmentedScenes.EN) == n {
		p.SegmentedScenes.EN = moveString(p.SegmentedScenes.EN, src, dst)
	}
	s.commitLocked()
}

// ToggleFavorite flips membership of a prompt text in the favorites set.
func (s *Store) ToggleFavorite(text string) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	for i, fav := range p.Favorites {
		if fav == text {
			p.Favorites = append(p.Favorites[:i], p.Favorites[i+1:]...)
			s.toastLocked("Removido dos favoritos.")
			s.commitLocked()
			return
		}
	}
	p.Favorites = append(p.Favorites, text)
	s.toastLocked("Adicionado aos favoritos!")
	s.commitLocked()
}

// ToggleFavoriteStyle flips membership of a style in the favorite-styles
// list, unique by id. Styles are stored by value.
func (s *Store) ToggleFavoriteStyle(style domain.Style) {
	s.mu.Lock()
	defer s.deliverNotices()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	for i, fav := range p.FavoriteStyles {
		if fav.ID == style.ID {
			p.FavoriteStyles = append(p.FavoriteStyles[:i], p.FavoriteStyles[i+1:]...)
			s.toastLocked("Estilo removido dos favoritos.")
			s.commitLocked()
			return
		}
	}
	p.FavoriteStyles = append(p.FavoriteStyles, style.Clone())
	s.toastLocked("Estilo favoritado!")
	s.commitLocked()
}

// ToggleGenerationContext flips membership of a creative guideline in the
// active generation context.
func (s *Store) ToggleGenerationContext(guideline string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	for i, g := range p.GenerationContext {
		if g == guideline {
			p.GenerationContext = append(p.GenerationContext[:i], p.GenerationContext[i+1:]...)
			s.commitLocked()
			return
		}
	}
	p.GenerationContext = append(p.GenerationContext, guideline)
	s.commitLocked()
}

// ScenesNeedingPrompts returns, in scene order, the pt-br scenes whose
// history entry is empty or missing. The batch generate-all run iterates
// exactly this list.
func (s *Store) ScenesNeedingPrompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return nil
	}
	var scenes []string
	for _, scene := range p.SegmentedScenes.PTBR {
		if len(p.PromptHistory[scene]) == 0 {
			scenes = append(scenes, scene)
		}
	}
	return scenes
}

func sceneKnown(p *domain.Project, scene string) bool {
	for _, s := range p.SegmentedScenes.PTBR {
		if s == scene {
			return true
		}
	}
	return false
}

func moveString(seq []string, src, dst int) []string {
	out := append([]string(nil), seq...)
	v := out[src]
	out = append(out[:src], out[src+1:]...)
	out = append(out[:dst], append([]string{v}, out[dst:]...)...)
	return out
}
