/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"fmt"

	"promptforge/internal/domain"
	"promptforge/internal/orchestrate"
)

// MaxSelectedStyles caps concurrent style selection; two styles get merged
// into one on confirmation.
const MaxSelectedStyles = 2

// GenerationInput is the bundle threaded into every prompt-producing call:
// the scene, the active style text and the process-wide generation knobs.
type GenerationInput struct {
	Scene          string
	Script         string
	Channel        domain.Channel
	Style          string
	NegativePrompt string
	GlobalSuffix   string
	CharacterBrief string
	Guidelines     []string
}

// Generator is the AI collaborator surface the workflow consumes. The ai
// package implements it; tests use stubs.
type Generator interface {
	ProposeStyles(ctx context.Context, script string, channel domain.Channel, brief string) ([]domain.Style, error)
	ChannelDefaultStyle(channel domain.Channel) (domain.Style, bool)
	StyleVariations(ctx context.Context, base domain.Style) ([]domain.Style, error)
	MergeStyles(ctx context.Context, a, b domain.Style) (domain.Style, error)
	PromptsForScene(ctx context.Context, in GenerationInput) ([]string, error)
	WhatIfPrompts(ctx context.Context, in GenerationInput, scenario string) ([]string, error)
	Variations(ctx context.Context, in GenerationInput, base string, n int) ([]string, error)
	SceneVariation(ctx context.Context, in GenerationInput, base string) ([]string, error)
	AssetsForScene(ctx context.Context, in GenerationInput) ([]string, error)
	MotionPrompt(ctx context.Context, promptText string) (string, error)
	MotionVariation(ctx context.Context, promptText, current string) (string, error)
	SoundEffects(ctx context.Context, promptText string) ([]string, error)
	RefinePrompt(ctx context.Context, promptText, instruction string) (string, error)
}

// Workflow drives the three-step pipeline over the store: script and
// segmentation, style selection, per-scene generation. Transitions with a
// missing precondition surface an inline validation error and leave the
// state untouched.
type Workflow struct {
	store  *Store
	runner *orchestrate.Runner
	gen    Generator
}

// NewWorkflow wires the workflow over its collaborators. The runner must
// publish into the same store.
func NewWorkflow(s *Store, r *orchestrate.Runner, gen Generator) *Workflow {
	return &Workflow{store: s, runner: r, gen: gen}
}

// Runner exposes the orchestrator for cancellation wiring.
func (w *Workflow) Runner() *orchestrate.Runner { return w.runner }

func (w *Workflow) fail(msg string) error {
	w.store.ReportError(msg)
	return validationErr(msg)
}

// ConfirmSegmentation advances step 1 to the style step. The dnacosmico
// channel skips straight to step 3 with its predefined style selected;
// otherwise entering step 2 generates style proposals when none exist yet.
func (w *Workflow) ConfirmSegmentation(ctx context.Context) error {
	p, ok := w.store.ActiveProject()
	if !ok {
		return w.fail("Nenhum projeto ativo.")
	}
	if p.Step != domain.StepScript {
		return w.fail("A segmentação já foi confirmada.")
	}
	if len(p.SegmentedScenes.PTBR) == 0 {
		return w.fail("Divida o roteiro em cenas antes de continuar.")
	}

	if p.Channel == domain.ChannelDNACosmico {
		style, found := w.gen.ChannelDefaultStyle(p.Channel)
		if !found {
			return w.fail("Estilo padrão do canal não encontrado.")
		}
		w.store.UpdateActive(func(p *domain.Project) {
			p.SelectedStyles = []domain.Style{style.Clone()}
			p.Step = domain.StepScenes
		})
		return nil
	}

	w.store.UpdateActive(func(p *domain.Project) { p.Step = domain.StepStyle })
	if len(p.StyleProposals) == 0 {
		proposals, ok := orchestrate.Run(w.runner, ctx, "Criando propostas de estilo visual...",
			func(ctx context.Context) ([]domain.Style, error) {
				return w.gen.ProposeStyles(ctx, p.Script, p.Channel, p.CharacterBrief)
			})
		if ok {
			w.store.UpdateActive(func(p *domain.Project) {
				p.StyleProposals = domain.CloneStyles(proposals)
			})
		}
	}
	return nil
}

// ConfirmStyle advances step 2 to step 3. A non-empty custom style prompt is
// promoted to a single ad-hoc style; otherwise one selected style passes
// through and two are merged into one by the collaborator. Merge failure
// keeps the project on step 2 with the error surfaced.
func (w *Workflow) ConfirmStyle(ctx context.Context) error {
	p, ok := w.store.ActiveProject()
	if !ok {
		return w.fail("Nenhum projeto ativo.")
	}
	if p.Step != domain.StepStyle {
		return w.fail("Selecione a segmentação antes dos estilos.")
	}

	if p.CustomStylePrompt != "" {
		custom := domain.Style{
			ID:     domain.NewID(),
			Name:   "Estilo Personalizado",
			Prompt: p.CustomStylePrompt,
			Tags:   []string{},
		}
		w.store.UpdateActive(func(p *domain.Project) {
			p.SelectedStyles = []domain.Style{custom}
			p.CustomStylePrompt = ""
			p.Step = domain.StepScenes
		})
		return nil
	}

	switch n := len(p.SelectedStyles); {
	case n == 0:
		return w.fail("Selecione ao menos um estilo para continuar.")
	case n > MaxSelectedStyles:
		return w.fail("No máximo 2 estilos podem estar selecionados.")
	case n == 1:
		w.store.UpdateActive(func(p *domain.Project) { p.Step = domain.StepScenes })
		return nil
	}

	a, b := p.SelectedStyles[0], p.SelectedStyles[1]
	merged, ok := orchestrate.Run(w.runner, ctx, "Mesclando estilos...",
		func(ctx context.Context) (domain.Style, error) {
			return w.gen.MergeStyles(ctx, a, b)
		})
	if !ok {
		return nil // error (or cancel notice) already surfaced; step stays at 2
	}
	w.store.UpdateActive(func(p *domain.Project) {
		p.SelectedStyles = []domain.Style{merged.Clone()}
		p.Step = domain.StepScenes
	})
	return nil
}

// Back steps the project one stage backwards. Step 1 stays put.
func (w *Workflow) Back() {
	w.store.UpdateActive(func(p *domain.Project) {
		if p.Step > domain.StepScript {
			p.Step--
		}
	})
}

// SelectStyle toggles a style's membership in the selection. Single mode
// replaces the whole selection with the style, or clears it when it was the
// sole selection. Multi mode toggles up to two concurrent selections and
// rejects a third with a notice. Any selection action clears the custom
// style prompt.
func (w *Workflow) SelectStyle(style domain.Style, multi bool) {
	w.store.UpdateActive(func(p *domain.Project) {
		p.CustomStylePrompt = ""
		idx := -1
		for i, sel := range p.SelectedStyles {
			if sel.ID == style.ID {
				idx = i
				break
			}
		}
		if !multi {
			if idx >= 0 && len(p.SelectedStyles) == 1 {
				p.SelectedStyles = []domain.Style{}
			} else {
				p.SelectedStyles = []domain.Style{style.Clone()}
			}
			return
		}
		if idx >= 0 {
			p.SelectedStyles = append(p.SelectedStyles[:idx], p.SelectedStyles[idx+1:]...)
			return
		}
		if len(p.SelectedStyles) >= MaxSelectedStyles {
			w.store.toastLocked("Você pode mesclar no máximo 2 estilos.")
			return
		}
		p.SelectedStyles = append(p.SelectedStyles, style.Clone())
	})
}

// SetCustomStylePrompt records an ad-hoc style description to be promoted on
// confirmation.
func (w *Workflow) SetCustomStylePrompt(text string) {
	w.store.UpdateActive(func(p *domain.Project) { p.CustomStylePrompt = text })
}

// UpdateSelectedStylePrompt edits the prompt text of a selected style. Only
// the prompt is editable after selection.
func (w *Workflow) UpdateSelectedStylePrompt(styleID, prompt string) {
	w.store.UpdateActive(func(p *domain.Project) {
		for i := range p.SelectedStyles {
			if p.SelectedStyles[i].ID == styleID {
				p.SelectedStyles[i].Prompt = prompt
				return
			}
		}
	})
}

// RegenerateStyleProposals replaces the proposal list with a fresh set from
// the collaborator.
func (w *Workflow) RegenerateStyleProposals(ctx context.Context) {
	p, ok := w.store.ActiveProject()
	if !ok {
		return
	}
	proposals, ok := orchestrate.Run(w.runner, ctx, "Criando propostas de estilo visual...",
		func(ctx context.Context) ([]domain.Style, error) {
			return w.gen.ProposeStyles(ctx, p.Script, p.Channel, p.CharacterBrief)
		})
	if ok {
		w.store.UpdateActive(func(p *domain.Project) {
			p.StyleProposals = domain.CloneStyles(proposals)
			p.SelectedStyles = []domain.Style{}
		})
	}
}

// GenerateStyleVariations splices collaborator-produced variations of a
// proposal immediately after it in the proposal list.
func (w *Workflow) GenerateStyleVariations(ctx context.Context, styleID string) {
	p, ok := w.store.ActiveProject()
	if !ok {
		return
	}
	var base *domain.Style
	idx := -1
	for i := range p.StyleProposals {
		if p.StyleProposals[i].ID == styleID {
			base = &p.StyleProposals[i]
			idx = i
			break
		}
	}
	if base == nil {
		return
	}
	variations, ok := orchestrate.Run(w.runner, ctx, "Criando variações do estilo...",
		func(ctx context.Context) ([]domain.Style, error) {
			return w.gen.StyleVariations(ctx, *base)
		})
	if !ok {
		return
	}
	w.store.UpdateActive(func(p *domain.Project) {
		if idx >= len(p.StyleProposals) || p.StyleProposals[idx].ID != styleID {
			return
		}
		next := make([]domain.Style, 0, len(p.StyleProposals)+len(variations))
		next = append(next, p.StyleProposals[:idx+1]...)
		next = append(next, domain.CloneStyles(variations)...)
		next = append(next, p.StyleProposals[idx+1:]...)
		p.StyleProposals = next
	})
}

// generationInput snapshots the per-call bundle for a scene. The style text
// is the first selected style's prompt.
func (w *Workflow) generationInput(scene string) (GenerationInput, error) {
	p, ok := w.store.ActiveProject()
	if !ok {
		return GenerationInput{}, w.fail("Nenhum projeto ativo.")
	}
	if len(p.SelectedStyles) == 0 {
		return GenerationInput{}, w.fail("Selecione um estilo antes de gerar prompts.")
	}
	settings := w.store.Settings()
	return GenerationInput{
		Scene:          scene,
		Script:         p.Script,
		Channel:        p.Channel,
		Style:          p.SelectedStyles[0].Prompt,
		NegativePrompt: settings.NegativePrompt,
		GlobalSuffix:   settings.GlobalSuffix,
		CharacterBrief: p.CharacterBrief,
		Guidelines:     p.GenerationContext,
	}, nil
}

// GenerateScene replaces the scene's history with a fresh generation.
func (w *Workflow) GenerateScene(ctx context.Context, scene string) error {
	in, err := w.generationInput(scene)
	if err != nil {
		return err
	}
	texts, ok := orchestrate.Run(w.runner, ctx, "Gerando prompts para a cena...",
		func(ctx context.Context) ([]string, error) {
			return w.gen.PromptsForScene(ctx, in)
		})
	if ok {
		w.store.RecordGeneration(scene, texts)
	}
	return nil
}

// GenerateAll fills in prompts for every scene currently lacking them, one
// scene at a time, abortable between scenes. Prompts already committed stay
// committed on abort.
func (w *Workflow) GenerateAll(ctx context.Context) error {
	scenes := w.store.ScenesNeedingPrompts()
	if len(scenes) == 0 {
		w.store.Toast("Todas as cenas já possuem prompts.")
		return nil
	}
	if _, err := w.generationInput(scenes[0]); err != nil {
		return err
	}
	orchestrate.RunBatch(w.runner, ctx, scenes,
		func(done, total int) string {
			return fmt.Sprintf("Gerando prompts para a cena %d de %d...", done, total)
		},
		func(ctx context.Context, scene string) error {
			in, err := w.generationInput(scene)
			if err != nil {
				return err
			}
			texts, err := w.gen.PromptsForScene(ctx, in)
			if err != nil {
				return err
			}
			w.store.RecordGeneration(scene, texts)
			return nil
		})
	return nil
}

// WhatIf appends hypothetical-scenario prompts to the end of the scene's
// history without replacing the originals.
func (w *Workflow) WhatIf(ctx context.Context, scene, scenario string) error {
	in, err := w.generationInput(scene)
	if err != nil {
		return err
	}
	texts, ok := orchestrate.Run(w.runner, ctx, "Explorando o cenário alternativo...",
		func(ctx context.Context) ([]string, error) {
			return w.gen.WhatIfPrompts(ctx, in, scenario)
		})
	if ok {
		w.store.AppendAfterAll(scene, texts)
	}
	return nil
}

// GenerateVariations splices n variations of a prompt right after it.
func (w *Workflow) GenerateVariations(ctx context.Context, scene, promptID, promptText string, n int) error {
	in, err := w.generationInput(scene)
	if err != nil {
		return err
	}
	texts, ok := orchestrate.Run(w.runner, ctx, "Criando variações...",
		func(ctx context.Context) ([]string, error) {
			return w.gen.Variations(ctx, in, promptText, n)
		})
	if ok {
		w.store.InsertAfter(scene, promptID, texts, domain.VariationPrompt)
	}
	return nil
}

// GenerateSceneVariation splices an alternate take on the whole scene after
// the anchor prompt.
func (w *Workflow) GenerateSceneVariation(ctx context.Context, scene, promptID, promptText string) error {
	in, err := w.generationInput(scene)
	if err != nil {
		return err
	}
	texts, ok := orchestrate.Run(w.runner, ctx, "Criando variação da cena...",
		func(ctx context.Context) ([]string, error) {
			return w.gen.SceneVariation(ctx, in, promptText)
		})
	if ok {
		w.store.InsertAfter(scene, promptID, texts, domain.VariationScene)
	}
	return nil
}

// GenerateAssets splices isolated-asset prompts for the scene after the
// anchor prompt.
func (w *Workflow) GenerateAssets(ctx context.Context, scene, promptID string) error {
	in, err := w.generationInput(scene)
	if err != nil {
		return err
	}
	texts, ok := orchestrate.Run(w.runner, ctx, "Gerando assets da cena...",
		func(ctx context.Context) ([]string, error) {
			return w.gen.AssetsForScene(ctx, in)
		})
	if ok {
		w.store.InsertAfter(scene, promptID, texts, domain.VariationAsset)
	}
	return nil
}

// GenerateMotion annotates a prompt with a video motion description.
func (w *Workflow) GenerateMotion(ctx context.Context, scene, promptID, promptText string) error {
	motion, ok := orchestrate.Run(w.runner, ctx, "Gerando prompt de movimento...",
		func(ctx context.Context) (string, error) {
			return w.gen.MotionPrompt(ctx, promptText)
		})
	if ok {
		w.store.MutatePrompt(scene, promptID, PromptPatch{MotionPrompt: &motion})
	}
	return nil
}

// GenerateMotionVariation replaces an existing motion annotation with a new
// take.
func (w *Workflow) GenerateMotionVariation(ctx context.Context, scene, promptID, promptText, current string) error {
	motion, ok := orchestrate.Run(w.runner, ctx, "Criando variação de movimento...",
		func(ctx context.Context) (string, error) {
			return w.gen.MotionVariation(ctx, promptText, current)
		})
	if ok {
		w.store.MutatePrompt(scene, promptID, PromptPatch{MotionPrompt: &motion})
	}
	return nil
}

// GenerateSoundEffects annotates a prompt with suggested sound effects.
func (w *Workflow) GenerateSoundEffects(ctx context.Context, scene, promptID, promptText string) error {
	sfx, ok := orchestrate.Run(w.runner, ctx, "Gerando efeitos sonoros...",
		func(ctx context.Context) ([]string, error) {
			return w.gen.SoundEffects(ctx, promptText)
		})
	if ok {
		w.store.MutatePrompt(scene, promptID, PromptPatch{SoundEffects: sfx})
	}
	return nil
}

// RefinePrompt rewrites a prompt's text in place per the user instruction.
func (w *Workflow) RefinePrompt(ctx context.Context, scene, promptID, promptText, instruction string) error {
	refined, ok := orchestrate.Run(w.runner, ctx, "Refinando prompt...",
		func(ctx context.Context) (string, error) {
			return w.gen.RefinePrompt(ctx, promptText, instruction)
		})
	if ok {
		w.store.MutatePrompt(scene, promptID, PromptPatch{Text: &refined})
	}
	return nil
}
