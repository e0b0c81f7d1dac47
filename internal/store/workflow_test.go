package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"promptforge/internal/domain"
	"promptforge/internal/orchestrate"
)

// stubGenerator satisfies Generator with canned results; individual fields
// override the defaults per test.
type stubGenerator struct {
	proposals    []domain.Style
	defaultStyle *domain.Style
	mergeErr     error
	promptsErr   error
	promptCalls  int
}

func (g *stubGenerator) ProposeStyles(ctx context.Context, script string, channel domain.Channel, brief string) ([]domain.Style, error) {
	return domain.CloneStyles(g.proposals), nil
}

func (g *stubGenerator) ChannelDefaultStyle(channel domain.Channel) (domain.Style, bool) {
	if g.defaultStyle == nil {
		return domain.Style{}, false
	}
	return g.defaultStyle.Clone(), true
}

func (g *stubGenerator) StyleVariations(ctx context.Context, base domain.Style) ([]domain.Style, error) {
	return []domain.Style{
		{ID: domain.NewID(), Name: base.Name + " (var)", Prompt: base.Prompt, Tags: base.Tags},
	}, nil
}

func (g *stubGenerator) MergeStyles(ctx context.Context, a, b domain.Style) (domain.Style, error) {
	if g.mergeErr != nil {
		return domain.Style{}, g.mergeErr
	}
	tags := append([]string(nil), a.Tags...)
	for _, t := range b.Tags {
		seen := false
		for _, have := range tags {
			if have == t {
				seen = true
				break
			}
		}
		if !seen {
			tags = append(tags, t)
		}
	}
	return domain.Style{
		ID:     "merged-" + domain.NewID(),
		Name:   a.Name + " + " + b.Name,
		Prompt: a.Prompt + ", " + b.Prompt,
		Tags:   tags,
	}, nil
}

func (g *stubGenerator) PromptsForScene(ctx context.Context, in GenerationInput) ([]string, error) {
	g.promptCalls++
	if g.promptsErr != nil {
		return nil, g.promptsErr
	}
	return []string{fmt.Sprintf("prompt para %s", in.Scene)}, nil
}

func (g *stubGenerator) WhatIfPrompts(ctx context.Context, in GenerationInput, scenario string) ([]string, error) {
	return []string{"e se: " + scenario}, nil
}

func (g *stubGenerator) Variations(ctx context.Context, in GenerationInput, base string, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("variação %d de %s", i+1, base)
	}
	return out, nil
}

func (g *stubGenerator) SceneVariation(ctx context.Context, in GenerationInput, base string) ([]string, error) {
	return []string{"cena alternativa"}, nil
}

func (g *stubGenerator) AssetsForScene(ctx context.Context, in GenerationInput) ([]string, error) {
	return []string{"asset isolado"}, nil
}

func (g *stubGenerator) MotionPrompt(ctx context.Context, promptText string) (string, error) {
	return "câmera lenta", nil
}

func (g *stubGenerator) MotionVariation(ctx context.Context, promptText, current string) (string, error) {
	return "zoom brusco", nil
}

func (g *stubGenerator) SoundEffects(ctx context.Context, promptText string) ([]string, error) {
	return []string{"trovão"}, nil
}

func (g *stubGenerator) RefinePrompt(ctx context.Context, promptText, instruction string) (string, error) {
	return promptText + " refinado", nil
}

func newTestWorkflow(t *testing.T, gen Generator) (*Workflow, *Store) {
	t.Helper()
	s := newTestStore(t)
	w := NewWorkflow(s, orchestrate.NewRunner(s), gen)
	return w, s
}

func selectStyleForGeneration(s *Store) {
	s.UpdateActive(func(p *domain.Project) {
		p.Step = domain.StepScenes
		p.SelectedStyles = []domain.Style{{ID: "st", Name: "Noir", Prompt: "film noir"}}
	})
}

func TestConfirmSegmentationRequiresScenes(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	err := w.ConfirmSegmentation(context.Background())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if p := activeProject(t, s); p.Step != domain.StepScript {
		t.Fatalf("step changed on failed precondition: %d", p.Step)
	}
}

func TestConfirmSegmentationGeneratesProposals(t *testing.T) {
	gen := &stubGenerator{proposals: []domain.Style{
		{ID: "p1", Name: "Aquarela", Prompt: "watercolor"},
	}}
	w, s := newTestWorkflow(t, gen)
	s.UpdateActive(func(p *domain.Project) {
		p.SegmentedScenes = domain.SceneSet{PTBR: []string{"cena"}, EN: []string{"scene"}}
	})
	if err := w.ConfirmSegmentation(context.Background()); err != nil {
		t.Fatalf("ConfirmSegmentation: %v", err)
	}
	p := activeProject(t, s)
	if p.Step != domain.StepStyle {
		t.Fatalf("step = %d, want 2", p.Step)
	}
	if len(p.StyleProposals) != 1 || p.StyleProposals[0].Name != "Aquarela" {
		t.Fatalf("proposals = %+v", p.StyleProposals)
	}
}

func TestConfirmSegmentationDNACosmicoSkipsToStep3(t *testing.T) {
	def := domain.Style{ID: "dna", Name: "DNA Cósmico", Prompt: "cosmic", IsPredefined: true}
	w, s := newTestWorkflow(t, &stubGenerator{defaultStyle: &def})
	s.UpdateActive(func(p *domain.Project) {
		p.Channel = domain.ChannelDNACosmico
		p.SegmentedScenes = domain.SceneSet{PTBR: []string{"cena"}, EN: []string{}}
	})
	if err := w.ConfirmSegmentation(context.Background()); err != nil {
		t.Fatalf("ConfirmSegmentation: %v", err)
	}
	p := activeProject(t, s)
	if p.Step != domain.StepScenes {
		t.Fatalf("step = %d, want 3", p.Step)
	}
	if len(p.SelectedStyles) != 1 || p.SelectedStyles[0].ID != "dna" {
		t.Fatalf("selected = %+v", p.SelectedStyles)
	}
	if len(p.StyleProposals) != 0 {
		t.Fatalf("dnacosmico must not generate proposals")
	}
}

func TestConfirmStyleRequiresSelection(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	s.UpdateActive(func(p *domain.Project) { p.Step = domain.StepStyle })
	err := w.ConfirmStyle(context.Background())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if p := activeProject(t, s); p.Step != domain.StepStyle {
		t.Fatalf("step = %d, want 2", p.Step)
	}
}

func TestConfirmStylePromotesCustomPrompt(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	s.UpdateActive(func(p *domain.Project) {
		p.Step = domain.StepStyle
		p.CustomStylePrompt = "pintura a óleo, pinceladas grossas"
	})
	if err := w.ConfirmStyle(context.Background()); err != nil {
		t.Fatalf("ConfirmStyle: %v", err)
	}
	p := activeProject(t, s)
	if p.Step != domain.StepScenes || p.CustomStylePrompt != "" {
		t.Fatalf("step=%d custom=%q", p.Step, p.CustomStylePrompt)
	}
	if len(p.SelectedStyles) != 1 || p.SelectedStyles[0].Prompt != "pintura a óleo, pinceladas grossas" {
		t.Fatalf("selected = %+v", p.SelectedStyles)
	}
}

func TestConfirmStyleMergesTwoSelections(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	s.UpdateActive(func(p *domain.Project) {
		p.Step = domain.StepStyle
		p.SelectedStyles = []domain.Style{
			{ID: "x", Name: "Noir", Prompt: "noir", Tags: []string{"dark", "film"}},
			{ID: "y", Name: "Neon", Prompt: "neon", Tags: []string{"film", "bright"}},
		}
	})
	if err := w.ConfirmStyle(context.Background()); err != nil {
		t.Fatalf("ConfirmStyle: %v", err)
	}
	p := activeProject(t, s)
	if p.Step != domain.StepScenes {
		t.Fatalf("step = %d, want 3", p.Step)
	}
	if len(p.SelectedStyles) != 1 {
		t.Fatalf("selected = %+v", p.SelectedStyles)
	}
	merged := p.SelectedStyles[0]
	if merged.Name != "Noir + Neon" {
		t.Fatalf("merged name = %q", merged.Name)
	}
	if !reflect.DeepEqual(merged.Tags, []string{"dark", "film", "bright"}) {
		t.Fatalf("merged tags = %v", merged.Tags)
	}
}

func TestConfirmStyleMergeFailureStaysOnStep2(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{mergeErr: errors.New("falha ao mesclar")})
	s.UpdateActive(func(p *domain.Project) {
		p.Step = domain.StepStyle
		p.SelectedStyles = []domain.Style{{ID: "x", Name: "A"}, {ID: "y", Name: "B"}}
	})
	if err := w.ConfirmStyle(context.Background()); err != nil {
		t.Fatalf("ConfirmStyle: %v", err)
	}
	p := activeProject(t, s)
	if p.Step != domain.StepStyle || len(p.SelectedStyles) != 2 {
		t.Fatalf("merge failure mutated state: step=%d selected=%d", p.Step, len(p.SelectedStyles))
	}
	var errMsg string
	s.View(func(st *domain.AppState) { errMsg = st.Error })
	if errMsg != "falha ao mesclar" {
		t.Fatalf("error = %q", errMsg)
	}
}

func TestConfirmStyleRevalidatesSelectionCap(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	s.UpdateActive(func(p *domain.Project) {
		p.Step = domain.StepStyle
		p.SelectedStyles = []domain.Style{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	})
	err := w.ConfirmStyle(context.Background())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if p := activeProject(t, s); p.Step != domain.StepStyle {
		t.Fatalf("step = %d, want 2", p.Step)
	}
}

func TestBackSteps(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	s.UpdateActive(func(p *domain.Project) { p.Step = domain.StepScenes })
	w.Back()
	if p := activeProject(t, s); p.Step != domain.StepStyle {
		t.Fatalf("step = %d, want 2", p.Step)
	}
	w.Back()
	w.Back() // floor at step 1
	if p := activeProject(t, s); p.Step != domain.StepScript {
		t.Fatalf("step = %d, want 1", p.Step)
	}
}

func TestSelectStyleSingleMode(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	a := domain.Style{ID: "a", Name: "A"}
	b := domain.Style{ID: "b", Name: "B"}

	w.SelectStyle(a, false)
	w.SelectStyle(b, false)
	p := activeProject(t, s)
	if len(p.SelectedStyles) != 1 || p.SelectedStyles[0].ID != "b" {
		t.Fatalf("single mode must replace: %+v", p.SelectedStyles)
	}

	w.SelectStyle(b, false) // sole selection toggles off
	if p := activeProject(t, s); len(p.SelectedStyles) != 0 {
		t.Fatalf("sole selection not cleared: %+v", p.SelectedStyles)
	}
}

func TestSelectStyleMultiModeCapsAtTwo(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	var notices []string
	s.OnNotify(func(kind, message string) {
		if kind == NoticeToast {
			notices = append(notices, message)
		}
	})
	w.SelectStyle(domain.Style{ID: "a"}, true)
	w.SelectStyle(domain.Style{ID: "b"}, true)
	w.SelectStyle(domain.Style{ID: "c"}, true)

	p := activeProject(t, s)
	if len(p.SelectedStyles) != 2 {
		t.Fatalf("selected = %+v", p.SelectedStyles)
	}
	var toast string
	s.View(func(st *domain.AppState) { toast = st.Toast })
	if toast != "Você pode mesclar no máximo 2 estilos." {
		t.Fatalf("toast = %q", toast)
	}
	// The rejection must reach a registered notifier, not just the state.
	if len(notices) != 1 || notices[0] != "Você pode mesclar no máximo 2 estilos." {
		t.Fatalf("notices = %v", notices)
	}
}

func TestSelectStyleClearsCustomPrompt(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	w.SetCustomStylePrompt("custom")
	w.SelectStyle(domain.Style{ID: "a"}, false)
	if p := activeProject(t, s); p.CustomStylePrompt != "" {
		t.Fatalf("custom prompt survived selection: %q", p.CustomStylePrompt)
	}
}

func TestGenerateSceneRecordsHistory(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	withScenes(s, "Cena 1")
	selectStyleForGeneration(s)
	if err := w.GenerateScene(context.Background(), "Cena 1"); err != nil {
		t.Fatalf("GenerateScene: %v", err)
	}
	history := activeProject(t, s).PromptHistory["Cena 1"]
	if len(history) != 1 || history[0].Text != "prompt para Cena 1" {
		t.Fatalf("history = %+v", history)
	}
}

func TestGenerateSceneWithoutStyleFails(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	withScenes(s, "Cena 1")
	err := w.GenerateScene(context.Background(), "Cena 1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if history := activeProject(t, s).PromptHistory["Cena 1"]; len(history) != 0 {
		t.Fatalf("history written despite validation failure")
	}
}

func TestGenerateAllFillsOnlyMissingScenes(t *testing.T) {
	gen := &stubGenerator{}
	w, s := newTestWorkflow(t, gen)
	withScenes(s, "a", "b", "c")
	selectStyleForGeneration(s)
	s.RecordGeneration("b", []string{"já existe"})

	if err := w.GenerateAll(context.Background()); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if gen.promptCalls != 2 {
		t.Fatalf("generator called %d times, want 2", gen.promptCalls)
	}
	p := activeProject(t, s)
	if p.PromptHistory["b"][0].Text != "já existe" {
		t.Fatalf("existing history replaced: %+v", p.PromptHistory["b"])
	}
	if len(p.PromptHistory["a"]) != 1 || len(p.PromptHistory["c"]) != 1 {
		t.Fatalf("missing scenes not filled: %v", p.PromptHistory)
	}
}

func TestGenerateAllErrorRetainsPartialHistory(t *testing.T) {
	gen := &stubGenerator{}
	w, s := newTestWorkflow(t, gen)
	withScenes(s, "a", "b", "c")
	selectStyleForGeneration(s)

	// Fail from the second call onwards.
	gen.promptsErr = nil
	callGate := 0
	inner := gen
	wrapped := &gateGenerator{Generator: inner, failAfter: 1, calls: &callGate}
	w = NewWorkflow(s, orchestrate.NewRunner(s), wrapped)

	if err := w.GenerateAll(context.Background()); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	p := activeProject(t, s)
	if len(p.PromptHistory["a"]) != 1 {
		t.Fatalf("committed result lost on later failure")
	}
	if len(p.PromptHistory["b"]) != 0 || len(p.PromptHistory["c"]) != 0 {
		t.Fatalf("batch continued past the failure: %v", p.PromptHistory)
	}
	var errMsg string
	s.View(func(st *domain.AppState) { errMsg = st.Error })
	if errMsg == "" {
		t.Fatalf("batch failure not surfaced")
	}
}

// gateGenerator fails PromptsForScene after the first n successful calls.
type gateGenerator struct {
	Generator
	failAfter int
	calls     *int
}

func (g *gateGenerator) PromptsForScene(ctx context.Context, in GenerationInput) ([]string, error) {
	*g.calls++
	if *g.calls > g.failAfter {
		return nil, errors.New("falha na comunicação com o modelo")
	}
	return g.Generator.PromptsForScene(ctx, in)
}

func TestWhatIfAppendsToEnd(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	withScenes(s, "Cena 1")
	selectStyleForGeneration(s)
	s.RecordGeneration("Cena 1", []string{"original"})

	if err := w.WhatIf(context.Background(), "Cena 1", "e se chovesse?"); err != nil {
		t.Fatalf("WhatIf: %v", err)
	}
	history := activeProject(t, s).PromptHistory["Cena 1"]
	if len(history) != 2 || history[1].Text != "e se: e se chovesse?" {
		t.Fatalf("history = %+v", history)
	}
}

func TestGenerateVariationsSplicesAfterAnchor(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	withScenes(s, "Cena 1")
	selectStyleForGeneration(s)
	s.RecordGeneration("Cena 1", []string{"A", "B"})
	anchor := activeProject(t, s).PromptHistory["Cena 1"][0]

	if err := w.GenerateVariations(context.Background(), "Cena 1", anchor.ID, anchor.Text, 2); err != nil {
		t.Fatalf("GenerateVariations: %v", err)
	}
	history := activeProject(t, s).PromptHistory["Cena 1"]
	if len(history) != 4 || history[1].VariationType != domain.VariationPrompt {
		t.Fatalf("history = %+v", history)
	}
}

func TestGenerateMotionAnnotatesPrompt(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	withScenes(s, "Cena 1")
	selectStyleForGeneration(s)
	s.RecordGeneration("Cena 1", []string{"A"})
	id := activeProject(t, s).PromptHistory["Cena 1"][0].ID

	if err := w.GenerateMotion(context.Background(), "Cena 1", id, "A"); err != nil {
		t.Fatalf("GenerateMotion: %v", err)
	}
	if got := activeProject(t, s).PromptHistory["Cena 1"][0].MotionPrompt; got != "câmera lenta" {
		t.Fatalf("motion = %q", got)
	}
}

func TestRefinePromptRewritesText(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	withScenes(s, "Cena 1")
	selectStyleForGeneration(s)
	s.RecordGeneration("Cena 1", []string{"A"})
	id := activeProject(t, s).PromptHistory["Cena 1"][0].ID

	if err := w.RefinePrompt(context.Background(), "Cena 1", id, "A", "mais dramático"); err != nil {
		t.Fatalf("RefinePrompt: %v", err)
	}
	if got := activeProject(t, s).PromptHistory["Cena 1"][0].Text; got != "A refinado" {
		t.Fatalf("text = %q", got)
	}
}

func TestGenerateStyleVariationsSplices(t *testing.T) {
	w, s := newTestWorkflow(t, &stubGenerator{})
	s.UpdateActive(func(p *domain.Project) {
		p.Step = domain.StepStyle
		p.StyleProposals = []domain.Style{
			{ID: "s1", Name: "Noir", Prompt: "noir"},
			{ID: "s2", Name: "Neon", Prompt: "neon"},
		}
	})
	w.GenerateStyleVariations(context.Background(), "s1")
	p := activeProject(t, s)
	if len(p.StyleProposals) != 3 {
		t.Fatalf("proposals = %+v", p.StyleProposals)
	}
	if p.StyleProposals[1].Name != "Noir (var)" || p.StyleProposals[2].ID != "s2" {
		t.Fatalf("variation not spliced after base: %+v", p.StyleProposals)
	}
}
