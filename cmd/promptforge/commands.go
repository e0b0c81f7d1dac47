/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"promptforge/internal/config"
	"promptforge/internal/domain"
	"promptforge/internal/export"
	"promptforge/internal/orchestrate"
	"promptforge/internal/store"
)

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "projects":
		return a.cmdProjects(args)
	case "script":
		return a.cmdScript(args)
	case "segment":
		return a.cmdSegment(args)
	case "confirm-segmentation":
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		return wf.ConfirmSegmentation(context.Background())
	case "styles":
		return a.cmdStyles(args)
	case "back":
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		wf.Back()
		return nil
	case "generate":
		return a.cmdGenerate(args)
	case "generate-all":
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		return wf.GenerateAll(context.Background())
	case "what-if":
		return a.cmdWhatIf(args)
	case "variations":
		return a.cmdVariations(args)
	case "scene-variation":
		return a.cmdSceneVariation(args)
	case "assets":
		return a.cmdAssets(args)
	case "motion":
		return a.cmdMotion(args, false)
	case "motion-variation":
		return a.cmdMotion(args, true)
	case "sfx":
		return a.cmdSoundEffects(args)
	case "refine":
		return a.cmdRefine(args)
	case "select-prompt":
		return a.cmdSelectPrompt(args)
	case "favorite":
		return a.cmdFavorite(args)
	case "reorder":
		return a.cmdReorder(args)
	case "context":
		if len(args) < 1 {
			return errors.New("context requires <guideline>")
		}
		a.st.ToggleGenerationContext(strings.Join(args, " "))
		return nil
	case "chat":
		return a.cmdChat(args)
	case "analyze":
		return a.cmdAnalyze(args)
	case "social":
		return a.cmdSocial(args)
	case "search":
		return a.cmdSearch(args)
	case "export":
		return a.cmdExport(args)
	case "import":
		return a.cmdImport(args)
	case "settings":
		return a.cmdSettings(args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) activeProject() (*domain.Project, error) {
	p, ok := a.st.ActiveProject()
	if !ok {
		return nil, errors.New("nenhum projeto ativo")
	}
	return p, nil
}

// sceneByNumber resolves a 1-based scene number against the active project.
func (a *app) sceneByNumber(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("número de cena inválido: %q", arg)
	}
	p, err := a.activeProject()
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(p.SegmentedScenes.PTBR) {
		return "", fmt.Errorf("cena %d fora do intervalo 1..%d", n, len(p.SegmentedScenes.PTBR))
	}
	return p.SegmentedScenes.PTBR[n-1], nil
}

// promptByRef resolves a prompt inside a scene's history by id or by its
// 1-based position.
func (a *app) promptByRef(scene, ref string) (domain.Prompt, error) {
	p, err := a.activeProject()
	if err != nil {
		return domain.Prompt{}, err
	}
	history := p.PromptHistory[scene]
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(history) {
			return domain.Prompt{}, fmt.Errorf("prompt %d fora do intervalo 1..%d", n, len(history))
		}
		return history[n-1], nil
	}
	for _, pr := range history {
		if pr.ID == ref {
			return pr, nil
		}
	}
	return domain.Prompt{}, fmt.Errorf("prompt %q não encontrado na cena", ref)
}

func (a *app) cmdProjects(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		a.st.View(func(state *domain.AppState) {
			for id, p := range state.Projects {
				marker := " "
				if id == state.ActiveProjectID {
					marker = "*"
				}
				fmt.Printf("%s %s  %s  (etapa %d, %d cenas)\n",
					marker, id, p.ProjectName, p.Step, len(p.SegmentedScenes.PTBR))
			}
		})
		return nil
	case "create":
		if len(args) < 2 {
			return errors.New("projects create requires <name>")
		}
		id := a.st.CreateProject(strings.Join(args[1:], " "))
		fmt.Println(id)
		return nil
	case "use":
		if len(args) < 2 {
			return errors.New("projects use requires <id>")
		}
		a.st.LoadProject(args[1])
		return nil
	case "rename":
		if len(args) < 3 {
			return errors.New("projects rename requires <id> <name>")
		}
		a.st.RenameProject(args[1], strings.Join(args[2:], " "))
		return nil
	case "duplicate":
		if len(args) < 2 {
			return errors.New("projects duplicate requires <id>")
		}
		fmt.Println(a.st.DuplicateProject(args[1]))
		return nil
	case "delete":
		if len(args) < 2 {
			return errors.New("projects delete requires <id>")
		}
		return a.st.DeleteProject(args[1])
	case "restart":
		a.st.RestartProject()
		return nil
	default:
		return fmt.Errorf("unknown projects subcommand %q", sub)
	}
}

func (a *app) cmdScript(args []string) error {
	if len(args) < 1 {
		return errors.New("script requires a subcommand")
	}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			return errors.New("script set requires <file|->")
		}
		var text []byte
		var err error
		if args[1] == "-" {
			text, err = io.ReadAll(os.Stdin)
		} else {
			text, err = os.ReadFile(args[1])
		}
		if err != nil {
			return fmt.Errorf("ler roteiro: %w", err)
		}
		script := string(text)
		a.st.UpdateProjectFields(store.ProjectPatch{Script: &script})
		return nil
	case "channel":
		if len(args) < 2 {
			return errors.New("script channel requires <channel>")
		}
		ch := domain.Channel(args[1])
		switch ch {
		case domain.ChannelDNACosmico, domain.ChannelSombrasDarkive, domain.ChannelHQ, domain.ChannelBW:
		default:
			return fmt.Errorf("canal desconhecido %q", args[1])
		}
		a.st.UpdateProjectFields(store.ProjectPatch{Channel: &ch})
		return nil
	case "language":
		if len(args) < 2 {
			return errors.New("script language requires <lang>")
		}
		lang := domain.Language(args[1])
		switch lang {
		case domain.LangPTBR, domain.LangEN, domain.LangES:
		default:
			return fmt.Errorf("idioma desconhecido %q", args[1])
		}
		a.st.UpdateProjectFields(store.ProjectPatch{Language: &lang})
		return nil
	case "brief":
		brief := strings.Join(args[1:], " ")
		a.st.UpdateProjectFields(store.ProjectPatch{CharacterBrief: &brief})
		return nil
	case "show":
		p, err := a.activeProject()
		if err != nil {
			return err
		}
		fmt.Printf("%s  (canal %s, etapa %d)\n\n", p.ProjectName, p.Channel, p.Step)
		fmt.Println(p.Script)
		for i, scene := range p.SegmentedScenes.PTBR {
			fmt.Printf("\nCena %d: %s\n", i+1, scene)
			for j, pr := range p.PromptHistory[scene] {
				sel := " "
				if pr.IsSelected {
					sel = "*"
				}
				fmt.Printf("  %s %d [%s] %s\n", sel, j+1, pr.ID, pr.Text)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown script subcommand %q", args[0])
	}
}

func (a *app) cmdSegment(args []string) error {
	cfg := domain.SegmentationConfig{Mode: domain.SegmentationAutomatic}
	var scenesFile string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--mode":
			i++
			if i >= len(args) {
				return errors.New("--mode requires a value")
			}
			cfg.Mode = domain.SegmentationMode(args[i])
		case "--count":
			i++
			if i >= len(args) {
				return errors.New("--count requires a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("--count: %w", err)
			}
			cfg.SceneCount = n
		case "--scenes":
			i++
			if i >= len(args) {
				return errors.New("--scenes requires a file")
			}
			scenesFile = args[i]
		default:
			return fmt.Errorf("unknown segment flag %q", args[i])
		}
	}

	p, err := a.activeProject()
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.Script) == "" && cfg.Mode != domain.SegmentationCustom {
		return errors.New("defina o roteiro antes de segmentar")
	}
	gen, err := a.generator()
	if err != nil {
		return err
	}

	var set domain.SceneSet
	var ok bool
	if cfg.Mode == domain.SegmentationCustom {
		// Custom mode splits user-provided lines locally; only the English
		// mirror goes through the model.
		if scenesFile == "" {
			return errors.New("custom mode requires --scenes <file>")
		}
		raw, err := os.ReadFile(scenesFile)
		if err != nil {
			return fmt.Errorf("ler cenas: %w", err)
		}
		cfg.CustomScenes = string(raw)
		var scenes []string
		for _, line := range strings.Split(string(raw), "\n") {
			if s := strings.TrimSpace(line); s != "" {
				scenes = append(scenes, s)
			}
		}
		if len(scenes) == 0 {
			return errors.New("nenhuma cena no arquivo")
		}
		set, ok = orchestrate.Run(a.runner, context.Background(), "Traduzindo as cenas...",
			func(ctx context.Context) (domain.SceneSet, error) {
				en, err := gen.TranslateScenes(ctx, scenes)
				if err != nil {
					return domain.SceneSet{}, err
				}
				return domain.SceneSet{PTBR: scenes, EN: en}, nil
			})
	} else {
		script := p.Script
		set, ok = orchestrate.Run(a.runner, context.Background(), "Dividindo o roteiro em cenas...",
			func(ctx context.Context) (domain.SceneSet, error) {
				return gen.SegmentScript(ctx, script, cfg)
			})
	}
	if !ok {
		return nil
	}
	a.st.UpdateActive(func(p *domain.Project) {
		p.SegmentationConfig = cfg
		p.SegmentedScenes = set
		p.PromptHistory = map[string][]domain.Prompt{}
	})
	for i, scene := range set.PTBR {
		fmt.Printf("Cena %d: %s\n", i+1, scene)
	}
	return nil
}

func (a *app) cmdStyles(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		p, err := a.activeProject()
		if err != nil {
			return err
		}
		fmt.Println("Propostas:")
		for _, s := range p.StyleProposals {
			fmt.Printf("  [%s] %s  (%s)\n", s.ID, s.Name, strings.Join(s.Tags, ", "))
		}
		fmt.Println("Selecionados:")
		for _, s := range p.SelectedStyles {
			fmt.Printf("  [%s] %s\n", s.ID, s.Name)
		}
		fmt.Println("Favoritos:")
		for _, s := range p.FavoriteStyles {
			fmt.Printf("  [%s] %s\n", s.ID, s.Name)
		}
		return nil
	case "select":
		if len(args) < 2 {
			return errors.New("styles select requires <id>")
		}
		multi := len(args) > 2 && args[2] == "--multi"
		style, err := a.findStyle(args[1])
		if err != nil {
			return err
		}
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		wf.SelectStyle(style, multi)
		return nil
	case "custom":
		if len(args) < 2 {
			return errors.New("styles custom requires <text>")
		}
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		wf.SetCustomStylePrompt(strings.Join(args[1:], " "))
		return nil
	case "confirm":
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		return wf.ConfirmStyle(context.Background())
	case "regenerate":
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		wf.RegenerateStyleProposals(context.Background())
		return nil
	case "variations":
		if len(args) < 2 {
			return errors.New("styles variations requires <id>")
		}
		wf, err := a.workflow()
		if err != nil {
			return err
		}
		wf.GenerateStyleVariations(context.Background(), args[1])
		return nil
	case "favorite":
		if len(args) < 2 {
			return errors.New("styles favorite requires <id>")
		}
		style, err := a.findStyle(args[1])
		if err != nil {
			return err
		}
		a.st.ToggleFavoriteStyle(style)
		return nil
	default:
		return fmt.Errorf("unknown styles subcommand %q", sub)
	}
}

// findStyle looks a style up by id across proposals, selection and
// favorites.
func (a *app) findStyle(id string) (domain.Style, error) {
	p, err := a.activeProject()
	if err != nil {
		return domain.Style{}, err
	}
	for _, list := range [][]domain.Style{p.StyleProposals, p.SelectedStyles, p.FavoriteStyles} {
		for _, s := range list {
			if s.ID == id {
				return s, nil
			}
		}
	}
	return domain.Style{}, fmt.Errorf("estilo %q não encontrado", id)
}

func (a *app) cmdGenerate(args []string) error {
	if len(args) < 1 {
		return errors.New("generate requires <scene>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.GenerateScene(context.Background(), scene); err != nil {
		return nil // surfaced as an inline validation notice
	}
	a.printSceneHistory(scene)
	return nil
}

func (a *app) printSceneHistory(scene string) {
	p, err := a.activeProject()
	if err != nil {
		return
	}
	for i, pr := range p.PromptHistory[scene] {
		sel := " "
		if pr.IsSelected {
			sel = "*"
		}
		fmt.Printf("%s %d [%s] %s\n", sel, i+1, pr.ID, pr.Text)
		if pr.MotionPrompt != "" {
			fmt.Printf("    motion: %s\n", pr.MotionPrompt)
		}
		if len(pr.SoundEffects) > 0 {
			fmt.Printf("    sons: %s\n", strings.Join(pr.SoundEffects, ", "))
		}
	}
}

func (a *app) cmdWhatIf(args []string) error {
	if len(args) < 2 {
		return errors.New("what-if requires <scene> <scenario>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.WhatIf(context.Background(), scene, strings.Join(args[1:], " ")); err != nil {
		return nil
	}
	a.printSceneHistory(scene)
	return nil
}

func (a *app) cmdVariations(args []string) error {
	if len(args) < 2 {
		return errors.New("variations requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	n := 2
	if len(args) > 2 {
		if v, err := strconv.Atoi(args[2]); err == nil && v > 0 {
			n = v
		}
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.GenerateVariations(context.Background(), scene, pr.ID, pr.Text, n); err != nil {
		return nil
	}
	a.printSceneHistory(scene)
	return nil
}

func (a *app) cmdSceneVariation(args []string) error {
	if len(args) < 2 {
		return errors.New("scene-variation requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.GenerateSceneVariation(context.Background(), scene, pr.ID, pr.Text); err != nil {
		return nil
	}
	a.printSceneHistory(scene)
	return nil
}

func (a *app) cmdAssets(args []string) error {
	if len(args) < 2 {
		return errors.New("assets requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.GenerateAssets(context.Background(), scene, pr.ID); err != nil {
		return nil
	}
	a.printSceneHistory(scene)
	return nil
}

func (a *app) cmdMotion(args []string, variation bool) error {
	if len(args) < 2 {
		return errors.New("motion requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if variation {
		err = wf.GenerateMotionVariation(context.Background(), scene, pr.ID, pr.Text, pr.MotionPrompt)
	} else {
		err = wf.GenerateMotion(context.Background(), scene, pr.ID, pr.Text)
	}
	if err != nil {
		return nil
	}
	if fresh, ferr := a.promptByRef(scene, pr.ID); ferr == nil && fresh.MotionPrompt != "" {
		fmt.Println(fresh.MotionPrompt)
	}
	return nil
}

func (a *app) cmdSoundEffects(args []string) error {
	if len(args) < 2 {
		return errors.New("sfx requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.GenerateSoundEffects(context.Background(), scene, pr.ID, pr.Text); err != nil {
		return nil
	}
	if fresh, ferr := a.promptByRef(scene, pr.ID); ferr == nil {
		fmt.Println(strings.Join(fresh.SoundEffects, ", "))
	}
	return nil
}

func (a *app) cmdRefine(args []string) error {
	if len(args) < 3 {
		return errors.New("refine requires <scene> <prompt> <instruction>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	wf, err := a.workflow()
	if err != nil {
		return err
	}
	if err := wf.RefinePrompt(context.Background(), scene, pr.ID, pr.Text, strings.Join(args[2:], " ")); err != nil {
		return nil
	}
	if fresh, ferr := a.promptByRef(scene, pr.ID); ferr == nil {
		fmt.Println(fresh.Text)
	}
	return nil
}

func (a *app) cmdSelectPrompt(args []string) error {
	if len(args) < 2 {
		return errors.New("select-prompt requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	a.st.SelectPrompt(scene, pr.ID)
	return nil
}

func (a *app) cmdFavorite(args []string) error {
	if len(args) < 2 {
		return errors.New("favorite requires <scene> <prompt>")
	}
	scene, err := a.sceneByNumber(args[0])
	if err != nil {
		return err
	}
	pr, err := a.promptByRef(scene, args[1])
	if err != nil {
		return err
	}
	a.st.ToggleFavorite(pr.Text)
	return nil
}

func (a *app) cmdReorder(args []string) error {
	if len(args) < 2 {
		return errors.New("reorder requires <from> <to>")
	}
	from, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	a.st.ReorderScenes(from-1, to-1)
	return nil
}

func (a *app) cmdChat(args []string) error {
	if len(args) < 1 {
		return errors.New("chat requires <message>")
	}
	message := strings.Join(args, " ")
	gen, err := a.generator()
	if err != nil {
		return err
	}
	p, err := a.activeProject()
	if err != nil {
		return err
	}
	history := p.ChatHistory
	personality := a.st.Settings().AssistantPersonality

	a.st.AppendUserMessage(message)
	a.st.OpenModelTurn()
	err = gen.ChatStream(context.Background(), personality, history, message, func(chunk string) {
		fmt.Print(chunk)
		a.st.AppendModelChunk(chunk)
	})
	fmt.Println()
	if err != nil {
		a.st.AbortModelTurn()
		return err
	}
	a.st.CloseModelTurn(nil)
	return nil
}

func (a *app) cmdAnalyze(args []string) error {
	if len(args) < 1 {
		return errors.New("analyze requires strength|viral|twists|serendipity")
	}
	gen, err := a.generator()
	if err != nil {
		return err
	}
	p, err := a.activeProject()
	if err != nil {
		return err
	}
	ctx := context.Background()
	switch args[0] {
	case "strength":
		text, ok := orchestrate.Run(a.runner, ctx, "Analisando a força do roteiro...",
			func(ctx context.Context) (string, error) {
				return gen.AnalyzeScriptStrength(ctx, p.Script)
			})
		if ok {
			fmt.Println(text)
		}
		return nil
	case "viral":
		va, ok := orchestrate.Run(a.runner, ctx, "Analisando potencial viral...",
			func(ctx context.Context) (domain.ViralAnalysis, error) {
				return gen.ViralAnalysis(ctx, p.Script)
			})
		if !ok {
			return nil
		}
		a.st.UpdateActive(func(p *domain.Project) { p.ViralAnalysis = &va })
		fmt.Printf("Nota: %d/100\n%s\n", va.Score, va.Analysis)
		for _, s := range va.Suggestions {
			fmt.Println("-", s)
		}
		return nil
	case "twists":
		twists, ok := orchestrate.Run(a.runner, ctx, "Imaginando reviravoltas...",
			func(ctx context.Context) ([]domain.PlotTwist, error) {
				return gen.PlotTwists(ctx, p.Script)
			})
		if ok {
			for _, tw := range twists {
				fmt.Printf("%s\n  %s\n", tw.Title, tw.Description)
			}
		}
		return nil
	case "serendipity":
		idea, ok := orchestrate.Run(a.runner, ctx, "Buscando uma ideia inesperada...",
			func(ctx context.Context) (string, error) {
				return gen.SerendipityIdea(ctx)
			})
		if ok {
			fmt.Println(idea)
		}
		return nil
	default:
		return fmt.Errorf("unknown analyze subcommand %q", args[0])
	}
}

func (a *app) cmdSocial(args []string) error {
	lang := domain.LangPTBR
	if len(args) > 0 {
		lang = domain.Language(args[0])
		switch lang {
		case domain.LangPTBR, domain.LangEN, domain.LangES:
		default:
			return fmt.Errorf("idioma desconhecido %q", args[0])
		}
	}
	gen, err := a.generator()
	if err != nil {
		return err
	}
	p, err := a.activeProject()
	if err != nil {
		return err
	}
	content, ok := orchestrate.Run(a.runner, context.Background(), "Gerando conteúdo para redes sociais...",
		func(ctx context.Context) (domain.SocialContent, error) {
			return gen.SocialContent(ctx, p.Script, lang)
		})
	if !ok {
		return nil
	}
	a.st.UpdateActive(func(p *domain.Project) {
		p.Caption = content.Caption
		p.Hashtags = append([]string(nil), content.Hashtags...)
		p.MusicSuggestions = append([]string(nil), content.MusicSuggestions...)
	})
	fmt.Println(content.Caption)
	fmt.Println(strings.Join(content.Hashtags, " "))
	for _, m := range content.MusicSuggestions {
		fmt.Println("♪", m)
	}
	return nil
}

func (a *app) cmdSearch(args []string) error {
	if len(args) < 1 {
		return errors.New("search requires <query>")
	}
	if a.index == nil {
		return errors.New("índice de busca indisponível")
	}
	hits, err := a.index.Query(context.Background(), strings.Join(args, " "), 20)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Printf("%s  cena %d  [%s]  %s\n", h.ProjectName, h.SceneIndex+1, h.PromptID, h.Snippet)
	}
	if len(hits) == 0 {
		fmt.Println("Nenhum resultado.")
	}
	return nil
}

func (a *app) cmdExport(args []string) error {
	if len(args) < 1 {
		return errors.New("export requires backup|pdf|stylepack")
	}
	switch args[0] {
	case "backup":
		blob, err := a.st.ExportAll()
		if err != nil {
			return err
		}
		dest := "."
		if len(args) > 1 {
			dest = args[1]
		}
		path, err := export.WriteBackup(dest, blob)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "pdf":
		p, err := a.activeProject()
		if err != nil {
			return err
		}
		out := "storyboard.pdf"
		if len(args) > 1 {
			out = args[1]
		}
		if err := export.StoryboardPDF(p, out); err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	case "stylepack":
		p, err := a.activeProject()
		if err != nil {
			return err
		}
		out := "stylepack.zip"
		if len(args) > 1 {
			out = args[1]
		}
		if err := export.WriteStylePack(out, p.ProjectName, p.FavoriteStyles); err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	default:
		return fmt.Errorf("unknown export subcommand %q", args[0])
	}
}

func (a *app) cmdImport(args []string) error {
	if len(args) < 2 {
		return errors.New("import requires backup|stylepack <path>")
	}
	switch args[0] {
	case "backup":
		blob, err := export.ReadBackup(args[1])
		if err != nil {
			return err
		}
		return a.st.ImportAll(blob)
	case "stylepack":
		styles, err := export.ReadStylePack(args[1])
		if err != nil {
			return err
		}
		added := 0
		a.st.UpdateActive(func(p *domain.Project) {
			p.FavoriteStyles, added = export.MergeStyles(p.FavoriteStyles, styles)
		})
		fmt.Printf("%d estilos adicionados aos favoritos.\n", added)
		return nil
	default:
		return fmt.Errorf("unknown import subcommand %q", args[0])
	}
}

func (a *app) cmdSettings(args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		s := a.st.Settings()
		fmt.Printf("negative:    %s\n", s.NegativePrompt)
		fmt.Printf("suffix:      %s\n", s.GlobalSuffix)
		fmt.Printf("personality: %s\n", s.AssistantPersonality)
		fmt.Printf("model:       %s\n", a.cfg.AI.Model)
		if name, overridden := config.EnvOverrideFor("ai.model"); overridden {
			fmt.Printf("             (overridden by %s)\n", name)
		}
		return nil
	case "set":
		if len(args) < 3 {
			return errors.New("settings set requires <key> <value>")
		}
		s := a.st.Settings()
		value := strings.Join(args[2:], " ")
		switch args[1] {
		case "negative":
			s.NegativePrompt = value
		case "suffix":
			s.GlobalSuffix = value
		case "personality":
			p := domain.Personality(value)
			switch p {
			case domain.PersonalityCreative, domain.PersonalityTechnical, domain.PersonalitySarcastic:
			default:
				return fmt.Errorf("personalidade desconhecida %q", value)
			}
			s.AssistantPersonality = p
		default:
			return fmt.Errorf("unknown settings key %q", args[1])
		}
		a.st.SaveSettings(s)
		return nil
	case "set-key":
		if len(args) < 2 {
			return errors.New("settings set-key requires <api-key>")
		}
		return config.Save(a.cfg, args[1])
	case "forget-key":
		return config.ForgetAPIKey()
	default:
		return fmt.Errorf("unknown settings subcommand %q", sub)
	}
}
