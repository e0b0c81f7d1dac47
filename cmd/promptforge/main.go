/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"promptforge/internal/ai"
	"promptforge/internal/config"
	"promptforge/internal/crash"
	"promptforge/internal/domain"
	applog "promptforge/internal/log"
	"promptforge/internal/orchestrate"
	"promptforge/internal/persist"
	"promptforge/internal/search"
	"promptforge/internal/store"
	"promptforge/internal/version"
)

func usage() {
	fmt.Println("PromptForge — roteiros em prompts de imagem e vídeo")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  promptforge version|-v|--version              Show version")
	fmt.Println("  promptforge projects [list]                   List projects")
	fmt.Println("  promptforge projects create <name>            Create and activate a project")
	fmt.Println("  promptforge projects use <id>                 Switch the active project")
	fmt.Println("  promptforge projects rename <id> <name>       Rename a project")
	fmt.Println("  promptforge projects duplicate <id>           Duplicate a project")
	fmt.Println("  promptforge projects delete <id>              Delete a project")
	fmt.Println("  promptforge projects restart                  Reset the active project's workflow")
	fmt.Println("  promptforge script set <file|->               Load the script from a file or stdin")
	fmt.Println("  promptforge script channel <channel>          Set channel: dnacosmico|sombrasdearkive|hq|bw")
	fmt.Println("  promptforge script language <lang>            Set language: pt-br|en|es")
	fmt.Println("  promptforge script brief <text>               Set the character/world consistency brief")
	fmt.Println("  promptforge script show                       Print the active script and scenes")
	fmt.Println("  promptforge segment [--mode m] [--count n] [--scenes file]")
	fmt.Println("  promptforge confirm-segmentation              Advance to the style step")
	fmt.Println("  promptforge styles [list]                     List style proposals and selection")
	fmt.Println("  promptforge styles select <id> [--multi]      Toggle a style selection")
	fmt.Println("  promptforge styles custom <text>              Set an ad-hoc style description")
	fmt.Println("  promptforge styles confirm                    Confirm selection (merges two styles)")
	fmt.Println("  promptforge styles regenerate                 Regenerate style proposals")
	fmt.Println("  promptforge styles variations <id>            Generate variations of a proposal")
	fmt.Println("  promptforge styles favorite <id>              Toggle a style as favorite")
	fmt.Println("  promptforge back                              Step the workflow backwards")
	fmt.Println("  promptforge generate <scene>                  Generate prompts for scene number <scene>")
	fmt.Println("  promptforge generate-all                      Generate prompts for scenes lacking them")
	fmt.Println("  promptforge what-if <scene> <scenario>        Explore an alternate scenario")
	fmt.Println("  promptforge variations <scene> <prompt> [n]   Generate prompt variations")
	fmt.Println("  promptforge scene-variation <scene> <prompt>  Alternate take on the whole scene")
	fmt.Println("  promptforge assets <scene> <prompt>           Isolated asset prompts for the scene")
	fmt.Println("  promptforge motion <scene> <prompt>           Generate a motion prompt")
	fmt.Println("  promptforge motion-variation <scene> <prompt> New take on the motion prompt")
	fmt.Println("  promptforge sfx <scene> <prompt>              Suggest sound effects")
	fmt.Println("  promptforge refine <scene> <prompt> <how>     Rewrite a prompt per instruction")
	fmt.Println("  promptforge select-prompt <scene> <prompt>    Mark a prompt as the scene's pick")
	fmt.Println("  promptforge favorite <scene> <prompt>         Toggle a prompt text as favorite")
	fmt.Println("  promptforge reorder <from> <to>               Move a scene to a new position")
	fmt.Println("  promptforge chat <message>                    Talk to the creative copilot")
	fmt.Println("  promptforge analyze strength|viral|twists|serendipity")
	fmt.Println("  promptforge social [pt-br|en|es]              Caption, hashtags and music ideas")
	fmt.Println("  promptforge search <query>                    Full-text search over generated prompts")
	fmt.Println("  promptforge export backup|pdf|stylepack [path]")
	fmt.Println("  promptforge import backup|stylepack <path>")
	fmt.Println("  promptforge settings [show]                   Show settings")
	fmt.Println("  promptforge settings set <key> <value>        negative|suffix|personality")
	fmt.Println("  promptforge settings forget-key               Remove the AI API key from the keyring")
}

// app bundles the wired collaborators behind the subcommands.
type app struct {
	cfg     config.AppConfig
	apiKey  string
	dataDir string
	st      *store.Store
	runner  *orchestrate.Runner
	index   *search.Index
	gen     *ai.Client
	wf      *store.Workflow
	log     *slog.Logger
}

func main() {
	cfg, apiKey, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")

	args := os.Args
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("PromptForge")
			fmt.Println(version.String())
			return
		case "help", "--help", "-h":
			usage()
			return
		}
	}
	if len(args) < 2 {
		usage()
		return
	}

	dataDir := cfg.General.DataDir
	if dataDir == "" {
		dataDir, err = persist.DefaultDir()
		if err != nil {
			l.Error("resolve data dir failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	}
	kv, err := persist.NewFileKV(dataDir)
	if err != nil {
		l.Error("open data dir failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	st := store.Open(kv, confirmOnTerminal)
	defer crash.Recover(st, dataDir)
	st.OnNotify(func(kind, message string) {
		if kind == store.NoticeError {
			fmt.Fprintln(os.Stderr, "Erro:", message)
			return
		}
		fmt.Println(message)
	})

	a := &app{cfg: cfg, apiKey: apiKey, dataDir: dataDir, st: st, log: l}
	a.runner = orchestrate.NewRunner(st)

	// The index is derived state; running without it only disables search.
	if ix, err := search.Open(dataDir); err != nil {
		l.Warn("search index unavailable", slog.Any("err", err))
	} else {
		a.index = ix
		defer func() { _ = ix.Close() }()
		st.OnCommit(func(state *domain.AppState) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ix.Reindex(ctx, state); err != nil {
				l.Warn("prompt reindex failed", slog.Any("err", err))
			}
		})
	}

	// Ctrl+C aborts the in-flight generation instead of killing the process.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for range sig {
			a.runner.Cancel()
		}
	}()

	l.Debug("start", slog.String("cmd", args[1]), slog.Int("args", len(args)))
	if err := a.dispatch(args[1], args[2:]); err != nil {
		a.flushNotices()
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	a.flushNotices()
}

// generator builds the AI client and workflow on first use so commands that
// never touch the model work without an API key.
func (a *app) generator() (*ai.Client, error) {
	if a.gen != nil {
		return a.gen, nil
	}
	c, err := ai.New(ai.Config{
		APIKey:     a.apiKey,
		BaseURL:    a.cfg.AI.BaseURL,
		Model:      a.cfg.AI.Model,
		Timeout:    time.Duration(a.cfg.AI.TimeoutMs) * time.Millisecond,
		MaxRetries: a.cfg.AI.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	a.gen = c
	a.wf = store.NewWorkflow(a.st, a.runner, c)
	return c, nil
}

// workflow wires the step machine over the AI client.
func (a *app) workflow() (*store.Workflow, error) {
	if _, err := a.generator(); err != nil {
		return nil, err
	}
	return a.wf, nil
}

// flushNotices clears the sticky error and toast once they have been shown.
// Printing happens in the OnNotify hook as each notice is raised.
func (a *app) flushNotices() {
	a.st.DismissError()
	a.st.ClearToast()
}

// confirmOnTerminal asks a yes/no question on the controlling terminal.
func confirmOnTerminal(question string) bool {
	fmt.Printf("%s [s/N] ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}
