/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"promptforge/internal/domain"
	"promptforge/internal/store"
)

// minAutomaticScenes is the floor for automatic segmentation.
const minAutomaticScenes = 15

// SegmentScript splits the script into aligned pt-br and en scene sequences
// without rewriting the original text. Automatic mode targets at least 15
// scenes guided by punctuation; manual mode asks for an exact count.
func (c *Client) SegmentScript(ctx context.Context, script string, cfg domain.SegmentationConfig) (domain.SceneSet, error) {
	instruction := fmt.Sprintf("Divida o roteiro em pelo menos %d cenas, usando a pontuação (especialmente pontos finais) como guia principal.", minAutomaticScenes)
	if cfg.Mode == domain.SegmentationManual {
		instruction = fmt.Sprintf("Divida o roteiro em exatamente %d cenas.", cfg.SceneCount)
	}

	prompt := fmt.Sprintf(`Sua tarefa é segmentar o roteiro de vídeo a seguir em dois idiomas: Português do Brasil e Inglês.
VOCÊ NÃO DEVE REESCREVER, RESUMIR OU ALTERAR O CONTEÚDO ORIGINAL. Apenas divida o texto existente.
%s
O resultado deve ser um objeto JSON com duas chaves: "pt-br" e "en". Cada chave deve conter um array de strings com as cenas no respectivo idioma.

Roteiro: %q`, instruction, script)

	var scenes domain.SceneSet
	if err := c.completeJSON(ctx, prompt, &scenes); err != nil {
		return domain.SceneSet{}, err
	}
	return scenes, nil
}

// TranslateScenes translates pt-br scenes to English, preserving order.
func (c *Client) TranslateScenes(ctx context.Context, scenes []string) ([]string, error) {
	input, err := json.Marshal(scenes)
	if err != nil {
		return nil, fmt.Errorf("serializar cenas: %w", err)
	}
	prompt := fmt.Sprintf(`Translate the following array of video script scenes from Brazilian Portuguese to English.
Your response MUST be a JSON array of strings, with each string being the translation of the corresponding scene in the input array. Maintain the same order. Do not add any extra explanations or text outside the JSON array.

Input Scenes:
%s`, input)

	var translated []string
	if err := c.completeJSON(ctx, prompt, &translated); err != nil {
		return nil, err
	}
	return translated, nil
}

// suffixClause builds the fixed tail appended to every generated prompt.
func suffixClause(in store.GenerationInput) string {
	negative := ""
	if in.NegativePrompt != "" {
		negative = " --no " + in.NegativePrompt
	}
	return in.GlobalSuffix + negative
}

func consistencyClause(brief string) string {
	if brief == "" {
		return ""
	}
	return fmt.Sprintf("\n- CONSISTÊNCIA DE PERSONAGENS/MUNDO: use a seguinte descrição para manter a consistência: %q", brief)
}

func literalClause(channel domain.Channel) string {
	if channel != domain.ChannelSombrasDarkive {
		return ""
	}
	return "\n- INSTRUÇÃO ESPECIAL: o conteúdo do prompt DEVE ser uma representação VISUAL e LITERAL da cena. Seja extremamente fiel à ação, aos sujeitos e ao ambiente descritos. NÃO adicione elementos que não estejam explicitamente na frase."
}

// PromptsForScene generates three distinct image prompts for one scene: the
// scene supplies the content, the selected style supplies the aesthetics,
// and the global suffix and negative prompt are appended verbatim.
func (c *Client) PromptsForScene(ctx context.Context, in store.GenerationInput) ([]string, error) {
	style := in.Style
	if style == "" {
		style = fallbackStylePrompt
	}
	prompt := fmt.Sprintf(`Sua tarefa é gerar 3 prompts de imagem distintos, criativos e detalhados em INGLÊS.

REGRAS:
- PRIORIDADE 1 (CONTEÚDO): o conteúdo DEVE representar fielmente a "CENA A VISUALIZAR". Use o roteiro completo apenas para entendimento; a imagem retrata SOMENTE a cena atual.
- PRIORIDADE 2 (ESTÉTICA): a estética DEVE seguir o "ESTILO VISUAL". O estilo é um guia estético (paleta, iluminação, atmosfera); não copie sujeitos ou ações do texto do estilo.
- PRIORIDADE 3 (VARIEDADE): as 3 versões devem ter diferenças reais de composição, ângulo de câmera, atmosfera ou foco.

DADOS:
- CENA A VISUALIZAR: %q
- CONTEXTO DO ROTEIRO COMPLETO: %q
- ESTILO VISUAL A SEGUIR: %q%s%s%s

FORMATAÇÃO FINAL:
1. Ao final de CADA um dos 3 prompts, adicione exatamente este sufixo: %q.
2. Retorne os 3 prompts como um array JSON de strings.`,
		in.Scene, in.Script, style,
		consistencyClause(in.CharacterBrief), joinGuidelines(in.Guidelines), literalClause(in.Channel),
		suffixClause(in))

	var prompts []string
	if err := c.completeJSON(ctx, prompt, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// WhatIfPrompts generates three prompts for a hypothetical scenario replacing
// the scene's content while keeping the project's style.
func (c *Client) WhatIfPrompts(ctx context.Context, in store.GenerationInput, scenario string) ([]string, error) {
	style := in.Style
	if style == "" {
		style = fallbackStylePrompt
	}
	prompt := fmt.Sprintf(`Sua tarefa é gerar 3 prompts de imagem distintos, criativos e detalhados em INGLÊS para um cenário hipotético ("e se?").

REGRAS:
- O conteúdo DEVE representar fielmente o "CENÁRIO E SE", NÃO a cena original. Use o restante apenas como contexto.
- A estética DEVE seguir o "ESTILO VISUAL" como guia (paleta, iluminação, atmosfera), sem copiar sujeitos do texto do estilo.
- As 3 versões devem oferecer alternativas visuais claras (composição, ângulo, atmosfera).

DADOS:
- CENÁRIO "E SE" A VISUALIZAR: %q
- CENA ORIGINAL (contexto): %q
- CONTEXTO DO ROTEIRO COMPLETO: %q
- ESTILO VISUAL A SEGUIR: %q%s%s%s

FORMATAÇÃO FINAL:
1. Ao final de CADA um dos 3 prompts, adicione exatamente este sufixo: %q.
2. Retorne os 3 prompts como um array JSON de strings.`,
		scenario, in.Scene, in.Script, style,
		consistencyClause(in.CharacterBrief), joinGuidelines(in.Guidelines), literalClause(in.Channel),
		suffixClause(in))

	var prompts []string
	if err := c.completeJSON(ctx, prompt, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// Variations produces n takes on an existing prompt, varying camera angle,
// composition or lighting while keeping theme and style.
func (c *Client) Variations(ctx context.Context, in store.GenerationInput, base string, n int) ([]string, error) {
	prompt := fmt.Sprintf(`Gere %d novas variações numeradas do seguinte prompt de imagem, mantendo o mesmo tema e estilo, mas alterando detalhes como ângulo da câmera, composição ou iluminação. Retorne como um array JSON de strings. Prompt Original: %q`, n, base)

	var prompts []string
	if err := c.completeJSON(ctx, prompt, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// SceneVariation keeps the subject and style of a prompt but drastically
// changes composition, angle or environment.
func (c *Client) SceneVariation(ctx context.Context, in store.GenerationInput, base string) ([]string, error) {
	prompt := fmt.Sprintf(`Crie uma variação de cena para o prompt de imagem a seguir. Mantenha o sujeito e o estilo principal, mas mude drasticamente a composição, o ângulo da câmera ou o ambiente para criar uma imagem visualmente diferente, mas tematicamente conectada. Retorne como um array JSON de uma única string. Prompt Original: %q`, base)

	var prompts []string
	if err := c.completeJSON(ctx, prompt, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// AssetsForScene isolates the main subject of the scene's prompt into two
// solid-background asset prompts for easy background removal.
func (c *Client) AssetsForScene(ctx context.Context, in store.GenerationInput) ([]string, error) {
	prompt := fmt.Sprintf(`Analise o seguinte prompt de imagem para identificar o personagem ou objeto principal.
Gere 2 novos prompts de imagem que isolem esse sujeito principal.
Cada prompt deve descrever o sujeito em uma pose ligeiramente diferente, com um fundo de cor sólida e contrastante (como 'plain green background' ou 'solid gray background') para facilitar a remoção do fundo.
Mantenha o estilo visual do prompt original.
Retorne o resultado como um array JSON de 2 strings.

Prompt Original: %q`, in.Scene)

	var prompts []string
	if err := c.completeJSON(ctx, prompt, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// MotionPrompt derives an English camera-motion description for animating a
// generated image, capped at 950 characters.
func (c *Client) MotionPrompt(ctx context.Context, promptText string) (string, error) {
	prompt := fmt.Sprintf(`Baseado no prompt de imagem a seguir, crie um prompt de movimento para animar a imagem.
O prompt deve ser descritivo, em INGLÊS, e focar em movimentos que façam sentido para a narrativa (ex: "slow zoom in on the artifact", "camera pans left to reveal a shadow").
O prompt de movimento deve ter no máximo 950 caracteres.
Retorne apenas o texto do prompt de movimento.

Prompt de Imagem: %q`, promptText)

	motion, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(motion), nil
}

// MotionVariation rewrites an existing motion prompt with a different
// dynamic, speed or camera movement.
func (c *Client) MotionVariation(ctx context.Context, promptText, current string) (string, error) {
	prompt := fmt.Sprintf(`Gere uma variação criativa do seguinte prompt de movimento, mantendo o mesmo tema mas alterando a dinâmica, velocidade ou tipo de movimento da câmera.
Retorne apenas o texto do novo prompt de movimento.

Prompt Original: %q`, current)

	motion, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(motion), nil
}

// SoundEffects suggests three to five stock-audio search terms for a prompt.
func (c *Client) SoundEffects(ctx context.Context, promptText string) ([]string, error) {
	prompt := fmt.Sprintf(`Based on the following image prompt, generate 3 to 5 short, descriptive sound effect names in English that would be easily searchable on a stock audio website.
Focus on the main action, atmosphere, and key elements in the prompt.
Examples: "cinematic whoosh", "deep space drone", "creepy ambient horror sound".
Return the result as a JSON array of strings.

Image Prompt: %q`, promptText)

	var sfx []string
	if err := c.completeJSON(ctx, prompt, &sfx); err != nil {
		return nil, err
	}
	return sfx, nil
}

// RefinePrompt rewrites a prompt per the user's modification request and
// returns only the new prompt text.
func (c *Client) RefinePrompt(ctx context.Context, promptText, instruction string) (string, error) {
	prompt := fmt.Sprintf(`Sua tarefa é modificar um prompt de geração de imagem existente com base na solicitação de um usuário.
Retorne APENAS o texto completo do novo prompt, sem explicações ou introduções.
O idioma do prompt resultante deve ser o mesmo do original (provavelmente inglês).

Prompt Original: %q
Solicitação de Modificação: %q`, promptText, instruction)

	refined, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return unquote(refined), nil
}
