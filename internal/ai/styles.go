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

// DNACosmicoStylePrompt is the fixed aesthetic of the dnacosmico channel.
// Projects on that channel skip style selection entirely and use it as-is.
const DNACosmicoStylePrompt = `na estética de "realismo cinematográfico e surrealismo fantástico". Os visuais devem ser incrivelmente detalhados, hiper-realistas (8K, fotorrealista), mas retratando eventos impossíveis e grandiosos relacionados a teorias da conspiração, civilizações antigas e tecnologia alienígena. Use iluminação dramática, ângulos de câmera épicos e uma paleta de cores rica e saturada para criar um sentimento de admiração e mistério. A composição deve ser de tirar o fôlego, como se fosse uma cena de um blockbuster de ficção científica de alto orçamento.`

// fallbackStylePrompt is used when prompts must be generated with no style
// selected at all.
const fallbackStylePrompt = "cinematic realism, 4k, detailed, dramatic lighting, sharp focus"

// sombrasBaseStyles is the fixed catalog the sombrasdearkive channel adapts
// to each script before proposing anything new.
var sombrasBaseStyles = []domain.Style{
	{
		Name:         "Clone Proibido (SCP)",
		Prompt:       "psychological horror cartoon, SCP-inspired underground facility, giant cloning tank filled with red glowing liquid, inside an ambiguous figure, shadowy government agents observing from behind glass, exaggerated cartoon faces shocked and fearful, arcane symbols on lab walls, eerie saturated dark palette, VHS static, chromatic aberration, graphic novel cinematic panel, unsettling mood of paranoia and forbidden knowledge",
		Tags:         []string{"psychological-horror", "cartoon", "scp", "vhs", "paranoia"},
		IsPredefined: true,
	},
	{
		Name:         "Visitante Noturna",
		Prompt:       "Creepy animated horror illustration, graphic novel cartoon style, a subject standing frozen in a dimly lit location, staring at a terrifying figure, VHS glitch overlay, high contrast shadows, desaturated colors with sickly green tint, unsettling psychological tension, eerie cinematic composition, unsettling details on the creature's face",
		Tags:         []string{"animated-horror", "graphic-novel", "cartoon", "vhs-glitch", "creepy"},
		IsPredefined: true,
	},
	{
		Name:         "Relíquia Biomecânica",
		Prompt:       "Dark graphic novel horror illustration, a surreal dream-like depiction of a sacred object suspended within a futuristic, glowing chamber in a cavernous, subterranean research facility. The object is a complex, biomechanical structure, hinting at manipulated sacred relics. Glitching neon strokes emanate from the chamber, illuminating decaying equipment. Rendered in high-contrast B&W ink, with bold outlines creating a haunting, unsettling psychological tension. sketchy",
		Tags:         []string{"graphic-novel", "b&w", "surreal", "sci-fi", "horror"},
		IsPredefined: true,
	},
	{
		Name:         "Oficina Macabra",
		Prompt:       "Black and white dark cartoon illustration, graphic novel horror style, high contrast, heavy ink shadows, creepy atmosphere. Two characters with exaggerated expressions and glowing eyes, in an eerie workshop full of mechanical parts and old tools. A giant machine looms in the background, unsettling and mysterious. Highly detailed linework, textured shading, psychological horror mood.",
		Tags:         []string{"dark-cartoon", "graphic-novel", "b&w", "horror", "mechanical"},
		IsPredefined: true,
	},
	{
		Name:         "Descoberta Congelada",
		Prompt:       "Dark graphic novel horror illustration, surreal dream-like aesthetic, rendered in high-contrast B&W ink with bold sketchy outlines. Focus on creating a haunting, unsettling psychological tension. A group of distressed 1980s scientists discover an ancient, grotesque form partially unearthed from a jagged crevice in ice. Glitching neon green strokes highlight the frozen, decaying high-tech digging equipment and the ominous contours of the unknown discovery.",
		Tags:         []string{"graphic-novel", "b&w", "horror", "sci-fi", "1980s"},
		IsPredefined: true,
	},
	{
		Name:         "Horror Biomecânico Neon",
		Prompt:       "Dark graphic novel horror illustration, surreal dream-like aesthetic, rendered in high-contrast B&W ink with bold sketchy outlines. Focus on creating a haunting, unsettling psychological tension, with glitching neon strokes for accent lighting on decaying high-tech or biomechanical elements.",
		Tags:         []string{"graphic-novel", "b&w", "neon-glitch", "biomechanical", "horror"},
		IsPredefined: true,
	},
	{
		Name:         "Entidade Ressuscitada",
		Prompt:       "Dark graphic novel horror illustration, surreal dream-like depiction of a complex, biomechanical structure suspended within a futuristic, glowing cryogenic chamber at the heart of a cavernous, subterranean 1980s research facility. Glitching neon strokes of light emanate from the chamber, illuminating high-tech yet decaying scientific equipment. Rendered in high-contrast B&W ink with bold, sketchy outlines, creating a haunting psychological tension that emphasizes the forbidden nature of an attempt to revive an unknown entity.",
		Tags:         []string{"graphic-novel", "b&w", "sci-fi", "horror", "forbidden"},
		IsPredefined: true,
	},
	{
		Name:         "Autópsia Proibida",
		Prompt:       "Disturbing graphic novel illustration, set in a clandestine, stark white medical facility. A heavily cloaked, masked figure performs a grotesque, unsettling procedure on an ambiguous, alien-like being or a non-human biological specimen. Surgical tools glint under sterile, clinical light. The background features blurred, official-looking surveillance monitors showing static or encrypted data. High contrast B&W with sharp, almost painful details. Psychological horror of forbidden science and hidden truths.",
		Tags:         []string{"graphic-novel", "b&w", "medical-horror", "sci-fi", "conspiracy"},
		IsPredefined: true,
	},
	{
		Name:         "Diário do Louco",
		Prompt:       "Hand-drawn, sketch journal horror graphic novel illustration. The scene is depicted as if torn from a madman's sketchbook: a series of quick, frantic charcoal and ink sketches on yellowed, creased paper, documenting a person's escalating psychological breakdown while staring into a mirror. Each small panel shows a subtle but increasingly grotesque distortion of the reflection. Annotations in shaky, handwritten text describe the growing paranoia. The overall composition looks like a page from a forbidden journal. Raw, visceral, deeply personal psychological horror.",
		Tags:         []string{"sketch", "journal", "psychological-horror", "hand-drawn", "charcoal"},
		IsPredefined: true,
	},
}

// channelAesthetic maps a channel to the aesthetic clause woven into style
// and prompt generation.
func channelAesthetic(channel domain.Channel) string {
	switch channel {
	case domain.ChannelSombrasDarkive:
		return `na estética de "terror no estilo de graphic novel, cartoon sombrio e estilizado".`
	case domain.ChannelHQ:
		return `na estética de "histórias em quadrinhos (HQ), com arte de linha ousada, cores vibrantes e um toque cinematográfico".`
	case domain.ChannelBW:
		return `na estética de "preto e branco, com alto contraste, iluminação dramática (film noir), e foco em texturas e sombras".`
	default:
		return DNACosmicoStylePrompt
	}
}

// ChannelDefaultStyle returns the predefined style for channels that skip
// style selection. Only dnacosmico has one.
func (c *Client) ChannelDefaultStyle(channel domain.Channel) (domain.Style, bool) {
	if channel != domain.ChannelDNACosmico {
		return domain.Style{}, false
	}
	return domain.Style{
		ID:           "default-dnacosmico-" + domain.NewID(),
		Name:         "Estilo @dnacosmico",
		Prompt:       DNACosmicoStylePrompt,
		Tags:         []string{"cinematic", "surreal", "hyper-realistic"},
		IsPredefined: true,
	}, true
}

// styleRecord is the wire shape for model-produced styles. Ids are assigned
// locally.
type styleRecord struct {
	Name         string   `json:"name"`
	Prompt       string   `json:"prompt"`
	Tags         []string `json:"tags"`
	IsPredefined bool     `json:"isPredefined"`
	IsExtra      bool     `json:"isExtra"`
}

func toStyles(records []styleRecord) []domain.Style {
	out := make([]domain.Style, len(records))
	for i, r := range records {
		out[i] = domain.Style{
			ID:           domain.NewID(),
			Name:         r.Name,
			Prompt:       r.Prompt,
			Tags:         r.Tags,
			IsPredefined: r.IsPredefined,
			IsExtra:      r.IsExtra,
		}
	}
	return out
}

// firstSentence extracts the opening sentence of the script; style proposals
// are anchored on it rather than the whole text.
func firstSentence(script string) string {
	for i, r := range script {
		if r == '.' || r == '?' || r == '!' {
			return strings.TrimSpace(script[:i+1])
		}
	}
	if len(script) > 200 {
		return strings.TrimSpace(script[:200])
	}
	return strings.TrimSpace(script)
}

// ProposeStyles asks for a shuffled set of style proposals anchored on the
// script's first sentence. The sombrasdearkive channel adapts its fixed base
// catalog and adds newly invented and surprise styles; every other channel
// gets twenty invented proposals, the last five tagged as surprises.
func (c *Client) ProposeStyles(ctx context.Context, script string, channel domain.Channel, brief string) ([]domain.Style, error) {
	aesthetic := channelAesthetic(channel)
	opening := firstSentence(script)

	var prompt string
	if channel == domain.ChannelSombrasDarkive {
		baseJSON, err := json.MarshalIndent(sombrasBaseStyles, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("serializar estilos base: %w", err)
		}
		prompt = fmt.Sprintf(`Sua tarefa é criar 21 propostas de estilo visual para um vídeo, baseadas na PRIMEIRA FRASE DO ROTEIRO: %q.
A estética geral do canal é: %s

As 21 propostas devem ser divididas em três partes:

PARTE 1: ESTILOS FIXOS ADAPTADOS (9 propostas)
Pegue os 9 "Estilos Base" a seguir e ADAPTE seus prompts para incorporar o conteúdo e o tema da PRIMEIRA FRASE DO ROTEIRO. Mantenha os nomes, tags e o campo "isPredefined" originais. O campo "isExtra" DEVE ser 'false'.

Estilos Base:
%s

PARTE 2: NOVOS ESTILOS (7 propostas)
Crie 7 propostas COMPLETAMENTE NOVAS e distintas, também baseadas na primeira frase do roteiro e na estética do canal. Nome criativo em português, prompt detalhado em inglês, 3 a 5 tags em inglês, "isPredefined" 'false', "isExtra" 'false'.

PARTE 3: ESTILOS SURPRESA (5 propostas)
Crie 5 propostas EXTREMAMENTE CRIATIVAS e INOVADORAS que quebrem as convenções mantendo a estética do canal. Nome criativo em português, prompt detalhado em inglês, 3 a 5 tags em inglês, "isPredefined" 'false', "isExtra" 'true'.

Contexto do Roteiro Completo (para referência): %q
Gere o resultado final como um único array JSON contendo todas as 21 propostas, embaralhado.`, opening, aesthetic, baseJSON, script)
	} else {
		prompt = fmt.Sprintf(`Sua tarefa é criar 20 propostas de estilo visual ÚNICAS e distintas. Cada proposta deve ser uma interpretação visual da PRIMEIRA FRASE DO ROTEIRO: %q.
A estética geral do canal é: %s

Para as 15 primeiras propostas: nome criativo em português, prompt de estilo detalhado em inglês, 3 a 5 tags em inglês, "isPredefined" 'false', "isExtra" 'false'. As propostas devem ser bem variadas.

Para as 5 últimas propostas (ESTILOS SURPRESA), EXTREMAMENTE INOVADORAS, que prendam a atenção do espectador mesmo quebrando convenções do canal: "isPredefined" 'false', "isExtra" 'true'.

Contexto do Roteiro Completo (para referência): %q
Gere as 20 propostas em formato de array JSON. O array DEVE ser embaralhado.`, opening, aesthetic, script)
	}
	if brief != "" {
		prompt += fmt.Sprintf("\nMantenha consistência com esta descrição de personagens/mundo: %q", brief)
	}

	var records []styleRecord
	if err := c.completeJSON(ctx, prompt, &records); err != nil {
		return nil, err
	}
	return toStyles(records), nil
}

// StyleVariations produces three nuanced takes on a proposal, spliced into
// the proposal list by the caller.
func (c *Client) StyleVariations(ctx context.Context, base domain.Style) ([]domain.Style, error) {
	baseJSON, err := json.Marshal(map[string]any{
		"name": base.Name, "prompt": base.Prompt, "tags": base.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("serializar estilo: %w", err)
	}
	prompt := fmt.Sprintf(`Gere 3 novas variações da seguinte proposta de estilo. Mantenha o nome e o tema central, mas explore diferentes nuances visuais e artísticas no prompt detalhado em inglês e nas tags. Retorne como um array JSON. Estilo Original: %s`, baseJSON)

	var records []styleRecord
	if err := c.completeJSON(ctx, prompt, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].IsPredefined = false
	}
	return toStyles(records), nil
}

// SingleStyleFromChat turns a free-form chat request into one proposal.
func (c *Client) SingleStyleFromChat(ctx context.Context, request, script string) (domain.Style, error) {
	prompt := fmt.Sprintf(`Um usuário está buscando um estilo visual para um vídeo.
Roteiro do vídeo (para contexto): %q
Pedido do usuário: %q

Crie UMA proposta de estilo visual baseada no pedido e no contexto. Forneça um nome criativo em português, um prompt de estilo detalhado em inglês e 3 a 5 tags em inglês. Retorne um único objeto JSON com as chaves "name", "prompt" e "tags".`, script, request)

	var record styleRecord
	if err := c.completeJSON(ctx, prompt, &record); err != nil {
		return domain.Style{}, err
	}
	record.IsPredefined = false
	return toStyles([]styleRecord{record})[0], nil
}

// MergeStyles synthesizes one combined style from two selections: the model
// fuses the prompt texts, the name is the two names joined with " + " and
// the tags are the de-duplicated union.
func (c *Client) MergeStyles(ctx context.Context, a, b domain.Style) (domain.Style, error) {
	prompt := fmt.Sprintf(`Crie um novo prompt de estilo visual em inglês que mescle de forma coesa e criativa as estéticas dos seguintes prompts:

1. %q
2. %q

O resultado deve ser um único prompt de estilo detalhado. Retorne apenas o texto do prompt mesclado.`, a.Prompt, b.Prompt)

	merged, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.Style{}, err
	}
	return domain.Style{
		ID:     "merged-" + domain.NewID(),
		Name:   a.Name + " + " + b.Name,
		Prompt: unquote(merged),
		Tags:   unionTags(a.Tags, b.Tags),
	}, nil
}

func unionTags(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, tag := range b {
		dup := false
		for _, have := range out {
			if have == tag {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, tag)
		}
	}
	return out
}

// Interface check against the workflow's collaborator contract.
var _ store.Generator = (*Client)(nil)
