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
	"fmt"
	"strings"

	"promptforge/internal/domain"
)

// SocialContent generates a caption, five TikTok hashtags and three music
// suggestions for the script in the project's language.
func (c *Client) SocialContent(ctx context.Context, script string, lang domain.Language) (domain.SocialContent, error) {
	names := map[domain.Language]string{
		domain.LangPTBR: "Português do Brasil",
		domain.LangEN:   "Inglês",
		domain.LangES:   "Espanhol",
	}
	name, ok := names[lang]
	if !ok {
		name = names[domain.LangPTBR]
	}
	prompt := fmt.Sprintf(`Baseado no seguinte roteiro de vídeo, gere o seguinte conteúdo para mídias sociais no idioma %s:
1. Uma legenda curta e envolvente para o vídeo.
2. Exatamente 5 hashtags pontuais e otimizadas para a barra de pesquisa do TikTok.
3. Exatamente 3 sugestões de músicas (formato: "Nome da Música - Artista") que estejam em alta no TikTok.

O resultado deve ser um objeto JSON com as chaves "caption", "hashtags" e "musicSuggestions".

Roteiro: %q`, name, script)

	var content domain.SocialContent
	if err := c.completeJSON(ctx, prompt, &content); err != nil {
		return domain.SocialContent{}, err
	}
	return content, nil
}

// AnalyzeScriptStrength returns a free-text "script doctor" review focused
// on visual execution, never on rewriting the story.
func (c *Client) AnalyzeScriptStrength(ctx context.Context, script string) (string, error) {
	prompt := fmt.Sprintf(`Você é um "Script Doctor", um analista de roteiros profissional e premiado. Analise o roteiro a seguir e forneça feedback construtivo.

IMPORTANTE: seu feedback NÃO deve sugerir mudanças no texto ou na história. Foque em como a EXECUÇÃO VISUAL pode fortalecer a narrativa existente.

Roteiro para Análise:
%q

Analise sob uma ótica VISUAL:
1. Estrutura e Ritmo Visual: onde a edição poderia ser mais rápida ou mais lenta para criar impacto?
2. Clareza e Impacto Visual: quais são os momentos de maior potencial para alto impacto visual?
3. Originalidade Visual: como representar este roteiro de forma única e memorável?
4. Pontos de Melhoria Visual: 1 a 2 sugestões específicas de enquadramento, iluminação ou estilo.

Seja direto, honesto e encorajador. Retorne sua análise como texto simples (markdown é aceitável).`, script)

	analysis, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(analysis), nil
}

// ViralAnalysis scores the script's viral potential and suggests visual and
// stylistic guidelines, which the user can adopt into the generation
// context.
func (c *Client) ViralAnalysis(ctx context.Context, script string) (domain.ViralAnalysis, error) {
	prompt := fmt.Sprintf(`Você é um especialista em viralização de conteúdo em plataformas como TikTok e YouTube Shorts.
Analise o roteiro a seguir e forneça uma análise de potencial viral.

Roteiro: %q

Sua resposta DEVE ser um objeto JSON com:
- "score": um número de 0 a 100 representando o potencial viral.
- "analysis": uma análise curta e direta (2-3 frases) explicando a pontuação.
- "suggestions": um array com 2 ou 3 sugestões VISUAIS e ESTILÍSTICAS para aumentar o potencial viral, como diretrizes para a criação de prompts. Elas NÃO DEVEM sugerir mudanças na história.`, script)

	var analysis domain.ViralAnalysis
	if err := c.completeJSON(ctx, prompt, &analysis); err != nil {
		return domain.ViralAnalysis{}, err
	}
	return analysis, nil
}

// PlotTwists proposes three visual twists: changes in how the story is
// shown, not in the story itself.
func (c *Client) PlotTwists(ctx context.Context, script string) ([]domain.PlotTwist, error) {
	prompt := fmt.Sprintf(`Você é um "Mestre de Roteiros" com uma mente para reviravoltas chocantes.
Analise o roteiro a seguir e gere 3 reviravoltas (plot twists) VISUAIS inesperadas.
IMPORTANTE: não mude a história. As reviravoltas devem ser sobre a forma como a história é mostrada.

Roteiro para Análise:
%q

Para cada reviravolta visual, forneça um título curto e impactante em português e uma breve descrição de como ela funcionaria visualmente.
O resultado DEVE ser um array JSON de objetos com as chaves "title" e "description".`, script)

	var twists []domain.PlotTwist
	if err := c.completeJSON(ctx, prompt, &twists); err != nil {
		return nil, err
	}
	return twists, nil
}

// SerendipityIdea returns one short, random, surreal creative constraint.
func (c *Client) SerendipityIdea(ctx context.Context) (string, error) {
	prompt := `Gere uma única restrição criativa, aleatória e surreal para uma cena de vídeo, em português e com no máximo 10 palavras.
Exemplos: "a gravidade é invertida", "tudo é feito de vidro", "o tempo anda para trás".
Retorne APENAS o texto da restrição, nada mais.`

	idea, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return unquote(idea), nil
}
