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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"promptforge/internal/domain"
)

// systemInstruction selects the assistant's voice. All personalities advise
// on visual execution only and never rewrite the script.
func systemInstruction(p domain.Personality) string {
	switch p {
	case domain.PersonalityTechnical:
		return "Você é um assistente técnico, direto ao ponto. Sua especialidade é a engenharia de prompts. Analise o roteiro do usuário e forneça diretrizes visuais e estilísticas precisas e concisas para a geração de imagens. Evite opiniões sobre a narrativa."
	case domain.PersonalitySarcastic:
		return "Você é um diretor de arte cínico e sarcástico. Seu humor é seco. Analise o roteiro e aponte, com ironia, as oportunidades visuais que o usuário está perdendo. Suas sugestões, apesar de sarcásticas, devem ser diretrizes de prompt visualmente poderosas. Você não se importa com a história, apenas com a imagem."
	default:
		return `Você é um "Copiloto Criativo", um especialista em transformar roteiros em narrativas visuais. Sua função é analisar o roteiro fornecido para extrair o máximo potencial visual, sugerindo diretrizes de estilo, enquadramento, ritmo e composição para a geração dos prompts de imagem. Você NUNCA sugere alterações no texto do roteiro; em vez disso, você oferece ideias sobre COMO representar visualmente a história existente da maneira mais impactante possível.`
	}
}

// ChatStream sends one user message against the conversation history and
// streams the assistant's reply chunk by chunk through onChunk. The caller
// owns turn bookkeeping; a bumped chat version simply means the caller
// passes a fresh history.
func (c *Client) ChatStream(ctx context.Context, personality domain.Personality, history []domain.ChatMessage, message string, onChunk func(chunk string)) error {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction(personality),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.Role == "user" {
			role = openai.ChatMessageRoleUser
		}
		var text strings.Builder
		for _, part := range m.Parts {
			text.WriteString(part.Text)
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: text.String()})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("iniciar conversa: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receber resposta: %w", err)
		}
		if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
			onChunk(resp.Choices[0].Delta.Content)
		}
	}
}
