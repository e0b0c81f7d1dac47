/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ai is the generation collaborator: a thin client over any
// OpenAI-compatible completion endpoint that turns scripts, scenes and
// styles into prompt text. Every call retries internally and returns either
// a resolved value or a single failure, never a partial result.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	applog "promptforge/internal/log"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultTimeout    = 120 * time.Second
	defaultMaxRetries = 3
	retryDelay        = 1500 * time.Millisecond
)

// ErrNoAPIKey means the client was constructed without a usable key.
var ErrNoAPIKey = errors.New("chave de API não configurada")

// errExhausted is the user-facing failure after all retries.
var errExhausted = errors.New("Falha na comunicação com o modelo de IA após várias tentativas.")

// ParseFailure reports a model response that was not the JSON shape the
// operation asked for.
type ParseFailure struct {
	Raw string
	Err error
}

func (f *ParseFailure) Error() string {
	return "A IA retornou uma resposta em formato inválido. Por favor, tente novamente."
}

func (f *ParseFailure) Unwrap() error { return f.Err }

// Config parameterizes the client. Zero values fall back to defaults; an
// empty BaseURL targets the OpenAI API directly.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the completion endpoint. Safe for concurrent use.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	log        *slog.Logger
}

// New builds a client from the config.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		log:        applog.WithComponent("ai"),
	}, nil
}

// complete sends one chat completion and returns the raw text, retrying
// transient failures with a fixed delay between attempts.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil && len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
			return resp.Choices[0].Message.Content, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.log.Warn("completion failed",
				slog.Int("attempt", attempt), slog.Any("err", err))
		} else {
			c.log.Warn("empty completion", slog.Int("attempt", attempt))
		}
		if attempt < c.maxRetries {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", errExhausted
}

// completeJSON runs a completion and decodes its (possibly fenced) JSON
// payload into out.
func (c *Client) completeJSON(ctx context.Context, prompt string, out any) error {
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return err
	}
	return decodeJSON(raw, out)
}

// decodeJSON strips a markdown code fence, if any, before unmarshalling.
func decodeJSON(raw string, out any) error {
	cleaned := stripFence(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &ParseFailure{Raw: raw, Err: err}
	}
	return nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// unquote trims surrounding quotes a model sometimes wraps plain-text
// answers in.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

func joinGuidelines(guidelines []string) string {
	if len(guidelines) == 0 {
		return ""
	}
	return fmt.Sprintf("\nDIRETRIZES CRIATIVAS ADICIONAIS:\n- %s", strings.Join(guidelines, "\n- "))
}
