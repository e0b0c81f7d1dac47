/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import "promptforge/internal/domain"

// Chat history operations. A streaming assistant reply is an explicit open
// turn: chunks accumulate into the open turn's single part, and closing the
// turn seals it. Turn boundaries are never inferred from the last message's
// role.

// AppendUserMessage records one user turn. An open model turn, if any, is
// sealed first so the new turn cannot interleave with it.
func (s *Store) AppendUserMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	s.modelTurnOpen = false
	p.ChatHistory = append(p.ChatHistory, domain.ChatMessage{
		Role:  "user",
		Parts: []domain.MessagePart{{Text: text}},
	})
	s.commitLocked()
}

// OpenModelTurn starts a streaming assistant reply with an empty message and
// raises the chatting flag. A previously open turn is sealed.
func (s *Store) OpenModelTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil {
		return
	}
	p.ChatHistory = append(p.ChatHistory, domain.ChatMessage{
		Role:  "model",
		Parts: []domain.MessagePart{{Text: ""}},
	})
	s.modelTurnOpen = true
	s.state.IsChatting = true
}

// AppendModelChunk accumulates one streamed chunk into the open model turn.
// Chunks arriving with no turn open are dropped.
func (s *Store) AppendModelChunk(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil || !s.modelTurnOpen || len(p.ChatHistory) == 0 {
		return
	}
	last := &p.ChatHistory[len(p.ChatHistory)-1]
	if last.Role != "model" || len(last.Parts) == 0 {
		return
	}
	last.Parts[len(last.Parts)-1].Text += chunk
}

// CloseModelTurn seals the open turn, optionally attaching clickable
// creative-guideline suggestions, lowers the chatting flag and commits the
// accumulated reply.
func (s *Store) CloseModelTurn(suggestions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil || !s.modelTurnOpen {
		s.state.IsChatting = false
		return
	}
	if len(suggestions) > 0 && len(p.ChatHistory) > 0 {
		last := &p.ChatHistory[len(p.ChatHistory)-1]
		if last.Role == "model" {
			last.Suggestions = append([]string(nil), suggestions...)
		}
	}
	s.modelTurnOpen = false
	s.state.IsChatting = false
	s.commitLocked()
}

// AbortModelTurn discards an interrupted streaming reply, removing the open
// turn when nothing was accumulated into it.
func (s *Store) AbortModelTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activeLocked()
	if p == nil || !s.modelTurnOpen {
		s.state.IsChatting = false
		return
	}
	if n := len(p.ChatHistory); n > 0 {
		last := p.ChatHistory[n-1]
		if last.Role == "model" && len(last.Parts) == 1 && last.Parts[0].Text == "" {
			p.ChatHistory = p.ChatHistory[:n-1]
		}
	}
	s.modelTurnOpen = false
	s.state.IsChatting = false
	s.commitLocked()
}
