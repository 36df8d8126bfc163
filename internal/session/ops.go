// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// EDIT
// =============================================================================

// Edit replaces the content of an existing user message ("the user said
// this instead") and runs a fresh send cycle with the edited content. The
// edited message itself plays the user turn, so the cycle does not insert
// a second user message. Messages that followed the original are not
// truncated.
func (s *Store) Edit(ctx context.Context, messageID, content string, onEvent func(api.StreamEvent)) error {
	if err := s.begin(); err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		s.release()
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		s.release()
		return ErrNoConversation
	}
	conv := *s.current

	idx := -1
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		s.release()
		return ErrMessageNotFound
	}
	if s.messages[idx].Role != model.RoleUser {
		s.mu.Unlock()
		s.release()
		return ErrNotUserMessage
	}
	s.mu.Unlock()

	if _, err := s.backend.EditMessage(ctx, messageID, content); err != nil {
		s.fail(err)
		return err
	}

	// The sanctioned in-place mutation, then a best-effort list refresh.
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].Content = content
			break
		}
	}
	s.mu.Unlock()
	if msgs, err := s.backend.Messages(ctx, conv.ID); err == nil {
		s.mu.Lock()
		s.messages = msgs
		s.mu.Unlock()
	}

	s.logger.Debug("message edited", zap.String("message", messageID))
	return s.sendCycle(ctx, conv, content, false, onEvent)
}

// =============================================================================
// REGENERATE
// =============================================================================

// Regenerate discards the trailing assistant message and produces a new
// answer for the user turn that preceded it. The delete is server-
// authoritative; its response recovers the user content, which is resent
// through a fresh send cycle.
func (s *Store) Regenerate(ctx context.Context, onEvent func(api.StreamEvent)) error {
	if err := s.begin(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		s.release()
		return ErrNoConversation
	}
	conv := *s.current

	last := model.LastMessage(s.messages)
	if last == nil || last.Role != model.RoleAssistant {
		s.mu.Unlock()
		s.release()
		return ErrNoAssistantReply
	}
	lastID := last.ID

	// The user turn to recover must exist before any I/O happens.
	localContent := model.LastUserContent(s.messages[:len(s.messages)-1])
	if localContent == "" {
		s.mu.Unlock()
		s.release()
		return ErrNoAssistantReply
	}
	s.mu.Unlock()

	res, err := s.backend.DeleteMessage(ctx, lastID)
	if err != nil {
		s.fail(err)
		return err
	}
	content := res.PreviousUserContent
	if content == "" {
		content = localContent
	}

	// The backend removed the assistant message and its preceding user
	// turn; mirror that locally. The send cycle re-inserts the user turn,
	// so the content survives exactly once even if the resend fails.
	s.mu.Lock()
	s.messages = s.messages[:len(s.messages)-1]
	if last := model.LastMessage(s.messages); last != nil && last.Role == model.RoleUser {
		s.messages = s.messages[:len(s.messages)-1]
	}
	s.mu.Unlock()

	s.logger.Debug("regenerating", zap.String("conversation", conv.ID), zap.String("deleted", lastID))
	return s.sendCycle(ctx, conv, content, true, onEvent)
}

// =============================================================================
// SELECTION
// =============================================================================

// SelectConversation makes a conversation current and loads its history.
func (s *Store) SelectConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return ErrBusy
	}
	var found *model.Conversation
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			conv := s.conversations[i]
			found = &conv
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return ErrNoConversation
	}

	msgs, err := s.backend.Messages(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = found
	s.messages = msgs
	s.lastErr = nil
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

// NewConversation creates a conversation with the active settings and
// selects it.
func (s *Store) NewConversation(ctx context.Context, title string) (*model.Conversation, error) {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	settings := s.settings
	s.mu.Unlock()

	if title == "" {
		title = "New Chat"
	}
	req := api.CreateConversationRequest{
		Title:        title,
		Mode:         settings.Mode,
		SystemPrompt: settings.SystemPrompt,
	}
	if settings.Mode == model.ModeWorkspace {
		req.WorkspaceID = settings.WorkspaceID
	}

	created, err := s.backend.CreateConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conversations = append([]model.Conversation{*created}, s.conversations...)
	s.current = created
	s.messages = nil
	s.lastErr = nil
	s.state = StateIdle
	s.mu.Unlock()
	return created, nil
}

// Deselect clears the current conversation; the next send creates a new
// one from the active settings.
func (s *Store) Deselect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return ErrBusy
	}
	s.current = nil
	s.messages = nil
	s.lastErr = nil
	s.state = StateIdle
	return nil
}
