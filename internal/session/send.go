// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// SEND
// =============================================================================

// Send runs one full send cycle: optimistic local user insert, one stream
// request, event folding, and commit of the finalized assistant message.
//
// onEvent, when non-nil, observes every stream event in receipt order;
// it is intended for progressive display and must not mutate the store.
//
// Blank input and concurrent sends are rejected before any I/O. When no
// conversation is selected one is created first, with the mode taken from
// the active settings. The optimistic user message is never retracted: a
// later transport or stream failure is reported separately and the user's
// own words stay in history.
func (s *Store) Send(ctx context.Context, content string, onEvent func(api.StreamEvent)) error {
	if err := s.begin(); err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		s.release()
		return ErrEmptyMessage
	}

	conv, err := s.ensureConversation(ctx)
	if err != nil {
		s.fail(err)
		return err
	}

	return s.sendCycle(ctx, conv, content, true, onEvent)
}

// ensureConversation returns the selected conversation, creating and
// selecting one when none is active. Caller must hold the streaming slot.
func (s *Store) ensureConversation(ctx context.Context) (model.Conversation, error) {
	s.mu.Lock()
	if s.current != nil {
		conv := *s.current
		s.mu.Unlock()
		return conv, nil
	}
	settings := s.settings
	s.mu.Unlock()

	req := api.CreateConversationRequest{
		Title:        "New Chat",
		Mode:         settings.Mode,
		SystemPrompt: settings.SystemPrompt,
	}
	if settings.Mode == model.ModeWorkspace {
		req.WorkspaceID = settings.WorkspaceID
	}

	created, err := s.backend.CreateConversation(ctx, req)
	if err != nil {
		return model.Conversation{}, err
	}

	s.mu.Lock()
	s.conversations = append([]model.Conversation{*created}, s.conversations...)
	s.current = created
	s.messages = nil
	s.mu.Unlock()

	s.logger.Debug("conversation created", zap.String("id", created.ID), zap.String("mode", string(created.Mode)))
	return *created, nil
}

// sendCycle is the shared tail of send, edit, and regenerate. The caller
// must already hold the streaming slot. When appendUser is false the user
// turn already exists in history (edit) and is not re-inserted.
func (s *Store) sendCycle(ctx context.Context, conv model.Conversation, content string, appendUser bool, onEvent func(api.StreamEvent)) error {
	if appendUser {
		userMsg := model.NewUserMessage(conv.ID, content)
		s.mu.Lock()
		s.messages = append(s.messages, userMsg)
		s.mu.Unlock()
	}

	req := api.SendRequest{
		ConversationID: conv.ID,
		Message:        content,
		Mode:           conv.Mode,
	}

	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	req.Model = settings.Model
	req.Temperature = settings.Temperature
	req.SystemPrompt = settings.SystemPrompt
	req.RetrievalStrategy = settings.RetrievalStrategy
	req.UseRecursiveRetrieval = settings.RecursiveRetrieval
	if conv.Mode == model.ModeWorkspace {
		req.WorkspaceID = conv.WorkspaceID
		if req.WorkspaceID == "" {
			req.WorkspaceID = settings.WorkspaceID
		}
	}

	stream, err := s.backend.Send(ctx, req)
	if err != nil {
		s.fail(err)
		return err
	}
	defer stream.Close()

	s.setState(StateStreaming)

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			if err == io.EOF {
				err = api.ErrStreamClosed
			}
			s.fail(err)
			return err
		}

		if onEvent != nil {
			onEvent(ev)
		}

		switch ev.Kind {
		case api.EventChunk:
			// Strict receipt order: append only, no deduplication.
			s.mu.Lock()
			s.buffer.WriteString(ev.Content)
			s.mu.Unlock()

		case api.EventError:
			streamErr := &api.ClientError{Type: api.ErrTypeStream, Message: ev.Content}
			s.fail(streamErr)
			s.logger.Debug("stream error", zap.String("conversation", conv.ID), zap.String("message", ev.Content))
			return streamErr

		case api.EventDone:
			s.commit(conv.ID, ev)
			// Titles may have changed server-side (auto-titling); refresh
			// is best-effort and never blocks or fails the send.
			s.refreshConversations(ctx)
			return nil
		}
	}
}

// commit turns the accumulated buffer into one immutable assistant message
// with the sources attached atomically, then clears the buffer.
func (s *Store) commit(conversationID string, ev api.StreamEvent) {
	s.mu.Lock()
	s.state = StateCommitting
	msg := model.NewAssistantMessage(ev.MessageID, conversationID, s.buffer.String(), ev.Sources)
	s.messages = append(s.messages, msg)
	s.buffer.Reset()
	s.streaming = false
	s.state = StateIdle
	s.mu.Unlock()

	s.logger.Debug("message committed",
		zap.String("conversation", conversationID),
		zap.String("message", msg.ID),
		zap.Int("sources", len(msg.Sources)))
}

// release gives the streaming slot back after a synchronous rejection that
// never reached the transport.
func (s *Store) release() {
	s.mu.Lock()
	s.streaming = false
	s.state = StateIdle
	s.mu.Unlock()
}

// refreshConversations reloads the conversation list, preserving the
// current selection. Errors are logged and dropped.
func (s *Store) refreshConversations(ctx context.Context) {
	convs, err := s.backend.ListConversations(ctx, "")
	if err != nil {
		s.logger.Debug("conversation refresh failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.conversations = convs
	if s.current != nil {
		for i := range convs {
			if convs[i].ID == s.current.ID {
				conv := convs[i]
				s.current = &conv
				break
			}
		}
	}
	s.mu.Unlock()
}

// RefreshConversations reloads the conversation list from the backend.
func (s *Store) RefreshConversations(ctx context.Context) error {
	convs, err := s.backend.ListConversations(ctx, "")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conversations = convs
	s.mu.Unlock()
	return nil
}
