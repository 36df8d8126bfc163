// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/session"
)

// =============================================================================
// FAKES
// =============================================================================

type scriptedStream struct {
	events []api.StreamEvent
	i      int
}

func (s *scriptedStream) Next(ctx context.Context) (api.StreamEvent, error) {
	if s.i >= len(s.events) {
		return api.StreamEvent{}, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

func (s *scriptedStream) Close() error { return nil }

// scriptedBackend serves one conversation and a fixed stream per send.
type scriptedBackend struct {
	events []api.StreamEvent
}

func (b *scriptedBackend) Send(ctx context.Context, req api.SendRequest) (session.EventSource, error) {
	return &scriptedStream{events: b.events}, nil
}

func (b *scriptedBackend) ListConversations(ctx context.Context, workspaceID string) ([]model.Conversation, error) {
	return nil, nil
}

func (b *scriptedBackend) CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error) {
	return &model.Conversation{ID: "c1", Title: req.Title, Mode: req.Mode}, nil
}

func (b *scriptedBackend) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return nil, nil
}

func (b *scriptedBackend) EditMessage(ctx context.Context, messageID, content string) (*model.Message, error) {
	return nil, nil
}

func (b *scriptedBackend) DeleteMessage(ctx context.Context, messageID string) (*api.DeleteMessageResult, error) {
	return nil, nil
}

func testModel(t *testing.T, backend session.Backend) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.UI.Markdown = false
	store := session.NewStore(backend, nil)
	m := New(cfg, nil, store, nil, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// Once the terminal event commits the assistant message, the in-flight
// partial text must not render alongside it while the trailing
// conversation refresh is still running.
func TestDoneEventDropsPartialText(t *testing.T) {
	reply := "final answer text"
	backend := &scriptedBackend{events: []api.StreamEvent{
		{Kind: api.EventChunk, Content: reply},
		{Kind: api.EventDone, MessageID: "m1"},
	}}
	m := testModel(t, backend)

	// Run the send cycle to completion; the store now holds the
	// committed assistant message.
	if err := m.store.Send(context.Background(), "question", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The update loop is still mid-stream from its point of view: the
	// done event has been received but streamFinishedMsg has not.
	m.streaming = true
	m.partial = reply

	m.handleStreamEvent(api.StreamEvent{Kind: api.EventDone, MessageID: "m1"})

	if m.partial != "" {
		t.Errorf("partial = %q, want cleared on the terminal event", m.partial)
	}
	if got := strings.Count(m.viewport.View(), reply); got != 1 {
		t.Errorf("reply rendered %d times, want exactly once", got)
	}
}
