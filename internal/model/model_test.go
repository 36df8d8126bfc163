// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("conv-1", "Hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", msg.Content)
	}
	if msg.ConversationID != "conv-1" {
		t.Errorf("ConversationID = %q, want 'conv-1'", msg.ConversationID)
	}
	if msg.ID == "" {
		t.Error("expected a locally generated id")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage("m1", "conv-1", "Hi there", nil)

	if msg.ID != "m1" {
		t.Errorf("ID = %q, want 'm1' (server id is authoritative)", msg.ID)
	}
	if msg.Sources == nil || len(msg.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil list", msg.Sources)
	}

	fallback := NewAssistantMessage("", "conv-1", "Hi", nil)
	if fallback.ID == "" {
		t.Error("expected a local fallback id when the server omits one")
	}
}

func TestLastMessageHelpers(t *testing.T) {
	if LastMessage(nil) != nil {
		t.Error("LastMessage(nil) should be nil")
	}
	msgs := []Message{
		NewUserMessage("c", "first"),
		NewAssistantMessage("a1", "c", "answer", nil),
	}
	last := LastMessage(msgs)
	if last == nil || last.ID != "a1" {
		t.Fatalf("LastMessage = %+v, want assistant a1", last)
	}
	if got := LastUserContent(msgs); got != "first" {
		t.Errorf("LastUserContent = %q, want 'first'", got)
	}
	if got := LastUserContent(nil); got != "" {
		t.Errorf("LastUserContent(nil) = %q, want empty", got)
	}
}

func TestModeValid(t *testing.T) {
	if !ModeGeneral.Valid() || !ModeWorkspace.Valid() {
		t.Error("built-in modes must be valid")
	}
	if Mode("cloud").Valid() {
		t.Error("unrecognized mode must be invalid")
	}
}
