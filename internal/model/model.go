// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CHAT MODES
// =============================================================================

// Mode selects the retrieval path used for messages in a conversation.
// It is fixed when the conversation is created.
type Mode string

const (
	// ModeGeneral chats directly with the model, no document retrieval.
	ModeGeneral Mode = "general"

	// ModeWorkspace grounds answers in the documents of a workspace.
	ModeWorkspace Mode = "workspace"
)

// Valid reports whether m is a recognized chat mode.
func (m Mode) Valid() bool {
	return m == ModeGeneral || m == ModeWorkspace
}

// =============================================================================
// WORKSPACE
// =============================================================================

// Workspace is a named container scoping documents and document-grounded
// conversations. Document contents live on the backend; the client only
// tracks identity and display metadata.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is a persisted thread of messages. WorkspaceID is empty for
// general-mode conversations.
type Conversation struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id,omitempty"`
	Title        string    `json:"title"`
	Mode         Mode      `json:"mode"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Pinned       bool      `json:"pinned,omitempty"`
	Folder       string    `json:"folder,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// =============================================================================
// ID GENERATION
// =============================================================================

// NewLocalID generates an identifier for locally created entities
// (optimistic message inserts, commit fallbacks).
func NewLocalID() string {
	return uuid.NewString()
}
