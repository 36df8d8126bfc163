// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// =============================================================================
// SOURCE
// =============================================================================

// Source is one retrieval result attached to an assistant message:
// a bounded document excerpt plus relevance metadata. Sources are attached
// atomically when the message is committed, never incrementally.
type Source struct {
	Filename      string     `json:"filename"`
	ChunkText     string     `json:"chunk_text"`
	FullChunkText string     `json:"full_chunk_text,omitempty"`
	Page          *int       `json:"page,omitempty"`
	Score         float64    `json:"score"`
	Confidence    Confidence `json:"confidence,omitempty"`
	DocID         string     `json:"doc_id,omitempty"`
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is one committed conversation turn. Messages are immutable once
// committed; the single sanctioned exception is the edit operation, which
// replaces the content of a user message in place.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Sources        []Source  `json:"sources,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUserMessage creates a locally identified user message, used for the
// optimistic insert performed before the stream request is issued.
func NewUserMessage(conversationID, content string) Message {
	return Message{
		ID:             NewLocalID(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewAssistantMessage creates a committed assistant message. The id should
// be the server-provided message id; callers fall back to NewLocalID only
// when the stream did not carry one.
func NewAssistantMessage(id, conversationID, content string, sources []Source) Message {
	if id == "" {
		id = NewLocalID()
	}
	if sources == nil {
		sources = []Source{}
	}
	return Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        content,
		Sources:        sources,
		CreatedAt:      time.Now().UTC(),
	}
}

// LastMessage returns the most recent message, or nil when the slice is empty.
func LastMessage(msgs []Message) *Message {
	if len(msgs) == 0 {
		return nil
	}
	return &msgs[len(msgs)-1]
}

// LastUserContent returns the content of the most recent user message,
// or "" when there is none.
func LastUserContent(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
