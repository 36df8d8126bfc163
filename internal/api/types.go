// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"strings"

	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// CHAT REQUESTS
// =============================================================================

// SendRequest is the body of one streaming send. One request opens exactly
// one stream; there is no retry at this layer.
type SendRequest struct {
	ConversationID        string     `json:"conversation_id"`
	Message               string     `json:"message"`
	Mode                  model.Mode `json:"mode"`
	WorkspaceID           string     `json:"workspace_id,omitempty"`
	Model                 string     `json:"model,omitempty"`
	Temperature           *float64   `json:"temperature,omitempty"`
	SystemPrompt          string     `json:"system_prompt,omitempty"`
	RetrievalStrategy     string     `json:"retrieval_strategy,omitempty"`
	UseRecursiveRetrieval bool       `json:"use_recursive_retrieval,omitempty"`
}

// Retrieval strategies accepted by the backend.
const (
	StrategyVector       = "vector"
	StrategyBM25         = "bm25"
	StrategyHybrid       = "hybrid"
	StrategyHybridRerank = "hybrid_rerank"
)

// KnownStrategy reports whether s names a retrieval strategy the backend
// understands. The empty string means "backend default".
func KnownStrategy(s string) bool {
	switch s {
	case "", StrategyVector, StrategyBM25, StrategyHybrid, StrategyHybridRerank:
		return true
	}
	return false
}

// =============================================================================
// RETRIEVAL METADATA
// =============================================================================

// ConfidenceBreakdown counts sources per confidence class.
type ConfidenceBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// RetrievalMetadata describes the retrieval pass behind a done event.
type RetrievalMetadata struct {
	Strategy            string               `json:"strategy,omitempty"`
	TotalResults        int                  `json:"total_results,omitempty"`
	ConfidenceBreakdown *ConfidenceBreakdown `json:"confidence_breakdown,omitempty"`
}

// =============================================================================
// CONVERSATION REQUESTS
// =============================================================================

// CreateConversationRequest creates a conversation. Mode is fixed at
// creation and decides the retrieval path for all messages sent in it.
type CreateConversationRequest struct {
	WorkspaceID  string     `json:"workspace_id,omitempty"`
	Title        string     `json:"title"`
	Mode         model.Mode `json:"mode"`
	SystemPrompt string     `json:"system_prompt,omitempty"`
}

// UpdateConversationRequest updates display metadata. Nil fields are left
// unchanged by the backend.
type UpdateConversationRequest struct {
	Title        *string   `json:"title,omitempty"`
	SystemPrompt *string   `json:"system_prompt,omitempty"`
	Pinned       *bool     `json:"pinned,omitempty"`
	Folder       *string   `json:"folder,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}

// DeleteMessageResult is the response of the delete-for-regenerate call.
// PreviousUserContent carries the content of the user message that
// preceded the deleted assistant message; the backend removes both so the
// follow-up send does not duplicate the user turn.
type DeleteMessageResult struct {
	Deleted             bool   `json:"deleted"`
	PreviousUserContent string `json:"previous_user_content"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// Document is backend-side ingestion state for one uploaded file.
type Document struct {
	ID           string `json:"id"`
	WorkspaceID  string `json:"workspace_id"`
	Filename     string `json:"filename"`
	FileSize     int64  `json:"file_size"`
	ChunkCount   int    `json:"chunk_count"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the backend's effective configuration.
type Settings struct {
	ChatModel      string  `json:"chat_model"`
	EmbeddingModel string  `json:"embedding_model"`
	Temperature    float64 `json:"temperature"`
	TopK           int     `json:"top_k"`
	ContextWindow  int     `json:"context_window"`
	ChunkSize      int     `json:"chunk_size"`
	ChunkOverlap   int     `json:"chunk_overlap"`
	DataDir        string  `json:"data_dir"`
}

// SettingsUpdate carries partial settings changes; nil fields are kept.
type SettingsUpdate struct {
	ChatModel      *string  `json:"chat_model,omitempty"`
	EmbeddingModel *string  `json:"embedding_model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TopK           *int     `json:"top_k,omitempty"`
	ContextWindow  *int     `json:"context_window,omitempty"`
	ChunkSize      *int     `json:"chunk_size,omitempty"`
	ChunkOverlap   *int     `json:"chunk_overlap,omitempty"`
	DataDir        *string  `json:"data_dir,omitempty"`
}

// =============================================================================
// PROMPT TEMPLATES
// =============================================================================

// Template is a reusable prompt with {{variable}} placeholders.
type Template struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	IsBuiltin bool     `json:"is_builtin"`
	Variables []string `json:"variables"`
}

// Render substitutes {{variable}} placeholders with the given values.
// Unbound variables stay in place so the gap is visible to the user.
func (t Template) Render(vars map[string]string) string {
	out := t.Content
	for _, name := range t.Variables {
		if val, ok := vars[name]; ok {
			out = strings.ReplaceAll(out, "{{"+name+"}}", val)
		}
	}
	return out
}

// CreateTemplateRequest creates a user template.
type CreateTemplateRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// =============================================================================
// ENGINE PROXY
// =============================================================================

// EngineModel describes one model available to the inference engine.
type EngineModel struct {
	Name          string `json:"name"`
	Size          int64  `json:"size,omitempty"`
	ParameterSize string `json:"parameter_size,omitempty"`
	Quantization  string `json:"quantization,omitempty"`
}

// EngineStatus reports whether the inference engine behind the backend is
// up and which models it serves.
type EngineStatus struct {
	Running bool          `json:"running"`
	Models  []EngineModel `json:"models"`
	Error   string        `json:"error,omitempty"`
}
