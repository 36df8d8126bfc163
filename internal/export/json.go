// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to a JSON document.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// jsonDocument is the top-level export shape.
type jsonDocument struct {
	Title       string          `json:"title"`
	Mode        model.Mode      `json:"mode"`
	WorkspaceID string          `json:"workspace_id,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	ExportedAt  time.Time       `json:"exported_at"`
	Generator   string          `json:"generator"`
	Messages    []jsonMessage   `json:"messages"`
}

type jsonMessage struct {
	ID         string           `json:"id"`
	Role       model.Role       `json:"role"`
	Content    string           `json:"content"`
	Sources    []model.Source   `json:"sources,omitempty"`
	Confidence model.Confidence `json:"confidence,omitempty"`
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv *model.Conversation, msgs []model.Message) ([]byte, error) {
	if err := validate(conv, msgs); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Title:       conv.Title,
		Mode:        conv.Mode,
		WorkspaceID: conv.WorkspaceID,
		ExportedAt:  time.Now().UTC(),
		Generator:   "workbench-tui",
	}
	if !conv.CreatedAt.IsZero() {
		t := conv.CreatedAt
		doc.CreatedAt = &t
	}

	for _, m := range msgs {
		jm := jsonMessage{
			ID:      m.ID,
			Role:    m.Role,
			Content: m.Content,
		}
		if e.options.IncludeSources && len(m.Sources) > 0 {
			jm.Sources = m.Sources
			jm.Confidence = model.AggregateConfidence(m.Sources)
		}
		doc.Messages = append(doc.Messages, jm)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode conversation: %w", err)
	}
	return data, nil
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }
