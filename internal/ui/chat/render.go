// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderer turns messages into styled viewport content. Assistant
// markdown goes through glamour; user and system messages render plain.
type renderer struct {
	theme    *styles.Theme
	markdown bool
	width    int
	glam     *glamour.TermRenderer
}

func newRenderer(theme *styles.Theme, markdown bool) *renderer {
	return &renderer{theme: theme, markdown: markdown}
}

// setWidth rebuilds the glamour renderer when the wrap width changes.
func (r *renderer) setWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.glam = nil
	if !r.markdown || width < 20 {
		return
	}
	g, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		r.glam = g
	}
}

// transcript renders the full conversation history, oldest first.
func (r *renderer) transcript(msgs []model.Message, showConfidence bool) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.message(msg, showConfidence))
		b.WriteString("\n")
	}
	return b.String()
}

// message renders one message with its role label.
func (r *renderer) message(msg model.Message, showConfidence bool) string {
	switch msg.Role {
	case model.RoleUser:
		label := r.theme.UserLabel.Render("You")
		body := r.theme.UserMessage.Render(wrap(msg.Content, r.width-2))
		return label + "\n" + body
	case model.RoleSystem:
		label := r.theme.SystemLabel.Render("System")
		body := r.theme.SystemMessage.Render(wrap(msg.Content, r.width-2))
		return label + "\n" + body
	default:
		label := r.theme.AssistantLabel.Render("Assistant")
		if showConfidence && len(msg.Sources) > 0 {
			agg := model.AggregateConfidence(msg.Sources)
			label += "  " + r.theme.Confidence(string(agg)).Render("["+string(agg)+"]")
		}
		return label + "\n" + r.assistantBody(msg.Content)
	}
}

// assistantBody renders markdown when enabled, falling back to plain
// wrapped text if glamour is unavailable or fails.
func (r *renderer) assistantBody(content string) string {
	if r.glam != nil {
		out, err := r.glam.Render(content)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return r.theme.Assistant.Render(wrap(content, r.width))
}

// partial renders in-flight assistant text. Markdown rendering waits for
// the final commit; mid-stream text is shown plain so unbalanced code
// fences and emphasis markers don't flicker.
func (r *renderer) partial(text string) string {
	label := r.theme.AssistantLabel.Render("Assistant")
	return label + "\n" + r.theme.StreamingText.Render(wrap(text, r.width))
}

func wrap(s string, width int) string {
	if width < 10 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
