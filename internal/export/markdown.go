// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation, msgs []model.Message) ([]byte, error) {
	if err := validate(conv, msgs); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(conv.Title)))
		sb.WriteString(fmt.Sprintf("mode: %s\n", conv.Mode))
		if conv.WorkspaceID != "" {
			sb.WriteString(fmt.Sprintf("workspace: %s\n", escapeYAML(conv.WorkspaceID)))
		}
		if !conv.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(msgs)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: workbench-tui\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(conv.Title)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Mode**: %s\n", conv.Mode))
		if conv.WorkspaceID != "" {
			sb.WriteString(fmt.Sprintf("- **Workspace**: %s\n", conv.WorkspaceID))
		}
		if !conv.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(conv.CreatedAt)))
		}
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(msgs)))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, msg := range msgs {
		sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel(msg.Role)))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		if e.options.IncludeSources && len(msg.Sources) > 0 {
			sb.WriteString(e.formatSources(msg.Sources))
		}

		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the Markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// formatSources renders the citation block that follows a cited answer.
func (e *MarkdownExporter) formatSources(sources []model.Source) string {
	var sb strings.Builder

	agg := model.AggregateConfidence(sources)
	sb.WriteString(fmt.Sprintf("**Sources** (confidence: %s)\n\n", agg))

	for _, src := range sources {
		loc := src.Filename
		if src.Page != nil {
			loc = fmt.Sprintf("%s, p. %d", src.Filename, *src.Page)
		}
		sb.WriteString(fmt.Sprintf("- **%s**", escapeMarkdown(loc)))
		if src.Confidence.Known() {
			sb.WriteString(fmt.Sprintf(" _(%s, score %.2f)_", src.Confidence, src.Score))
		} else if src.Score > 0 {
			sb.WriteString(fmt.Sprintf(" _(score %.2f)_", src.Score))
		}
		sb.WriteString("\n")
		if src.ChunkText != "" {
			sb.WriteString(fmt.Sprintf("  > %s\n", strings.ReplaceAll(src.ChunkText, "\n", " ")))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "You"
	case model.RoleAssistant:
		return "Assistant"
	case model.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}

// escapeMarkdown escapes characters that would break heading syntax.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"#", "\\#",
		"[", "\\[",
		"]", "\\]",
	)
	return replacer.Replace(s)
}

// escapeYAML escapes a string for safe inclusion as a YAML scalar value.
func escapeYAML(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "")
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`") {
		s = "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}
