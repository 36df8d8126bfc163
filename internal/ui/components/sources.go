// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/ui/styles"
	"github.com/jeranaias/workbench-tui/internal/util"
)

// =============================================================================
// SOURCES PANEL
// =============================================================================

// SourcesPanel renders the citations behind the most recent assistant
// reply: filename, page, relevance score, per-source confidence, and a
// snippet of the matched chunk.
type SourcesPanel struct {
	Sources []model.Source
	Width   int

	// Expanded switches snippets from the truncated preview to the
	// full chunk text when the backend supplied it.
	Expanded bool
}

// View renders the panel. Empty when there are no sources.
func (p SourcesPanel) View(theme *styles.Theme) string {
	if len(p.Sources) == 0 {
		return ""
	}

	agg := model.AggregateConfidence(p.Sources)

	var b strings.Builder
	b.WriteString(theme.SourcesTitle.Render(fmt.Sprintf("Sources (%d)", len(p.Sources))))
	b.WriteString("  ")
	b.WriteString(theme.Muted.Render("confidence: "))
	b.WriteString(theme.Confidence(string(agg)).Render(string(agg)))
	b.WriteString("\n")

	inner := p.Width - 4
	if inner < 20 {
		inner = 20
	}

	for i, src := range p.Sources {
		b.WriteString("\n")
		b.WriteString(theme.SourceFile.Render(fmt.Sprintf("%d. %s", i+1, sourceLocation(src))))

		detail := fmt.Sprintf("  score %.2f", src.Score)
		if src.Confidence != "" {
			detail += " / " + string(src.Confidence)
		}
		b.WriteString(theme.SourceScore.Render(detail))

		if chunk := p.chunkText(src); chunk != "" {
			b.WriteString("\n   ")
			b.WriteString(theme.SourceChunk.Render(util.TruncateWidth(chunk, inner-3)))
		}
	}

	panel := theme.SourcesPanel
	if p.Width > 0 {
		panel = panel.Width(p.Width - 2)
	}
	return panel.Render(b.String())
}

func (p SourcesPanel) chunkText(src model.Source) string {
	if p.Expanded && src.FullChunkText != "" {
		return oneLine(src.FullChunkText)
	}
	return oneLine(src.ChunkText)
}

// sourceLocation formats "filename, p. N" or just the filename.
func sourceLocation(src model.Source) string {
	if src.Page != nil {
		return fmt.Sprintf("%s, p. %d", src.Filename, *src.Page)
	}
	return src.Filename
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
