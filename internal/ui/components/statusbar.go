// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/ui/styles"
	"github.com/jeranaias/workbench-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusSending
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusSending:
		return "Sending..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StatusBar renders the bottom status line: chat mode, active workspace,
// model, retrieval strategy, and the stream state.
type StatusBar struct {
	Mode      model.Mode
	Workspace string
	Model     string
	Strategy  string
	State     Status
	Width     int
}

// NewStatusBar creates a status bar with sensible defaults.
func NewStatusBar() StatusBar {
	return StatusBar{
		Mode:  model.ModeGeneral,
		State: StatusReady,
	}
}

// View renders the status bar at the configured width.
func (sb StatusBar) View(theme *styles.Theme) string {
	sep := theme.Muted.Render(" | ")

	var parts []string

	switch sb.Mode {
	case model.ModeWorkspace:
		label := "workspace"
		if sb.Workspace != "" {
			label = util.TruncateRunes(sb.Workspace, 24)
		}
		parts = append(parts, theme.ModeWorkspace.Render("[ws] "+label))
	default:
		parts = append(parts, theme.ModeGeneral.Render("[general]"))
	}

	if sb.Model != "" {
		parts = append(parts, theme.Secondary.Render(util.TruncateRunes(sb.Model, 28)))
	}

	if sb.Mode == model.ModeWorkspace && sb.Strategy != "" {
		parts = append(parts, theme.Muted.Render(sb.Strategy))
	}

	var state string
	switch sb.State {
	case StatusReady:
		state = theme.StatusReady.Render(sb.State.String())
	case StatusError:
		state = theme.StatusError.Render(sb.State.String())
	default:
		state = theme.StatusBusy.Render(sb.State.String())
	}

	left := strings.Join(parts, sep)
	hints := fmt.Sprintf("%s %s  %s %s",
		theme.ShortcutKey.Render("esc"), theme.ShortcutDesc.Render("cancel"),
		theme.ShortcutKey.Render("/help"), theme.ShortcutDesc.Render("commands"))

	line := left + sep + state

	if sb.Width > 0 {
		gap := sb.Width - lipgloss.Width(line) - lipgloss.Width(hints) - 2
		if gap > 0 {
			line += strings.Repeat(" ", gap) + hints
		}
		line = util.TruncateWidth(line, sb.Width)
	}

	return theme.StatusBar.Render(line)
}
