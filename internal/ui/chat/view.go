// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/workbench-tui/internal/commands"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/ui/components"
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// View composes the full screen: header, history, optional sources
// panel, input, status bar, and any active toast.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.overlay != "" {
		b.WriteString(m.theme.Container.Render(m.overlay))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if panel := m.renderSources(); panel != "" {
		b.WriteString(panel)
		b.WriteString("\n")
	}

	if sp := m.spinner.View(m.theme); sp != "" {
		b.WriteString(" " + sp + "\n")
	}

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.status.View(m.theme))

	if toast := m.renderToast(); toast != "" {
		b.WriteString("\n")
		b.WriteString(toast)
	}

	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("workbench")
	sub := ""
	if conv := m.store.Current(); conv != nil {
		sub = "  " + m.theme.HeaderSubtitle.Render(conv.Title)
	}
	line := title + sub
	if m.width > 0 {
		line = lipgloss.NewStyle().Width(m.width - 2).Render(line)
	}
	return m.theme.Header.Render(line)
}

// renderSources shows the citations panel for the latest committed
// assistant reply, when enabled and present.
func (m *Model) renderSources() string {
	if !m.showSources || m.streaming {
		return ""
	}
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		return ""
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant || len(last.Sources) == 0 {
		return ""
	}
	panel := components.SourcesPanel{Sources: last.Sources, Width: m.width}
	return panel.View(m.theme)
}

func (m *Model) renderInput() string {
	view := m.theme.InputPrompt.Render("> ") + m.input.View()

	if popup := m.renderCompletions(); popup != "" {
		view = popup + "\n" + view
	}
	return m.theme.InputContainer.Render(view)
}

// renderCompletions shows up to six candidates above the input line.
func (m *Model) renderCompletions() string {
	if len(m.completions) == 0 {
		return ""
	}

	limit := 6
	if len(m.completions) < limit {
		limit = len(m.completions)
	}

	var rows []string
	for i := 0; i < limit; i++ {
		c := m.completions[i]
		row := c.Value
		if c.Description != "" {
			row += "  " + c.Description
		}
		if i == m.completionIdx {
			rows = append(rows, m.theme.CompletionSelected.Render(row))
		} else {
			rows = append(rows, m.theme.CompletionItem.Render(row))
		}
	}
	return m.theme.CompletionPopup.Render(strings.Join(rows, "\n"))
}

func (m *Model) renderToast() string {
	if len(m.toasts) == 0 {
		return ""
	}
	// Newest toast wins; older ones expire on their own schedule.
	t := m.toasts[len(m.toasts)-1]
	return t.View(m.theme, m.width)
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) renderHelp(topic string) string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Commands"))
	b.WriteString("\n")

	byCat := m.registry.ByCategory()
	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		if topic != "" && !strings.EqualFold(topic, cat) {
			continue
		}
		b.WriteString("\n" + m.theme.Secondary.Render(cat) + "\n")
		for _, cmd := range byCat[cat] {
			if cmd.Hidden {
				continue
			}
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			b.WriteString(fmt.Sprintf("  %-34s %s\n",
				m.theme.ShortcutKey.Render(usage),
				m.theme.ShortcutDesc.Render(cmd.Description)))
		}
	}

	b.WriteString("\n" + m.theme.Muted.Render("esc to close"))
	return b.String()
}

func (m *Model) renderSessions(msg commands.SessionListMsg) string {
	var b strings.Builder
	if msg.Query != "" {
		b.WriteString(m.theme.HeaderTitle.Render(fmt.Sprintf("Saved sessions matching %q", msg.Query)))
	} else {
		b.WriteString(m.theme.HeaderTitle.Render("Saved sessions"))
	}
	b.WriteString("\n\n")

	if len(msg.Sessions) == 0 {
		b.WriteString(m.theme.Muted.Render("no saved sessions"))
		return b.String()
	}

	for _, s := range msg.Sessions {
		b.WriteString(fmt.Sprintf("%s  %s\n",
			m.theme.Secondary.Render(s.ArchivedAt.Format("2006-01-02 15:04")),
			m.theme.HeaderTitle.Render(s.Title)))
		meta := fmt.Sprintf("   %d messages, %s mode", s.MessageCount, s.Mode)
		b.WriteString(m.theme.Muted.Render(meta) + "\n")
		if s.Preview != "" {
			b.WriteString("   " + m.theme.SourceChunk.Render(s.Preview) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderWorkspaces(msg commands.WorkspaceListMsg) string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Workspaces"))
	b.WriteString("\n\n")

	if len(msg.Workspaces) == 0 {
		b.WriteString(m.theme.Muted.Render("no workspaces on the backend"))
		return b.String()
	}

	active := m.store.Settings().WorkspaceID
	for _, ws := range msg.Workspaces {
		marker := "  "
		if ws.ID == active {
			marker = m.theme.Success.Render("* ")
		}
		b.WriteString(marker + ws.Name + "  " + m.theme.Muted.Render(ws.ID) + "\n")
	}
	b.WriteString("\n" + m.theme.Muted.Render("/workspace <name> to select"))
	return b.String()
}

func (m *Model) renderList(title string, items []string) string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render(title))
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString(m.theme.Muted.Render("none"))
		return b.String()
	}
	for _, item := range items {
		b.WriteString("  " + item + "\n")
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	st := m.store.Settings()

	rows := [][2]string{
		{"backend", m.cfg.Server.BaseURL},
		{"mode", string(st.Mode)},
		{"model", orDefault(st.Model, "server default")},
		{"strategy", orDefault(st.RetrievalStrategy, "server default")},
		{"recursive retrieval", onOff(st.RecursiveRetrieval)},
		{"temperature", temperatureLabel(st.Temperature)},
		{"messages", strconv.Itoa(len(m.store.Messages()))},
		{"state", m.status.State.String()},
	}
	if st.Mode == model.ModeWorkspace {
		rows = append(rows, [2]string{"workspace", orDefault(st.WorkspaceID, "none")})
	}

	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Status"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-22s %s\n",
			m.theme.Secondary.Render(row[0]), row[1]))
	}
	return b.String()
}

func (m *Model) renderConfig() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Configuration"))
	b.WriteString("\n\n")
	for _, key := range config.GetAllKeys() {
		val, err := m.cfg.Get(key)
		if err != nil {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-28s %v\n", m.theme.Secondary.Render(key), val))
	}
	b.WriteString("\n" + m.theme.Muted.Render("/config <key> <value> to change"))
	return b.String()
}

// =============================================================================
// HELPERS
// =============================================================================

func parseOrdinal(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func formatConfigValue(key string, val interface{}) string {
	return fmt.Sprintf("%s = %v", key, val)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func temperatureLabel(t *float64) string {
	if t == nil {
		return "server default"
	}
	return strconv.FormatFloat(*t, 'f', 2, 64)
}
