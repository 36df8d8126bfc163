// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/commands"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/export"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/session"
	"github.com/jeranaias/workbench-tui/internal/ui/components"
	"github.com/jeranaias/workbench-tui/internal/ui/styles"
)

// Update is the single state transition function for the screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		return m, m.spinner.Update(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case streamEventMsg:
		return m.handleStreamEvent(msg.Event)

	case streamFinishedMsg:
		return m.handleStreamFinished(msg.Err)

	case components.ToastExpiredMsg:
		m.dismissToast(msg.ID)
		return m, nil

	case conversationsLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("conversation list refresh failed", zap.Error(msg.Err))
		}
		return m, nil
	}

	if cmd, handled := m.handleCommandMsg(msg); handled {
		return m, cmd
	}

	// Everything else goes to the input widget.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) tea.Cmd {
	m.width = width
	m.height = height

	contentWidth := width - 2
	m.renderer.setWidth(contentWidth)
	m.input.SetWidth(width - 4)
	m.status.Width = width

	// header + input container + status bar
	chromeHeight := 1 + 3 + 1
	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}

	m.refreshViewport(true)
	return nil
}

// refreshViewport re-renders history plus any in-flight text.
func (m *Model) refreshViewport(goToBottom bool) {
	if !m.ready {
		return
	}

	content := m.renderer.transcript(m.store.Messages(), m.cfg.UI.ShowConfidence)
	if m.streaming && m.partial != "" {
		content += "\n" + m.renderer.partial(m.partial) + "\n"
	}
	m.viewport.SetContent(content)
	if goToBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancelStream()
		return m, tea.Quit

	case "esc":
		switch {
		case m.overlay != "":
			m.overlay = ""
		case len(m.completions) > 0:
			m.completions = nil
		case m.streaming:
			m.cancelStream()
		default:
			m.store.ClearError()
			m.syncStatus()
		}
		return m, nil

	case "tab":
		if len(m.completions) > 0 {
			m.applyCompletion()
			return m, nil
		}
		return m, nil

	case "up", "down":
		if len(m.completions) > 1 {
			m.cycleCompletion(msg.String() == "down")
			return m, nil
		}

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m, m.submit()
	}

	// Dismiss any overlay on typing.
	m.overlay = ""

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.updateCompletions()
	return m, cmd
}

func (m *Model) updateCompletions() {
	input := m.input.Value()
	if !commands.IsCommand(input) {
		m.completions = nil
		return
	}
	m.completions = m.completer.Complete(input)
	m.completionIdx = 0
}

func (m *Model) cycleCompletion(forward bool) {
	n := len(m.completions)
	if forward {
		m.completionIdx = (m.completionIdx + 1) % n
	} else {
		m.completionIdx = (m.completionIdx + n - 1) % n
	}
}

// applyCompletion replaces the token being typed with the selection.
func (m *Model) applyCompletion() {
	sel := m.completions[m.completionIdx].Value
	input := m.input.Value()

	if idx := strings.LastIndexByte(input, ' '); idx >= 0 {
		input = input[:idx+1] + sel
	} else {
		input = sel
	}
	m.input.SetValue(input + " ")
	m.input.CursorEnd()
	m.updateCompletions()
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m *Model) submit() tea.Cmd {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return nil
	}

	m.input.Reset()
	m.completions = nil
	m.overlay = ""

	if commands.IsCommand(input) {
		return m.dispatchCommand(input)
	}

	if m.streaming {
		return m.pushToast(components.NewWarningToast(session.ErrBusy.Error()))
	}

	return m.startStream(func(ctx context.Context, onEvent func(api.StreamEvent)) error {
		return m.store.Send(ctx, input, onEvent)
	})
}

func (m *Model) dispatchCommand(input string) tea.Cmd {
	res := m.parser.Parse(input)
	if res.Command == nil {
		return m.pushToast(components.NewErrorToast("unknown command " + res.CommandName + ", try /help"))
	}
	if err := commands.ValidateArgs(res.Command, res.Args); err != nil {
		return m.pushToast(components.NewErrorToast(err.Error()))
	}
	return res.Command.Handler(m.cmdCtx, res.Args)
}

// =============================================================================
// STREAMING
// =============================================================================

// startStream launches a session operation in a goroutine and wires its
// events into the update loop.
func (m *Model) startStream(run func(context.Context, func(api.StreamEvent)) error) tea.Cmd {
	events := make(chan tea.Msg, 64)
	// The transport's header timeout bounds the wait for the initial
	// response; the stream itself runs until the terminal event or an
	// explicit cancel (esc), never against a deadline.
	ctx, cancel := context.WithCancel(context.Background())

	m.events = events
	m.cancel = cancel
	m.streaming = true
	m.partial = ""
	m.buffer.Reset()
	m.sourcesFor = ""
	m.syncStatus()

	go func() {
		err := run(ctx, func(ev api.StreamEvent) {
			events <- streamEventMsg{Event: ev}
		})
		cancel()
		events <- streamFinishedMsg{Err: err}
		close(events)
	}()

	m.refreshViewport(true)
	return tea.Batch(listenCmd(events), streamTickCmd(), m.spinner.Start("Thinking"))
}

func (m *Model) handleStreamEvent(ev api.StreamEvent) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case api.EventChunk:
		m.spinner.Stop()
		m.buffer.Write(ev.Content)
	case api.EventDone:
		m.sourcesFor = ev.MessageID
		// The committed message now carries the full text; drop the
		// in-flight copy so the reply is not rendered twice while the
		// trailing conversation refresh runs.
		m.partial = ""
		m.buffer.Reset()
		m.refreshViewport(true)
	}
	// Errors surface through streamFinishedMsg with the full context.
	return m, listenCmd(m.events)
}

func (m *Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}
	if flushed := m.buffer.Flush(); flushed != "" {
		m.partial += flushed
		m.syncStatus()
		m.refreshViewport(true)
	}
	return m, streamTickCmd()
}

func (m *Model) handleStreamFinished(err error) (tea.Model, tea.Cmd) {
	m.streaming = false
	m.partial = ""
	m.buffer.Reset()
	m.spinner.Stop()
	m.events = nil
	m.cancel = nil
	m.syncStatus()
	m.refreshViewport(true)

	if err != nil {
		m.logger.Warn("stream failed", zap.Error(err))
		return m, m.pushToast(components.NewErrorToast(err.Error()))
	}
	return m, nil
}

// cancelStream aborts the in-flight request. The store discards the
// partial reply; the user message stays in history.
func (m *Model) cancelStream() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) dismissToast(id int64) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// handleCommandMsg applies messages emitted by slash-command handlers.
func (m *Model) handleCommandMsg(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case commands.ShowHelpMsg:
		m.overlay = m.renderHelp(msg.Topic)
		return nil, true

	case commands.NewConversationMsg:
		if err := m.store.Deselect(); err != nil {
			return m.pushToast(components.NewErrorToast(err.Error())), true
		}
		m.sourcesFor = ""
		m.refreshViewport(true)
		return m.pushToast(components.NewStatusToast("new conversation")), true

	case commands.ClearConversationMsg:
		if err := m.store.Deselect(); err != nil {
			return m.pushToast(components.NewErrorToast(err.Error())), true
		}
		m.sourcesFor = ""
		m.refreshViewport(true)
		return nil, true

	case commands.RegenerateMsg:
		if m.streaming {
			return m.pushToast(components.NewWarningToast(session.ErrBusy.Error())), true
		}
		return m.startStream(func(ctx context.Context, onEvent func(api.StreamEvent)) error {
			return m.store.Regenerate(ctx, onEvent)
		}), true

	case commands.EditMessageMsg:
		return m.editMessage(msg), true

	case commands.ExportConversationMsg:
		return m.exportConversation(msg.Format), true

	case commands.ExportCompleteMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast("export failed: " + msg.Error.Error())), true
		}
		return m.pushToast(components.NewSuccessToast("exported to " + msg.Path)), true

	case commands.ArchiveConversationMsg:
		// Emitted when no archive is wired (archive.enabled = false).
		return m.pushToast(components.NewWarningToast("the local archive is disabled")), true

	case commands.ArchiveCompleteMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast("save failed: " + msg.Error.Error())), true
		}
		return m.pushToast(components.NewSuccessToast("conversation saved")), true

	case commands.SessionListMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast(msg.Error.Error())), true
		}
		m.overlay = m.renderSessions(msg)
		return nil, true

	case commands.ModeSwitchMsg:
		if err := m.store.SetMode(msg.Mode); err != nil {
			return m.pushToast(components.NewErrorToast(err.Error())), true
		}
		m.syncStatus()
		return m.pushToast(components.NewStatusToast("mode: " + string(msg.Mode))), true

	case commands.WorkspaceListMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast(msg.Error.Error())), true
		}
		names := make([]string, len(msg.Workspaces))
		for i, ws := range msg.Workspaces {
			names[i] = ws.Name
		}
		m.completer.SetWorkspaces(names)
		m.overlay = m.renderWorkspaces(msg)
		return nil, true

	case commands.WorkspaceSelectMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast(msg.Error.Error())), true
		}
		m.store.SetWorkspace(msg.Workspace.ID)
		if err := m.store.SetMode(model.ModeWorkspace); err != nil {
			return m.pushToast(components.NewErrorToast(err.Error())), true
		}
		m.syncStatus()
		m.status.Workspace = msg.Workspace.Name
		return m.pushToast(components.NewStatusToast("workspace: " + msg.Workspace.Name)), true

	case commands.StrategySwitchMsg:
		if err := m.store.SetRetrievalStrategy(msg.Strategy); err != nil {
			return m.pushToast(components.NewErrorToast(err.Error())), true
		}
		m.syncStatus()
		return m.pushToast(components.NewStatusToast("strategy: " + msg.Strategy)), true

	case commands.RecursiveToggleMsg:
		m.store.SetRecursiveRetrieval(msg.Enabled)
		state := "off"
		if msg.Enabled {
			state = "on"
		}
		return m.pushToast(components.NewStatusToast("recursive retrieval " + state)), true

	case commands.ToggleSourcesMsg:
		m.showSources = !m.showSources
		return nil, true

	case commands.ModelSwitchMsg:
		m.store.SetModel(msg.Model)
		m.syncStatus()
		return m.pushToast(components.NewStatusToast("model: " + msg.Model)), true

	case commands.ShowModelsMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast(msg.Error.Error())), true
		}
		m.completer.SetModels(msg.Models)
		m.overlay = m.renderList("Available models", msg.Models)
		return nil, true

	case commands.TemperatureMsg:
		m.store.SetTemperature(msg.Value)
		if msg.Value == nil {
			return m.pushToast(components.NewStatusToast("temperature: server default")), true
		}
		return m.pushToast(components.NewStatusToast("temperature set")), true

	case commands.SystemPromptMsg:
		m.store.SetSystemPrompt(msg.Prompt)
		if msg.Prompt == "" {
			return m.pushToast(components.NewStatusToast("system prompt cleared")), true
		}
		return m.pushToast(components.NewStatusToast("system prompt set")), true

	case commands.TemplateListMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast(msg.Error.Error())), true
		}
		m.completer.SetTemplates(msg.Names)
		m.overlay = m.renderList("Templates", msg.Names)
		return nil, true

	case commands.TemplateApplyMsg:
		if msg.Error != nil {
			return m.pushToast(components.NewErrorToast(msg.Error.Error())), true
		}
		m.store.SetSystemPrompt(msg.Prompt)
		return m.pushToast(components.NewStatusToast("template applied: " + msg.Name)), true

	case commands.ShowConfigMsg:
		return m.handleConfig(msg), true

	case commands.ShowStatusMsg:
		m.overlay = m.renderStatus()
		return nil, true

	case commands.ThemeSwitchMsg:
		m.cfg.UI.Theme = msg.Name
		m.theme = styles.NewTheme(msg.Name)
		m.renderer.theme = m.theme
		m.refreshViewport(false)
		return m.pushToast(components.NewStatusToast("theme: " + msg.Name)), true

	case commands.ErrorMsg:
		text := msg.Message
		if msg.Tip != "" {
			text += " (" + msg.Tip + ")"
		}
		return m.pushToast(components.NewErrorToast(text)), true
	}

	return nil, false
}

func (m *Model) editMessage(msg commands.EditMessageMsg) tea.Cmd {
	if m.streaming {
		return m.pushToast(components.NewWarningToast(session.ErrBusy.Error()))
	}
	id := m.resolveMessageRef(msg.Ref)
	if id == "" {
		return m.pushToast(components.NewErrorToast("no such message: " + msg.Ref))
	}
	return m.startStream(func(ctx context.Context, onEvent func(api.StreamEvent)) error {
		return m.store.Edit(ctx, id, msg.Content, onEvent)
	})
}

// resolveMessageRef maps a 1-based ordinal or literal ID to a message ID.
func (m *Model) resolveMessageRef(ref string) string {
	msgs := m.store.Messages()
	if n, ok := parseOrdinal(ref); ok {
		if n < 1 || n > len(msgs) {
			return ""
		}
		return msgs[n-1].ID
	}
	for _, msg := range msgs {
		if msg.ID == ref {
			return msg.ID
		}
	}
	return ""
}

func (m *Model) exportConversation(format string) tea.Cmd {
	conv := m.store.Current()
	msgs := m.store.Messages()
	if conv == nil || len(msgs) == 0 {
		return m.pushToast(components.NewWarningToast("nothing to export"))
	}

	opts := export.DefaultOptions()
	var exporter export.Exporter
	if format == "json" {
		exporter = export.NewJSONExporter(opts)
	} else {
		exporter = export.NewMarkdownExporter(opts)
	}

	return func() tea.Msg {
		path, err := export.ExportToFile(conv, msgs, exporter, opts)
		return commands.ExportCompleteMsg{Path: path, Error: err}
	}
}

func (m *Model) handleConfig(msg commands.ShowConfigMsg) tea.Cmd {
	switch {
	case msg.Key == "":
		m.overlay = m.renderConfig()
		return nil
	case msg.Value == "":
		val, err := m.cfg.Get(msg.Key)
		if err != nil {
			return m.pushToast(components.NewErrorToast(err.Error()))
		}
		return m.pushToast(components.NewStatusToast(formatConfigValue(msg.Key, val)))
	default:
		if err := m.cfg.Set(msg.Key, msg.Value); err != nil {
			return m.pushToast(components.NewErrorToast(err.Error()))
		}
		path, err := config.ConfigPath()
		if err == nil {
			err = config.SaveTOML(m.cfg, path)
		}
		if err != nil {
			return m.pushToast(components.NewErrorToast("saved in memory only: " + err.Error()))
		}
		return m.pushToast(components.NewSuccessToast(msg.Key + " = " + msg.Value))
	}
}
