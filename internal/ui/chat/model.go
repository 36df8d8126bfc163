// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/commands"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/session"
	"github.com/jeranaias/workbench-tui/internal/storage"
	"github.com/jeranaias/workbench-tui/internal/ui/components"
	"github.com/jeranaias/workbench-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the top-level Bubble Tea model for the conversation screen.
type Model struct {
	cfg     *config.Config
	logger  *zap.Logger
	theme   *styles.Theme
	store   *session.Store
	archive *storage.Archive
	client  *api.Client

	// Command dispatch
	registry  *commands.Registry
	parser    *commands.Parser
	completer *commands.Completer
	cmdCtx    *commands.Context

	// Widgets
	viewport viewport.Model
	input    textarea.Model
	spinner  components.Spinner
	status   components.StatusBar
	toasts   []components.Toast
	renderer *renderer

	// Stream state
	buffer    *StreamBuffer
	events    chan tea.Msg
	cancel    context.CancelFunc
	streaming bool
	partial   string

	// Display state
	showSources   bool
	sourcesFor    string // message ID the panel belongs to
	overlay       string // full-screen text overlay (/help, /sessions, ...)
	completions   []commands.Completion
	completionIdx int

	width  int
	height int
	ready  bool
}

// New assembles the conversation screen.
func New(cfg *config.Config, client *api.Client, store *session.Store, archive *storage.Archive, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := commands.NewRegistry()

	input := textarea.New()
	input.Placeholder = "Ask a question, or / for commands"
	input.ShowLineNumbers = false
	input.CharLimit = 8000
	input.SetHeight(1)
	input.Focus()

	m := &Model{
		cfg:       cfg,
		logger:    logger,
		theme:     styles.NewTheme(cfg.UI.Theme),
		store:     store,
		archive:   archive,
		client:    client,
		registry:  registry,
		parser:    commands.NewParser(registry),
		completer: commands.NewCompleter(registry),
		cmdCtx:    commands.NewContext(cfg, client, store, archive),
		input:     input,
		spinner:   components.NewSpinner(),
		status:    components.NewStatusBar(),
		buffer:    NewStreamBuffer(),
		renderer:  newRenderer(nil, cfg.UI.Markdown),

		showSources: cfg.UI.ShowSources,
	}
	m.renderer.theme = m.theme
	m.syncStatus()
	return m
}

// Init loads the conversation list in the background.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.refreshConversationsCmd())
}

// syncStatus mirrors the store settings into the status bar.
func (m *Model) syncStatus() {
	st := m.store.Settings()
	m.status.Mode = st.Mode
	m.status.Workspace = st.WorkspaceID
	m.status.Model = st.Model
	m.status.Strategy = st.RetrievalStrategy

	switch {
	case m.store.Err() != nil:
		m.status.State = components.StatusError
	case m.streaming && m.partial == "":
		m.status.State = components.StatusSending
	case m.streaming:
		m.status.State = components.StatusStreaming
	default:
		m.status.State = components.StatusReady
	}
}

// pushToast adds a toast and schedules its dismissal.
func (m *Model) pushToast(t components.Toast) tea.Cmd {
	m.toasts = append(m.toasts, t)
	return t.ExpireCmd()
}

// conversationsLoadedMsg refreshes the sidebar data after Init.
type conversationsLoadedMsg struct {
	Err error
}

func (m *Model) refreshConversationsCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Server.Timeout())
		defer cancel()
		return conversationsLoadedMsg{Err: store.RefreshConversations(ctx)}
	}
}
