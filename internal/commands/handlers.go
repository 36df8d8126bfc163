// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/storage"
)

// handlerTimeout bounds backend calls made directly from handlers.
const handlerTimeout = 10 * time.Second

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application state.

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct {
	Topic string // Optional category for specific help
}

// NewConversationMsg triggers starting a new conversation.
type NewConversationMsg struct {
	Title string
}

// ClearConversationMsg deselects the current conversation.
type ClearConversationMsg struct{}

// RegenerateMsg triggers regenerating the last answer.
type RegenerateMsg struct{}

// EditMessageMsg triggers editing a previous user message.
type EditMessageMsg struct {
	// Ref is either a 1-based message number or a message ID.
	Ref     string
	Content string
}

// ExportConversationMsg triggers exporting the conversation.
type ExportConversationMsg struct {
	Format string // "md" or "json"
}

// ExportCompleteMsg indicates export completion.
type ExportCompleteMsg struct {
	Path  string
	Error error
}

// ArchiveConversationMsg triggers snapshotting to the local archive.
type ArchiveConversationMsg struct{}

// ArchiveCompleteMsg indicates the snapshot finished.
type ArchiveCompleteMsg struct {
	ID    string
	Error error
}

// SessionListMsg carries archived conversations for display.
type SessionListMsg struct {
	Sessions []storage.Meta
	Query    string
	Error    error
}

// ModeSwitchMsg indicates a chat mode switch request.
type ModeSwitchMsg struct {
	Mode model.Mode
}

// WorkspaceListMsg carries the workspace list for display.
type WorkspaceListMsg struct {
	Workspaces []model.Workspace
	Error      error
}

// WorkspaceSelectMsg selects the active workspace.
type WorkspaceSelectMsg struct {
	Workspace model.Workspace
	Error     error
}

// StrategySwitchMsg selects the retrieval strategy.
type StrategySwitchMsg struct {
	Strategy string
}

// RecursiveToggleMsg toggles recursive retrieval.
type RecursiveToggleMsg struct {
	Enabled bool
}

// ToggleSourcesMsg toggles the source citations panel.
type ToggleSourcesMsg struct{}

// ModelSwitchMsg indicates a model switch request.
type ModelSwitchMsg struct {
	Model string
}

// ShowModelsMsg carries the engine model list for display.
type ShowModelsMsg struct {
	Models []string
	Error  error
}

// TemperatureMsg sets the sampling temperature. Nil means server default.
type TemperatureMsg struct {
	Value *float64
}

// SystemPromptMsg sets or clears the system prompt.
type SystemPromptMsg struct {
	Prompt string
}

// TemplateListMsg carries prompt templates for display.
type TemplateListMsg struct {
	Names []string
	Error error
}

// TemplateApplyMsg applies a template as the system prompt.
type TemplateApplyMsg struct {
	Name   string
	Prompt string
	Error  error
}

// ShowConfigMsg triggers showing or editing configuration.
type ShowConfigMsg struct {
	Key   string // Optional specific key
	Value string // For setting
}

// ShowStatusMsg triggers the status display.
type ShowStatusMsg struct{}

// ThemeSwitchMsg changes the color theme.
type ThemeSwitchMsg struct {
	Name string
}

// ErrorMsg indicates a command error.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

// HandleHelp shows help information.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleNew starts a new conversation.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	title := strings.Join(args, " ")
	return func() tea.Msg {
		return NewConversationMsg{Title: title}
	}
}

// HandleClear deselects the current conversation.
func HandleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearConversationMsg{}
	}
}

// HandleRegenerate requests regeneration of the last answer.
func HandleRegenerate(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return RegenerateMsg{}
	}
}

// HandleEdit requests an edit-and-resend of a previous message.
func HandleEdit(ctx *Context, args []string) tea.Cmd {
	if len(args) < 2 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Missing arguments",
				Message: "edit needs a message reference and replacement text",
				Tip:     "Usage: /edit <message#> <new content>",
			}
		}
	}
	ref := args[0]
	content := strings.Join(args[1:], " ")
	return func() tea.Msg {
		return EditMessageMsg{Ref: ref, Content: content}
	}
}

// HandleExport exports the conversation.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
		if format == "markdown" {
			format = "md"
		}
	}

	switch format {
	case "md", "json":
	default:
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Invalid export format",
				Message: fmt.Sprintf("Unknown format: %s", format),
				Tip:     "Supported formats: md, json",
			}
		}
	}

	return func() tea.Msg {
		return ExportConversationMsg{Format: format}
	}
}

// HandleSave snapshots the current conversation to the local archive.
func HandleSave(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Store == nil || ctx.Archive == nil {
		return func() tea.Msg {
			return ArchiveConversationMsg{}
		}
	}

	store, archive := ctx.Store, ctx.Archive
	return func() tea.Msg {
		conv := store.Current()
		if conv == nil {
			return ArchiveCompleteMsg{Error: fmt.Errorf("no conversation selected")}
		}
		if err := archive.Save(*conv, store.Messages()); err != nil {
			return ArchiveCompleteMsg{ID: conv.ID, Error: err}
		}
		return ArchiveCompleteMsg{ID: conv.ID}
	}
}

// HandleSessions lists archived conversations, optionally filtered.
func HandleSessions(ctx *Context, args []string) tea.Cmd {
	query := strings.Join(args, " ")
	if ctx == nil || ctx.Archive == nil {
		return func() tea.Msg {
			return SessionListMsg{Query: query, Error: fmt.Errorf("archive is disabled")}
		}
	}

	archive := ctx.Archive
	return func() tea.Msg {
		var metas []storage.Meta
		var err error
		if query != "" {
			metas, err = archive.Search(query)
		} else {
			metas, err = archive.List(50)
		}
		return SessionListMsg{Sessions: metas, Query: query, Error: err}
	}
}

// HandleMode switches the chat mode.
func HandleMode(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return usageError("/mode", "Usage: /mode <general|workspace>")
	}
	mode := model.Mode(strings.ToLower(args[0]))
	if !mode.Valid() {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Invalid mode",
				Message: fmt.Sprintf("Unknown mode: %s", args[0]),
				Tip:     "Modes: general, workspace",
			}
		}
	}
	return func() tea.Msg {
		return ModeSwitchMsg{Mode: mode}
	}
}

// HandleWorkspaces lists document workspaces from the backend.
func HandleWorkspaces(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Client == nil {
		return func() tea.Msg {
			return WorkspaceListMsg{Error: fmt.Errorf("backend client unavailable")}
		}
	}

	client := ctx.Client
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		workspaces, err := client.ListWorkspaces(reqCtx)
		return WorkspaceListMsg{Workspaces: workspaces, Error: err}
	}
}

// HandleWorkspace selects a workspace by name or ID.
func HandleWorkspace(ctx *Context, args []string) tea.Cmd {
	name := strings.Join(args, " ")
	if ctx == nil || ctx.Client == nil {
		return func() tea.Msg {
			return WorkspaceSelectMsg{Error: fmt.Errorf("backend client unavailable")}
		}
	}

	client := ctx.Client
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		workspaces, err := client.ListWorkspaces(reqCtx)
		if err != nil {
			return WorkspaceSelectMsg{Error: err}
		}
		for _, ws := range workspaces {
			if strings.EqualFold(ws.Name, name) || ws.ID == name {
				return WorkspaceSelectMsg{Workspace: ws}
			}
		}
		return WorkspaceSelectMsg{Error: fmt.Errorf("workspace %q not found", name)}
	}
}

// HandleStrategy selects the retrieval strategy.
func HandleStrategy(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return usageError("/strategy", "Usage: /strategy <vector|bm25|hybrid|hybrid_rerank>")
	}
	strategy := strings.ToLower(args[0])
	return func() tea.Msg {
		return StrategySwitchMsg{Strategy: strategy}
	}
}

// HandleRecursive toggles recursive retrieval.
func HandleRecursive(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return usageError("/recursive", "Usage: /recursive <on|off>")
	}
	enabled := strings.EqualFold(args[0], "on")
	return func() tea.Msg {
		return RecursiveToggleMsg{Enabled: enabled}
	}
}

// HandleSources toggles the source citations panel.
func HandleSources(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ToggleSourcesMsg{}
	}
}

// HandleModel switches the model, or lists models when called bare.
func HandleModel(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return HandleModels(ctx, args)
	}
	name := args[0]
	return func() tea.Msg {
		return ModelSwitchMsg{Model: name}
	}
}

// HandleModels lists models available on the engine.
func HandleModels(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Client == nil {
		return func() tea.Msg {
			return ShowModelsMsg{Error: fmt.Errorf("backend client unavailable")}
		}
	}

	client := ctx.Client
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		models, err := client.EngineModels(reqCtx)
		if err != nil {
			return ShowModelsMsg{Error: err}
		}
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		return ShowModelsMsg{Models: names}
	}
}

// HandleTemp sets the sampling temperature.
func HandleTemp(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return usageError("/temp", "Usage: /temp <0.0-2.0|default>")
	}
	raw := args[0]
	if strings.EqualFold(raw, "default") {
		return func() tea.Msg {
			return TemperatureMsg{Value: nil}
		}
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || value > 2 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Invalid temperature",
				Message: fmt.Sprintf("%q is not a temperature", raw),
				Tip:     "Use a number between 0.0 and 2.0, or 'default'",
			}
		}
	}
	return func() tea.Msg {
		return TemperatureMsg{Value: &value}
	}
}

// HandlePrompt sets or clears the system prompt.
func HandlePrompt(ctx *Context, args []string) tea.Cmd {
	prompt := strings.Join(args, " ")
	return func() tea.Msg {
		return SystemPromptMsg{Prompt: prompt}
	}
}

// HandleTemplates lists saved prompt templates.
func HandleTemplates(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Client == nil {
		return func() tea.Msg {
			return TemplateListMsg{Error: fmt.Errorf("backend client unavailable")}
		}
	}

	client := ctx.Client
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		templates, err := client.ListTemplates(reqCtx)
		if err != nil {
			return TemplateListMsg{Error: err}
		}
		names := make([]string, 0, len(templates))
		for _, t := range templates {
			names = append(names, t.Name)
		}
		return TemplateListMsg{Names: names}
	}
}

// HandleTemplate applies a prompt template as the system prompt.
// Trailing key=value arguments bind the template's {{variable}}
// placeholders: /template legal-review party=Acme term=24mo
func HandleTemplate(ctx *Context, args []string) tea.Cmd {
	var nameParts []string
	vars := map[string]string{}
	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok && len(nameParts) > 0 {
			vars[k] = v
			continue
		}
		nameParts = append(nameParts, arg)
	}
	name := strings.Join(nameParts, " ")

	if ctx == nil || ctx.Client == nil {
		return func() tea.Msg {
			return TemplateApplyMsg{Name: name, Error: fmt.Errorf("backend client unavailable")}
		}
	}

	client := ctx.Client
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		templates, err := client.ListTemplates(reqCtx)
		if err != nil {
			return TemplateApplyMsg{Name: name, Error: err}
		}
		for _, t := range templates {
			if strings.EqualFold(t.Name, name) {
				return TemplateApplyMsg{Name: t.Name, Prompt: t.Render(vars)}
			}
		}
		return TemplateApplyMsg{Name: name, Error: fmt.Errorf("template %q not found", name)}
	}
}

// HandleConfig shows or edits configuration.
func HandleConfig(ctx *Context, args []string) tea.Cmd {
	var key, value string
	if len(args) > 0 {
		key = args[0]
	}
	if len(args) > 1 {
		value = strings.Join(args[1:], " ")
	}
	return func() tea.Msg {
		return ShowConfigMsg{Key: key, Value: value}
	}
}

// HandleStatus triggers the status display.
func HandleStatus(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowStatusMsg{}
	}
}

// HandleTheme changes the color theme.
func HandleTheme(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return usageError("/theme", "Usage: /theme <dark|light|auto>")
	}
	name := strings.ToLower(args[0])
	return func() tea.Msg {
		return ThemeSwitchMsg{Name: name}
	}
}

// usageError wraps a usage hint in an ErrorMsg command.
func usageError(cmd, tip string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{
			Title:   "Missing arguments",
			Message: cmd + " needs an argument",
			Tip:     tip,
		}
	}
}
