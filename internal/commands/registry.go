// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/session"
	"github.com/jeranaias/workbench-tui/internal/storage"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/mode <general|workspace>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines completion behavior
	Type ArgType

	// Description explains the argument
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString    ArgType = iota // Free-form string
	ArgTypeEnum                     // One of predefined values
	ArgTypeWorkspace                // Workspace name from the backend
	ArgTypeModel                    // Model name from the engine
	ArgTypeTemplate                 // Prompt template name
	ArgTypeConfig                   // Config key
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.commands {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [category]",
		Args: []ArgDef{
			{
				Name:        "category",
				Type:        ArgTypeEnum,
				Values:      []string{"navigation", "conversation", "workspace", "model", "settings"},
				Description: "Help category",
			},
		},
		Category: "Navigation",
		Handler:  HandleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit workbench",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	// Conversation
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Usage:       "/new [title]",
		Args: []ArgDef{
			{Name: "title", Type: ArgTypeString, Description: "Optional conversation title"},
		},
		Category: "Conversation",
		Handler:  HandleNew,
	})

	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Deselect the current conversation",
		Category:    "Conversation",
		Handler:     HandleClear,
	})

	r.Register(&Command{
		Name:        "/regenerate",
		Aliases:     []string{"/retry"},
		Description: "Regenerate the last answer",
		Category:    "Conversation",
		Handler:     HandleRegenerate,
	})

	r.Register(&Command{
		Name:        "/edit",
		Description: "Edit a previous message and resend it",
		Usage:       "/edit <message#> <new content>",
		Args: []ArgDef{
			{Name: "message", Required: true, Type: ArgTypeString, Description: "Message number from the top, or message ID"},
			{Name: "content", Required: true, Type: ArgTypeString, Description: "Replacement text"},
		},
		Category: "Conversation",
		Handler:  HandleEdit,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export conversation to file",
		Usage:       "/export [md|json]",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"md", "json"}, Description: "Export format"},
		},
		Category: "Conversation",
		Handler:  HandleExport,
	})

	r.Register(&Command{
		Name:        "/save",
		Aliases:     []string{"/s"},
		Description: "Snapshot the conversation to the local archive",
		Category:    "Conversation",
		Handler:     HandleSave,
	})

	r.Register(&Command{
		Name:        "/sessions",
		Aliases:     []string{"/list"},
		Description: "List archived conversations",
		Usage:       "/sessions [search text]",
		Args: []ArgDef{
			{Name: "query", Type: ArgTypeString, Description: "Optional search text"},
		},
		Category: "Conversation",
		Handler:  HandleSessions,
	})

	// Workspace
	r.Register(&Command{
		Name:        "/mode",
		Description: "Switch chat mode",
		Usage:       "/mode <general|workspace>",
		Args: []ArgDef{
			{Name: "mode", Required: true, Type: ArgTypeEnum, Values: []string{"general", "workspace"}, Description: "Chat mode"},
		},
		Category: "Workspace",
		Handler:  HandleMode,
	})

	r.Register(&Command{
		Name:        "/workspaces",
		Description: "List document workspaces",
		Category:    "Workspace",
		Handler:     HandleWorkspaces,
	})

	r.Register(&Command{
		Name:        "/workspace",
		Aliases:     []string{"/ws"},
		Description: "Select the active workspace",
		Usage:       "/workspace <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeWorkspace, Description: "Workspace name or ID"},
		},
		Category: "Workspace",
		Handler:  HandleWorkspace,
	})

	r.Register(&Command{
		Name:        "/strategy",
		Description: "Select the retrieval strategy for workspace answers",
		Usage:       "/strategy <vector|bm25|hybrid|hybrid_rerank>",
		Args: []ArgDef{
			{Name: "strategy", Required: true, Type: ArgTypeEnum,
				Values: []string{api.StrategyVector, api.StrategyBM25, api.StrategyHybrid, api.StrategyHybridRerank}, Description: "Retrieval strategy"},
		},
		Category: "Workspace",
		Handler:  HandleStrategy,
	})

	r.Register(&Command{
		Name:        "/recursive",
		Description: "Toggle recursive retrieval",
		Usage:       "/recursive <on|off>",
		Args: []ArgDef{
			{Name: "state", Required: true, Type: ArgTypeEnum, Values: []string{"on", "off"}, Description: "Enable or disable"},
		},
		Category: "Workspace",
		Handler:  HandleRecursive,
	})

	r.Register(&Command{
		Name:        "/sources",
		Description: "Toggle the source citations panel",
		Category:    "Workspace",
		Handler:     HandleSources,
	})

	// Model
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Switch or show the current model",
		Usage:       "/model [name]",
		Args: []ArgDef{
			{Name: "name", Type: ArgTypeModel, Description: "Model to switch to"},
		},
		Category: "Model",
		Handler:  HandleModel,
	})

	r.Register(&Command{
		Name:        "/models",
		Description: "List models available on the engine",
		Category:    "Model",
		Handler:     HandleModels,
	})

	r.Register(&Command{
		Name:        "/temp",
		Description: "Set the sampling temperature",
		Usage:       "/temp <0.0-2.0|default>",
		Args: []ArgDef{
			{Name: "value", Required: true, Type: ArgTypeString, Description: "Temperature or 'default'"},
		},
		Category: "Model",
		Handler:  HandleTemp,
	})

	r.Register(&Command{
		Name:        "/prompt",
		Description: "Set or clear the system prompt for new conversations",
		Usage:       "/prompt [text]",
		Args: []ArgDef{
			{Name: "text", Type: ArgTypeString, Description: "System prompt (empty clears)"},
		},
		Category: "Model",
		Handler:  HandlePrompt,
	})

	r.Register(&Command{
		Name:        "/templates",
		Description: "List saved prompt templates",
		Category:    "Model",
		Handler:     HandleTemplates,
	})

	r.Register(&Command{
		Name:        "/template",
		Aliases:     []string{"/t"},
		Description: "Apply a prompt template as the system prompt",
		Usage:       "/template <name> [var=value ...]",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeTemplate, Description: "Template name"},
		},
		Category: "Model",
		Handler:  HandleTemplate,
	})

	// Settings
	r.Register(&Command{
		Name:        "/config",
		Description: "Show or edit configuration",
		Usage:       "/config [key] [value]",
		Args: []ArgDef{
			{Name: "key", Type: ArgTypeConfig, Description: "Config key to show/set"},
			{Name: "value", Type: ArgTypeString, Description: "New value"},
		},
		Category: "Settings",
		Handler:  HandleConfig,
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show backend and engine status",
		Category:    "Settings",
		Handler:     HandleStatus,
	})

	r.Register(&Command{
		Name:        "/theme",
		Description: "Change color theme",
		Usage:       "/theme <dark|light|auto>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeEnum, Values: []string{"dark", "light", "auto"}, Description: "Theme name"},
		},
		Category: "Settings",
		Handler:  HandleTheme,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
// All fields are optional and may be nil - handlers check before use.
type Context struct {
	// Config provides access to application configuration
	Config *config.Config

	// Client talks to the workspace backend
	Client *api.Client

	// Store manages the live conversation session
	Store *session.Store

	// Archive is the local conversation archive
	Archive *storage.Archive
}

// NewContext creates a new command context with the given dependencies.
// All parameters are optional and can be nil.
func NewContext(cfg *config.Config, client *api.Client, store *session.Store, archive *storage.Archive) *Context {
	return &Context{
		Config:  cfg,
		Client:  client,
		Store:   store,
		Archive: archive,
	}
}
