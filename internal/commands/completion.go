// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"

	"github.com/jeranaias/workbench-tui/internal/config"
)

// =============================================================================
// COMPLETION
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int
}

// Completer provides command and argument completion for the input box.
type Completer struct {
	registry *Registry

	// Dynamic candidate lists, refreshed by the UI as backend data
	// arrives. Completion never makes network calls itself.
	workspaces []string
	models     []string
	templates  []string
}

// NewCompleter creates a completer over the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// SetWorkspaces updates workspace name candidates.
func (c *Completer) SetWorkspaces(names []string) { c.workspaces = names }

// SetModels updates model name candidates.
func (c *Completer) SetModels(names []string) { c.models = names }

// SetTemplates updates template name candidates.
func (c *Completer) SetTemplates(names []string) { c.templates = names }

// Complete returns suggestions for the current input, best match first.
func (c *Completer) Complete(input string) []Completion {
	if !IsCommand(input) {
		return nil
	}

	// Still typing the command name.
	if partial := PartialCommand(input); partial != "" {
		return c.completeCommandName(partial)
	}

	// Completing an argument.
	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return nil
	}
	cmd := c.registry.Get(strings.ToLower(parts[0]))
	if cmd == nil {
		return nil
	}

	// Index of the argument being typed. A trailing space starts a new one.
	argIndex := len(parts) - 1
	partial := ""
	if !strings.HasSuffix(input, " ") {
		argIndex = len(parts) - 2
		partial = parts[len(parts)-1]
	}
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	return c.completeArg(cmd.Args[argIndex], partial)
}

func (c *Completer) completeCommandName(partial string) []Completion {
	var out []Completion
	lower := strings.ToLower(partial)

	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		score := matchScore(cmd.Name, lower)
		for _, alias := range cmd.Aliases {
			if s := matchScore(alias, lower); s > score {
				score = s
			}
		}
		if score > 0 {
			out = append(out, Completion{
				Value:       cmd.Name,
				Description: cmd.Description,
				Score:       score,
			})
		}
	}

	sortCompletions(out)
	return out
}

func (c *Completer) completeArg(def ArgDef, partial string) []Completion {
	var candidates []string
	switch def.Type {
	case ArgTypeEnum:
		candidates = def.Values
	case ArgTypeWorkspace:
		candidates = c.workspaces
	case ArgTypeModel:
		candidates = c.models
	case ArgTypeTemplate:
		candidates = c.templates
	case ArgTypeConfig:
		candidates = config.GetAllKeys()
	default:
		return nil
	}

	lower := strings.ToLower(partial)
	var out []Completion
	for _, cand := range candidates {
		if score := matchScore(strings.ToLower(cand), lower); score > 0 {
			out = append(out, Completion{
				Value:       cand,
				Description: def.Description,
				Score:       score,
			})
		}
	}
	sortCompletions(out)
	return out
}

// matchScore ranks candidate against the typed prefix: exact > prefix >
// substring > no match.
func matchScore(candidate, typed string) int {
	if typed == "" {
		return 1
	}
	switch {
	case candidate == typed:
		return 100
	case strings.HasPrefix(candidate, typed):
		return 50
	case strings.Contains(candidate, typed):
		return 10
	default:
		return 0
	}
}

func sortCompletions(items []Completion) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Value < items[j].Value
	})
}
