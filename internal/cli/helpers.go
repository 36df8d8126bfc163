// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - shared construction and output helpers for CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/session"
	"github.com/jeranaias/workbench-tui/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	warningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Rose)
	headerStyle  = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// styled applies a style only when color output is allowed.
func styled(st lipgloss.Style, s string) string {
	if !ColorAllowed() {
		return s
	}
	return st.Render(s)
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// NewClient builds an API client from the loaded configuration.
func NewClient(cfg *config.Config, logger *zap.Logger) *api.Client {
	return api.NewClientWithConfig(&api.Config{
		BaseURL:     cfg.Server.BaseURL,
		Timeout:     cfg.Server.Timeout(),
		SendTimeout: cfg.Server.SendTimeout(),
	}, logger)
}

// NewStore builds a session store seeded from config and CLI overrides.
func NewStore(cfg *config.Config, client *api.Client, args Args, logger *zap.Logger) (*session.Store, error) {
	store := session.NewStore(session.WrapClient(client), logger)

	mode := cfg.Chat.Mode
	if args.Mode != "" {
		mode = args.Mode
	}
	if args.Workspace != "" {
		mode = string(model.ModeWorkspace)
	}
	if err := store.SetMode(model.Mode(mode)); err != nil {
		return nil, err
	}
	store.SetWorkspace(args.Workspace)

	name := cfg.Chat.Model
	if args.Model != "" {
		name = args.Model
	}
	store.SetModel(name)

	if cfg.Chat.Temperature >= 0 {
		t := cfg.Chat.Temperature
		store.SetTemperature(&t)
	}
	store.SetSystemPrompt(cfg.Chat.SystemPrompt)
	if err := store.SetRetrievalStrategy(cfg.Chat.RetrievalStrategy); err != nil {
		return nil, err
	}
	store.SetRecursiveRetrieval(cfg.Chat.RecursiveRetrieval)

	return store, nil
}

// Fatalf prints an error to stderr and exits nonzero.
func Fatalf(format string, a ...any) {
	fmt.Fprintln(os.Stderr, styled(errorStyle, "error: "+fmt.Sprintf(format, a...)))
	os.Exit(1)
}
