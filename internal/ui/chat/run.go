// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/session"
	"github.com/jeranaias/workbench-tui/internal/storage"
)

// Run starts the interactive conversation screen and blocks until the
// user quits.
func Run(cfg *config.Config, client *api.Client, store *session.Store, archive *storage.Archive, logger *zap.Logger) error {
	m := New(cfg, client, store, archive, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
