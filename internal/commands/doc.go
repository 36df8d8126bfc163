// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
//
// Input starting with "/" is parsed against a registry of commands.
// Handlers do not mutate application state directly: they return
// tea.Cmd values that produce messages for the UI update loop, keeping
// every state change on the single update path.
package commands
