// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable visual pieces of the
// workbench TUI: the status bar, the thinking spinner, non-blocking
// toasts, and the citation sources panel. Components are plain value
// types rendered with lipgloss; the chat model owns their state and
// composes their View output.
package components
