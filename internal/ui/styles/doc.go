// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles centralizes the workbench TUI's visual styling.
//
// Colors are defined once as lipgloss.AdaptiveColor pairs so every
// component renders correctly on both light and dark terminals. Theme
// bundles the composed lipgloss styles; the configured ui.theme value
// ("dark", "light", "auto") decides which palette variant wins when the
// terminal background cannot be detected.
package styles
