// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI command surface: one-shot asks,
// a line-editing REPL, status checks, saved-session management, and
// configuration editing. Output adapts to the environment: markdown
// and color on a TTY, plain text when piped.
package cli
