// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive conversation screen.
//
// The screen is a Bubble Tea model composed of a viewport for history,
// a textarea for input, and the components package for chrome. All
// state changes flow through Update: slash commands are parsed and
// dispatched through the commands registry, and plain input starts a
// stream against the session store.
//
// Streaming runs in a goroutine. The store's onEvent callback pushes
// events into a channel; a listen command turns each channel receive
// into a Bubble Tea message, re-issued until the stream finishes.
// Chunks are batched through a StreamBuffer so the viewport repaints at
// a bounded frame rate instead of once per token.
package chat
