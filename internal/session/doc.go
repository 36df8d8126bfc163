// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client-side conversation state: the list of
// conversations, the messages of the selected one, the transient streaming
// buffer, and the send/edit/regenerate operations that drive them.
//
// The Store is the single mutation point for this state. At most one
// stream may be in flight per Store; concurrent sends are rejected, not
// queued. State reads and writes between I/O suspension points are atomic.
package session
