// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/workbench-tui/internal/api"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// streamEventMsg carries one stream event from the transport goroutine
// into the update loop.
type streamEventMsg struct {
	Event api.StreamEvent
}

// streamFinishedMsg fires once when the stream goroutine returns. Err is
// the value the session operation returned; the store has already
// committed or discarded the buffered reply by the time this arrives.
type streamFinishedMsg struct {
	Err error
}

// listenCmd waits for the next stream message. The update loop re-issues
// it after every receive until the channel closes.
func listenCmd(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}
