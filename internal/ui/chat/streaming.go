// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAM BUFFER
// =============================================================================

// StreamBuffer batches incoming chunks so the viewport repaints at a
// bounded rate instead of once per token. A flush happens when either:
//
//  1. The batch size threshold is reached (15 chunks)
//  2. Enough time has passed since the last flush (33ms, ~30fps)
//
// Write is called from the stream goroutine, Flush from the Bubble Tea
// update loop, so all state is mutex-guarded.
type StreamBuffer struct {
	mu         sync.Mutex
	buf        strings.Builder
	chunkCount int
	lastFlush  time.Time

	batchSize  int
	minFlushMs int64
}

// NewStreamBuffer creates a buffer with the default batching parameters.
func NewStreamBuffer() *StreamBuffer {
	return &StreamBuffer{
		batchSize:  15,
		minFlushMs: 33,
		lastFlush:  time.Now(),
	}
}

// Write appends a chunk to the pending batch.
func (b *StreamBuffer) Write(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(chunk)
	b.chunkCount++
}

// ShouldFlush reports whether pending text is due for display.
func (b *StreamBuffer) ShouldFlush() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shouldFlushLocked()
}

func (b *StreamBuffer) shouldFlushLocked() bool {
	if b.buf.Len() == 0 {
		return false
	}
	if b.chunkCount >= b.batchSize {
		return true
	}
	return time.Since(b.lastFlush).Milliseconds() >= b.minFlushMs
}

// Flush returns the batched text when a flush is due, or "" otherwise.
func (b *StreamBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shouldFlushLocked() {
		return ""
	}
	return b.drainLocked()
}

// ForceFlush returns all pending text regardless of batching thresholds.
// Used when the stream ends so no tail is lost.
func (b *StreamBuffer) ForceFlush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drainLocked()
}

func (b *StreamBuffer) drainLocked() string {
	out := b.buf.String()
	b.buf.Reset()
	b.chunkCount = 0
	b.lastFlush = time.Now()
	return out
}

// Reset discards pending text, for stream cancellation.
func (b *StreamBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
	b.chunkCount = 0
	b.lastFlush = time.Now()
}

// Pending reports how many bytes are waiting for the next flush.
func (b *StreamBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// =============================================================================
// RENDER TICK
// =============================================================================

// StreamTickMsg drives the flush cadence while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// streamTickCmd schedules the next flush check at ~30fps.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
