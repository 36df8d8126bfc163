// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/jeranaias/workbench-tui/internal/model"
)

// eventPrefix marks a line that carries an event payload. Lines without it
// (keep-alives, comments, blanks) are discarded.
const eventPrefix = "data:"

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventKind discriminates the stream event variants.
type EventKind int

const (
	// EventChunk carries one text fragment to append, in receipt order.
	EventChunk EventKind = iota + 1

	// EventDone terminates the stream: finalized message id, the resolved
	// source list, and optional retrieval metadata.
	EventDone

	// EventError terminates the stream with a human-readable failure.
	EventError
)

// StreamEvent is one decoded unit of the send-response protocol. Exactly
// one of the Kind values applies; only the fields for that kind are set.
type StreamEvent struct {
	Kind EventKind

	// Content is the text fragment for EventChunk, or the failure
	// description for EventError.
	Content string

	// MessageID, Sources, and Retrieval are set for EventDone.
	MessageID string
	Sources   []model.Source
	Retrieval *RetrievalMetadata
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// wireEvent is the JSON shape of an event payload.
type wireEvent struct {
	Type      string             `json:"type"`
	Content   string             `json:"content"`
	MessageID string             `json:"message_id"`
	Sources   []model.Source     `json:"sources"`
	Retrieval *RetrievalMetadata `json:"retrieval_metadata"`
}

// =============================================================================
// FRAME DECODER
// =============================================================================

// FrameDecoder turns arbitrary text fragments into decoded stream events.
// Fragments need not align to line boundaries: the decoder keeps the final
// incomplete segment as a residual and prepends it to the next fragment.
//
// Malformed and unrecognized lines are skipped, never surfaced: partial
// frames from network buffering are expected, and a single bad line must
// not abort the stream.
type FrameDecoder struct {
	residual []byte
}

// Feed appends a fragment and returns the events decoded from all complete
// lines, in receipt order.
func (d *FrameDecoder) Feed(fragment []byte) []StreamEvent {
	d.residual = append(d.residual, fragment...)

	var events []StreamEvent
	for {
		idx := bytes.IndexByte(d.residual, '\n')
		if idx < 0 {
			break
		}
		line := d.residual[:idx]
		d.residual = d.residual[idx+1:]
		if ev, ok := decodeFrame(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush decodes the residual as a final line. Called once when the
// transport closes without a trailing line break.
func (d *FrameDecoder) Flush() []StreamEvent {
	if len(d.residual) == 0 {
		return nil
	}
	line := d.residual
	d.residual = nil
	if ev, ok := decodeFrame(line); ok {
		return []StreamEvent{ev}
	}
	return nil
}

// decodeFrame parses one complete line. ok is false for keep-alive lines,
// unknown event types, and malformed payloads.
func decodeFrame(line []byte) (StreamEvent, bool) {
	text := strings.TrimRight(string(line), "\r")
	if !strings.HasPrefix(text, eventPrefix) {
		return StreamEvent{}, false
	}
	payload := strings.TrimPrefix(text, eventPrefix)
	payload = strings.TrimLeft(payload, " ")
	if payload == "" {
		return StreamEvent{}, false
	}

	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return StreamEvent{}, false
	}

	switch wire.Type {
	case "chunk":
		return StreamEvent{Kind: EventChunk, Content: wire.Content}, true
	case "done":
		sources := wire.Sources
		if sources == nil {
			sources = []model.Source{}
		}
		return StreamEvent{
			Kind:      EventDone,
			MessageID: wire.MessageID,
			Sources:   sources,
			Retrieval: wire.Retrieval,
		}, true
	case "error":
		return StreamEvent{Kind: EventError, Content: wire.Content}, true
	default:
		return StreamEvent{}, false
	}
}

// =============================================================================
// STREAM
// =============================================================================

// Stream yields the decoded events of one open send connection, lazily and
// in receipt order. It ends after the first terminal event, or with
// ErrStreamClosed when the transport closes before one arrives.
type Stream struct {
	body     io.ReadCloser
	dec      FrameDecoder
	pending  []StreamEvent
	buf      []byte
	terminal bool
	eof      bool
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		body: body,
		buf:  make([]byte, 4096),
	}
}

// Next returns the next stream event. It blocks on the underlying
// connection and honors context cancellation. After a terminal event has
// been returned, Next returns io.EOF.
func (s *Stream) Next(ctx context.Context) (StreamEvent, error) {
	if s.terminal {
		return StreamEvent{}, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return StreamEvent{}, ctx.Err()
		default:
		}

		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			if ev.Terminal() {
				s.terminal = true
			}
			return ev, nil
		}

		if s.eof {
			return StreamEvent{}, ErrStreamClosed
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.pending = append(s.pending, s.dec.Feed(s.buf[:n])...)
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				s.pending = append(s.pending, s.dec.Flush()...)
				continue
			}
			if ctx.Err() != nil {
				return StreamEvent{}, ctx.Err()
			}
			return StreamEvent{}, &ClientError{Type: ErrTypeStream, Message: "stream read failed", Cause: err}
		}
	}
}

// Close releases the underlying connection. Safe to call at any point;
// abandoning a stream without consuming it to completion requires only
// cancelling the context or closing it here.
func (s *Stream) Close() error {
	return s.body.Close()
}
