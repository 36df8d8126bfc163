// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jeranaias/workbench-tui/internal/model"
)

func TestFrameDecoderFragmentAlignment(t *testing.T) {
	// Fragments deliberately split mid-line and mid-JSON.
	fragments := []string{
		"data: {\"type\":\"chunk\",\"con",
		"tent\":\"Hel\"}\ndata: {\"type\":\"chunk\",\"content\":\"lo\"}\nda",
		"ta: {\"type\":\"done\",\"message_id\":\"m1\",\"sources\":[]}\n",
	}

	var dec FrameDecoder
	var events []StreamEvent
	for _, f := range fragments {
		events = append(events, dec.Feed([]byte(f))...)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != EventChunk || events[0].Content != "Hel" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].Kind != EventChunk || events[1].Content != "lo" {
		t.Errorf("event 1 = %+v", events[1])
	}
	if events[2].Kind != EventDone || events[2].MessageID != "m1" {
		t.Errorf("event 2 = %+v", events[2])
	}
}

func TestFrameDecoderSkipsNoise(t *testing.T) {
	input := strings.Join([]string{
		": keep-alive",
		"",
		"data: not json at all",
		"data: {\"type\":\"mystery\",\"content\":\"x\"}",
		"event: something",
		"data: {\"type\":\"chunk\",\"content\":\"ok\"}",
		"",
	}, "\n")

	var dec FrameDecoder
	events := dec.Feed([]byte(input))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (noise must be skipped, not fatal)", len(events))
	}
	if events[0].Content != "ok" {
		t.Errorf("Content = %q, want 'ok'", events[0].Content)
	}
}

func TestFrameDecoderCRLF(t *testing.T) {
	var dec FrameDecoder
	events := dec.Feed([]byte("data: {\"type\":\"chunk\",\"content\":\"a\"}\r\n"))
	if len(events) != 1 || events[0].Content != "a" {
		t.Fatalf("CRLF line not decoded: %+v", events)
	}
}

func TestFrameDecoderFlush(t *testing.T) {
	var dec FrameDecoder
	if evs := dec.Feed([]byte("data: {\"type\":\"error\",\"content\":\"boom\"}")); len(evs) != 0 {
		t.Fatalf("incomplete line must stay in residual, got %+v", evs)
	}
	evs := dec.Flush()
	if len(evs) != 1 || evs[0].Kind != EventError || evs[0].Content != "boom" {
		t.Fatalf("Flush = %+v, want one error event", evs)
	}
	if evs := dec.Flush(); len(evs) != 0 {
		t.Errorf("second Flush must be empty, got %+v", evs)
	}
}

func TestFrameDecoderDoneSources(t *testing.T) {
	line := `data: {"type":"done","message_id":"m7","sources":[{"filename":"a.pdf","chunk_text":"t","page":3,"score":0.92,"confidence":"high"}],"retrieval_metadata":{"strategy":"hybrid","total_results":5,"confidence_breakdown":{"high":1,"medium":0,"low":0}}}` + "\n"

	var dec FrameDecoder
	events := dec.Feed([]byte(line))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Kind != EventDone {
		t.Fatalf("Kind = %v, want done", ev.Kind)
	}
	if len(ev.Sources) != 1 {
		t.Fatalf("Sources = %v", ev.Sources)
	}
	s := ev.Sources[0]
	if s.Filename != "a.pdf" || s.Score != 0.92 || s.Confidence != model.ConfidenceHigh {
		t.Errorf("source = %+v", s)
	}
	if s.Page == nil || *s.Page != 3 {
		t.Errorf("page = %v, want 3", s.Page)
	}
	if ev.Retrieval == nil || ev.Retrieval.Strategy != "hybrid" || ev.Retrieval.TotalResults != 5 {
		t.Errorf("retrieval = %+v", ev.Retrieval)
	}
}

func TestFrameDecoderDoneWithoutSources(t *testing.T) {
	var dec FrameDecoder
	events := dec.Feed([]byte("data: {\"type\":\"done\",\"message_id\":\"m1\"}\n"))
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Sources == nil || len(events[0].Sources) != 0 {
		t.Errorf("absent sources must decode to an empty list, got %v", events[0].Sources)
	}
}

// =============================================================================
// STREAM TESTS
// =============================================================================

type slowReader struct {
	parts []string
	i     int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.i >= len(r.parts) {
		return 0, io.EOF
	}
	n := copy(p, r.parts[r.i])
	r.i++
	return n, nil
}

func (r *slowReader) Close() error { return nil }

func TestStreamYieldsInOrder(t *testing.T) {
	s := newStream(&slowReader{parts: []string{
		"data: {\"type\":\"chunk\",\"content\":\"Hi\"}\n",
		"data: {\"type\":\"chunk\",\"content\":\" there\"}\ndata: {\"type\":\"done\",\"message_id\":\"m1\",\"sources\":[]}\n",
	}})
	defer s.Close()

	ctx := context.Background()
	var contents []string
	for {
		ev, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ev.Kind == EventChunk {
			contents = append(contents, ev.Content)
		}
		if ev.Terminal() {
			if ev.MessageID != "m1" {
				t.Errorf("MessageID = %q", ev.MessageID)
			}
		}
	}

	if got := strings.Join(contents, ""); got != "Hi there" {
		t.Errorf("concatenated chunks = %q, want 'Hi there'", got)
	}
}

func TestStreamEOFAfterTerminal(t *testing.T) {
	s := newStream(&slowReader{parts: []string{
		"data: {\"type\":\"done\",\"message_id\":\"m1\"}\ndata: {\"type\":\"chunk\",\"content\":\"late\"}\n",
	}})
	defer s.Close()

	ctx := context.Background()
	ev, err := s.Next(ctx)
	if err != nil || ev.Kind != EventDone {
		t.Fatalf("first Next = %+v, %v", ev, err)
	}
	// Nothing follows the terminal event, even if bytes arrived after it.
	if _, err := s.Next(ctx); err != io.EOF {
		t.Errorf("Next after terminal = %v, want io.EOF", err)
	}
}

func TestStreamClosedBeforeTerminal(t *testing.T) {
	s := newStream(&slowReader{parts: []string{
		"data: {\"type\":\"chunk\",\"content\":\"partial\"}\n",
	}})
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Next(ctx); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if _, err := s.Next(ctx); !IsStream(err) {
		t.Errorf("expected stream error on early close, got %v", err)
	}
}

func TestStreamHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newStream(&slowReader{parts: []string{"data: {\"type\":\"chunk\",\"content\":\"x\"}\n"}})
	defer s.Close()

	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next with cancelled ctx = %v, want context.Canceled", err)
	}
}
