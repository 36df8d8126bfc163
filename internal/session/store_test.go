// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"io"
	"runtime"
	"testing"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeStream yields a fixed event sequence. When gate is non-nil, Next
// blocks on it before yielding, letting tests hold a stream open.
type fakeStream struct {
	events []api.StreamEvent
	i      int
	gate   chan struct{}
	closed bool
}

func (f *fakeStream) Next(ctx context.Context) (api.StreamEvent, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return api.StreamEvent{}, ctx.Err()
		}
	}
	if f.i >= len(f.events) {
		return api.StreamEvent{}, io.EOF
	}
	ev := f.events[f.i]
	f.i++
	return ev, nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

type fakeBackend struct {
	streams   []*fakeStream
	sendErr   error
	sendReqs  []api.SendRequest
	convs     []model.Conversation
	msgs      map[string][]model.Message
	editErr   error
	deleteRes *api.DeleteMessageResult
	deleteErr error
	created   int
}

func (b *fakeBackend) Send(ctx context.Context, req api.SendRequest) (EventSource, error) {
	b.sendReqs = append(b.sendReqs, req)
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	if len(b.streams) == 0 {
		return &fakeStream{}, nil
	}
	st := b.streams[0]
	b.streams = b.streams[1:]
	return st, nil
}

func (b *fakeBackend) ListConversations(ctx context.Context, workspaceID string) ([]model.Conversation, error) {
	return b.convs, nil
}

func (b *fakeBackend) CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error) {
	b.created++
	conv := model.Conversation{
		ID:          "conv-created",
		Title:       req.Title,
		Mode:        req.Mode,
		WorkspaceID: req.WorkspaceID,
	}
	b.convs = append([]model.Conversation{conv}, b.convs...)
	return &conv, nil
}

func (b *fakeBackend) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return b.msgs[conversationID], nil
}

func (b *fakeBackend) EditMessage(ctx context.Context, messageID, content string) (*model.Message, error) {
	if b.editErr != nil {
		return nil, b.editErr
	}
	return &model.Message{ID: messageID, Role: model.RoleUser, Content: content}, nil
}

func (b *fakeBackend) DeleteMessage(ctx context.Context, messageID string) (*api.DeleteMessageResult, error) {
	if b.deleteErr != nil {
		return nil, b.deleteErr
	}
	if b.deleteRes != nil {
		return b.deleteRes, nil
	}
	return &api.DeleteMessageResult{Deleted: true}, nil
}

func chunk(s string) api.StreamEvent {
	return api.StreamEvent{Kind: api.EventChunk, Content: s}
}

func done(id string, sources ...model.Source) api.StreamEvent {
	if sources == nil {
		sources = []model.Source{}
	}
	return api.StreamEvent{Kind: api.EventDone, MessageID: id, Sources: sources}
}

func streamErr(msg string) api.StreamEvent {
	return api.StreamEvent{Kind: api.EventError, Content: msg}
}

func newTestStore(b *fakeBackend) *Store {
	return NewStore(b, nil)
}

func selectConv(t *testing.T, s *Store, b *fakeBackend, conv model.Conversation, msgs []model.Message) {
	t.Helper()
	if b.msgs == nil {
		b.msgs = map[string][]model.Message{}
	}
	b.convs = append(b.convs, conv)
	b.msgs[conv.ID] = msgs
	if err := s.RefreshConversations(context.Background()); err != nil {
		t.Fatalf("RefreshConversations: %v", err)
	}
	if err := s.SelectConversation(context.Background(), conv.ID); err != nil {
		t.Fatalf("SelectConversation: %v", err)
	}
}

// =============================================================================
// SEND
// =============================================================================

func TestSendCommitsConcatenatedChunks(t *testing.T) {
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{chunk("Hi"), chunk(" there"), done("m1")}},
	}}
	s := newTestStore(b)

	if err := s.Send(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("history length = %d, want 2 (user + assistant)", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("user message = %+v", msgs[0])
	}
	assistant := msgs[1]
	if assistant.Role != model.RoleAssistant {
		t.Fatalf("second message role = %q", assistant.Role)
	}
	if assistant.Content != "Hi there" {
		t.Errorf("content = %q, want 'Hi there' (chunks in receipt order)", assistant.Content)
	}
	if assistant.ID != "m1" {
		t.Errorf("id = %q, want server-provided 'm1'", assistant.ID)
	}
	if len(assistant.Sources) != 0 {
		t.Errorf("sources = %v, want empty", assistant.Sources)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
	if s.StreamingText() != "" {
		t.Errorf("buffer not cleared: %q", s.StreamingText())
	}
}

func TestSendRejectsBlank(t *testing.T) {
	b := &fakeBackend{}
	s := newTestStore(b)

	for _, input := range []string{"", "   ", "\n\t "} {
		if err := s.Send(context.Background(), input, nil); err != ErrEmptyMessage {
			t.Errorf("Send(%q) = %v, want ErrEmptyMessage", input, err)
		}
	}
	if len(b.sendReqs) != 0 {
		t.Error("blank input must never reach the transport")
	}
}

func TestSendAutoCreatesConversation(t *testing.T) {
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{done("m1")}},
	}}
	s := newTestStore(b)
	s.SetMode(model.ModeWorkspace)
	s.SetWorkspace("w1")

	if err := s.Send(context.Background(), "question", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if b.created != 1 {
		t.Fatalf("created %d conversations, want 1", b.created)
	}
	cur := s.Current()
	if cur == nil || cur.ID != "conv-created" {
		t.Fatalf("current = %+v", cur)
	}
	if cur.Mode != model.ModeWorkspace || cur.WorkspaceID != "w1" {
		t.Errorf("mode/workspace not taken from context: %+v", cur)
	}
	if req := b.sendReqs[0]; req.WorkspaceID != "w1" || req.Mode != model.ModeWorkspace {
		t.Errorf("send request = %+v", req)
	}
}

func TestSendErrorEventCommitsNothing(t *testing.T) {
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{chunk("partial "), streamErr("model unavailable")}},
	}}
	s := newTestStore(b)

	err := s.Send(context.Background(), "Hello", nil)
	if !api.IsStream(err) {
		t.Fatalf("err = %v, want stream error", err)
	}

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("history length = %d, want 1 (no partial message is ever committed)", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("the user's own message must remain: %+v", msgs[0])
	}
	if got := s.Err(); got == nil || got.Error() != "model unavailable" {
		t.Errorf("store error = %v, want 'model unavailable'", got)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %v, want failed", s.State())
	}
	if s.StreamingText() != "" {
		t.Errorf("buffer must be discarded, got %q", s.StreamingText())
	}
}

func TestSendTransportFailureKeepsUserMessage(t *testing.T) {
	b := &fakeBackend{sendErr: api.ErrBackendDown}
	s := newTestStore(b)

	if err := s.Send(context.Background(), "Hello", nil); !api.IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Content != "Hello" {
		t.Fatalf("optimistic user message must survive failure: %v", msgs)
	}
	if s.Err() == nil {
		t.Error("error must be inspectable on the store")
	}
}

func TestSendBusyRejected(t *testing.T) {
	gate := make(chan struct{})
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{done("m1")}, gate: gate},
	}}
	s := newTestStore(b)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Send(context.Background(), "first", nil)
	}()

	// Wait for the first send to claim the stream.
	for !s.Streaming() {
		runtime.Gosched()
	}

	if err := s.Send(context.Background(), "second", nil); err != ErrBusy {
		t.Errorf("concurrent send = %v, want ErrBusy", err)
	}

	close(gate)
	if err := <-errCh; err != nil {
		t.Fatalf("first send should be unaffected: %v", err)
	}
	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Errorf("history = %d messages, want 2", len(msgs))
	}
}

func TestSendClearsPriorError(t *testing.T) {
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{streamErr("boom")}},
		{events: []api.StreamEvent{done("m2")}},
	}}
	s := newTestStore(b)

	if err := s.Send(context.Background(), "one", nil); err == nil {
		t.Fatal("expected stream error")
	}
	if s.Err() == nil {
		t.Fatal("error must be held")
	}
	if err := s.Send(context.Background(), "two", nil); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if s.Err() != nil {
		t.Errorf("starting a new send must clear the prior error, got %v", s.Err())
	}
}

func TestSendAttachesSourcesAndConfidence(t *testing.T) {
	src := model.Source{Filename: "a.pdf", Score: 0.92, Confidence: model.ConfidenceHigh}
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{chunk("answer"), done("m1", src)}},
	}}
	s := newTestStore(b)
	s.SetMode(model.ModeWorkspace)
	s.SetWorkspace("w1")

	if err := s.Send(context.Background(), "what does the doc say?", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := s.Messages()
	assistant := msgs[len(msgs)-1]
	if len(assistant.Sources) != 1 || assistant.Sources[0].Filename != "a.pdf" {
		t.Fatalf("sources = %+v", assistant.Sources)
	}
	if got := model.AggregateConfidence(assistant.Sources); got != model.ConfidenceHigh {
		t.Errorf("aggregate confidence = %q, want high", got)
	}
}

func TestSendObserverSeesEventsInOrder(t *testing.T) {
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{chunk("a"), chunk("b"), done("m1")}},
	}}
	s := newTestStore(b)

	var kinds []api.EventKind
	err := s.Send(context.Background(), "x", func(ev api.StreamEvent) {
		kinds = append(kinds, ev.Kind)
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := []api.EventKind{api.EventChunk, api.EventChunk, api.EventDone}
	if len(kinds) != len(want) {
		t.Fatalf("observed %d events, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

// =============================================================================
// EDIT
// =============================================================================

func TestEditReplacesAndResends(t *testing.T) {
	conv := model.Conversation{ID: "c1", Title: "t", Mode: model.ModeGeneral}
	history := []model.Message{
		{ID: "u1", ConversationID: "c1", Role: model.RoleUser, Content: "helo"},
		{ID: "a1", ConversationID: "c1", Role: model.RoleAssistant, Content: "Hm?"},
	}
	b := &fakeBackend{streams: []*fakeStream{
		{events: []api.StreamEvent{chunk("Hello!"), done("a2")}},
	}}
	s := newTestStore(b)
	selectConv(t, s, b, conv, history)

	// The backend reflects the in-place edit on refresh.
	b.msgs["c1"] = []model.Message{
		{ID: "u1", ConversationID: "c1", Role: model.RoleUser, Content: "hello"},
		{ID: "a1", ConversationID: "c1", Role: model.RoleAssistant, Content: "Hm?"},
	}

	if err := s.Edit(context.Background(), "u1", "hello", nil); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("history length = %d, want 3 (edit must not duplicate the user turn)", len(msgs))
	}
	if msgs[0].ID != "u1" || msgs[0].Content != "hello" {
		t.Errorf("edited message = %+v", msgs[0])
	}
	if msgs[1].ID != "a1" {
		t.Errorf("stale assistant reply should remain (no truncate-after): %+v", msgs[1])
	}
	if msgs[2].Role != model.RoleAssistant || msgs[2].Content != "Hello!" {
		t.Errorf("new assistant message = %+v", msgs[2])
	}

	users := 0
	for _, m := range msgs {
		if m.Role == model.RoleUser {
			users++
		}
	}
	if users != 1 {
		t.Errorf("user turns = %d, want exactly 1", users)
	}
}

func TestEditRejectsNonUserMessages(t *testing.T) {
	conv := model.Conversation{ID: "c1", Mode: model.ModeGeneral}
	history := []model.Message{
		{ID: "u1", Role: model.RoleUser, Content: "q"},
		{ID: "a1", Role: model.RoleAssistant, Content: "a"},
	}
	b := &fakeBackend{}
	s := newTestStore(b)
	selectConv(t, s, b, conv, history)

	if err := s.Edit(context.Background(), "a1", "nope", nil); err != ErrNotUserMessage {
		t.Errorf("Edit(assistant) = %v, want ErrNotUserMessage", err)
	}
	if err := s.Edit(context.Background(), "missing", "x", nil); err != ErrMessageNotFound {
		t.Errorf("Edit(missing) = %v, want ErrMessageNotFound", err)
	}
	if s.Streaming() {
		t.Error("rejected edit must release the stream slot")
	}
}

// =============================================================================
// REGENERATE
// =============================================================================

func TestRegenerate(t *testing.T) {
	conv := model.Conversation{ID: "c1", Mode: model.ModeGeneral}
	history := []model.Message{
		{ID: "u1", Role: model.RoleUser, Content: "question"},
		{ID: "a1", Role: model.RoleAssistant, Content: "weak answer"},
	}
	b := &fakeBackend{
		deleteRes: &api.DeleteMessageResult{Deleted: true, PreviousUserContent: "question"},
		streams: []*fakeStream{
			{events: []api.StreamEvent{chunk("better answer"), done("a2")}},
		},
	}
	s := newTestStore(b)
	selectConv(t, s, b, conv, history)

	if err := s.Regenerate(context.Background(), nil); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("history = %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "question" {
		t.Errorf("user turn = %+v", msgs[0])
	}
	if msgs[1].ID != "a2" || msgs[1].Content != "better answer" {
		t.Errorf("regenerated answer = %+v", msgs[1])
	}
}

func TestRegenerateThenFailureKeepsUserContentOnce(t *testing.T) {
	conv := model.Conversation{ID: "c1", Mode: model.ModeGeneral}
	history := []model.Message{
		{ID: "u1", Role: model.RoleUser, Content: "question"},
		{ID: "a1", Role: model.RoleAssistant, Content: "weak answer"},
	}
	b := &fakeBackend{
		deleteRes: &api.DeleteMessageResult{Deleted: true, PreviousUserContent: "question"},
		streams: []*fakeStream{
			{events: []api.StreamEvent{streamErr("model unavailable")}},
		},
	}
	s := newTestStore(b)
	selectConv(t, s, b, conv, history)

	if err := s.Regenerate(context.Background(), nil); err == nil {
		t.Fatal("expected failure")
	}

	msgs := s.Messages()
	users := 0
	for _, m := range msgs {
		if m.Role == model.RoleUser {
			users++
			if m.Content != "question" {
				t.Errorf("user content = %q, want 'question'", m.Content)
			}
		}
		if m.Role == model.RoleAssistant {
			t.Errorf("no assistant message may survive: %+v", m)
		}
	}
	if users != 1 {
		t.Errorf("user turns = %d, want exactly 1 (no duplication, no loss)", users)
	}
}

func TestRegenerateRequiresTrailingAssistant(t *testing.T) {
	conv := model.Conversation{ID: "c1", Mode: model.ModeGeneral}
	b := &fakeBackend{}
	s := newTestStore(b)

	// No conversation selected.
	if err := s.Regenerate(context.Background(), nil); err != ErrNoConversation {
		t.Errorf("Regenerate = %v, want ErrNoConversation", err)
	}

	// Trailing message is the user's.
	selectConv(t, s, b, conv, []model.Message{
		{ID: "u1", Role: model.RoleUser, Content: "q"},
	})
	if err := s.Regenerate(context.Background(), nil); err != ErrNoAssistantReply {
		t.Errorf("Regenerate = %v, want ErrNoAssistantReply", err)
	}

	// Assistant message with no preceding user turn.
	b2 := &fakeBackend{}
	s2 := newTestStore(b2)
	selectConv(t, s2, b2, conv, []model.Message{
		{ID: "a1", Role: model.RoleAssistant, Content: "orphan"},
	})
	if err := s2.Regenerate(context.Background(), nil); err != ErrNoAssistantReply {
		t.Errorf("Regenerate = %v, want ErrNoAssistantReply", err)
	}
}

// =============================================================================
// SELECTION AND ERRORS
// =============================================================================

func TestSelectConversationLoadsHistory(t *testing.T) {
	conv := model.Conversation{ID: "c9", Title: "old", Mode: model.ModeGeneral}
	history := []model.Message{{ID: "m", Role: model.RoleUser, Content: "hey"}}
	b := &fakeBackend{}
	s := newTestStore(b)
	selectConv(t, s, b, conv, history)

	cur := s.Current()
	if cur == nil || cur.ID != "c9" {
		t.Fatalf("current = %+v", cur)
	}
	if msgs := s.Messages(); len(msgs) != 1 || msgs[0].Content != "hey" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestClearError(t *testing.T) {
	b := &fakeBackend{sendErr: api.ErrBackendDown}
	s := newTestStore(b)

	s.Send(context.Background(), "x", nil)
	if s.Err() == nil || s.State() != StateFailed {
		t.Fatalf("precondition: store should be failed, state=%v err=%v", s.State(), s.Err())
	}

	s.ClearError()
	if s.Err() != nil || s.State() != StateIdle {
		t.Errorf("ClearError: state=%v err=%v, want idle/nil", s.State(), s.Err())
	}
}

func TestSetRetrievalStrategyValidation(t *testing.T) {
	s := newTestStore(&fakeBackend{})
	if err := s.SetRetrievalStrategy("hybrid_rerank"); err != nil {
		t.Errorf("known strategy rejected: %v", err)
	}
	if err := s.SetRetrievalStrategy("psychic"); err == nil {
		t.Error("unknown strategy accepted")
	}
	if err := s.SetMode("cloud"); err == nil {
		t.Error("unknown mode accepted")
	}
}
