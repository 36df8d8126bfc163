// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/workbench-tui/internal/model"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&Config{BaseURL: srv.URL}, nil)
}

func TestSendStreamsEvents(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/send" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Message != "Hello" || req.Mode != model.ModeGeneral {
			t.Errorf("request = %+v", req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"chunk\",\"content\":\"Hi\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"chunk\",\"content\":\" there\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"done\",\"message_id\":\"m1\",\"sources\":[]}\n\n")
	}))

	stream, err := c.Send(context.Background(), SendRequest{
		ConversationID: "c1",
		Message:        "Hello",
		Mode:           model.ModeGeneral,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	defer stream.Close()

	var got string
	var doneID string
	ctx := context.Background()
	for {
		ev, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		switch ev.Kind {
		case EventChunk:
			got += ev.Content
		case EventDone:
			doneID = ev.MessageID
		}
	}

	if got != "Hi there" {
		t.Errorf("content = %q, want 'Hi there'", got)
	}
	if doneID != "m1" {
		t.Errorf("message id = %q, want 'm1'", doneID)
	}
}

func TestSendSurfacesDetail(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "conversation not found"})
	}))

	_, err := c.Send(context.Background(), SendRequest{ConversationID: "missing", Message: "x", Mode: model.ModeGeneral})
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if err.Error() != "conversation not found" {
		t.Errorf("message = %q, want server detail verbatim", err.Error())
	}
}

func TestSendGenericFallbackDetail(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<html>nope</html>")
	}))

	_, err := c.Send(context.Background(), SendRequest{ConversationID: "c", Message: "x", Mode: model.ModeGeneral})
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestSendBackendDown(t *testing.T) {
	c := NewClientWithConfig(&Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Send(context.Background(), SendRequest{ConversationID: "c", Message: "x", Mode: model.ModeGeneral})
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestConversationCRUD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("workspace_id") != "w1" {
			t.Errorf("workspace_id = %q", r.URL.Query().Get("workspace_id"))
		}
		json.NewEncoder(w).Encode([]model.Conversation{{ID: "c1", Title: "First", Mode: model.ModeWorkspace}})
	})
	mux.HandleFunc("POST /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		var req CreateConversationRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(model.Conversation{ID: "c2", Title: req.Title, Mode: req.Mode})
	})
	mux.HandleFunc("GET /api/chat/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Message{{ID: "m1", Role: model.RoleUser, Content: "hi"}})
	})
	mux.HandleFunc("DELETE /api/chat/conversations/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "conversation not found"})
	})
	c := testClient(t, mux)
	ctx := context.Background()

	convs, err := c.ListConversations(ctx, "w1")
	if err != nil || len(convs) != 1 || convs[0].ID != "c1" {
		t.Fatalf("ListConversations = %v, %v", convs, err)
	}

	conv, err := c.CreateConversation(ctx, CreateConversationRequest{Title: "New Chat", Mode: model.ModeGeneral})
	if err != nil || conv.ID != "c2" || conv.Title != "New Chat" {
		t.Fatalf("CreateConversation = %+v, %v", conv, err)
	}

	msgs, err := c.Messages(ctx, "c1")
	if err != nil || len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Fatalf("Messages = %v, %v", msgs, err)
	}

	if err := c.DeleteConversation(ctx, "gone"); !IsNotFound(err) {
		t.Errorf("DeleteConversation = %v, want not-found", err)
	}
}

func TestDeleteMessageForRegenerate(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/chat/messages/m9" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(DeleteMessageResult{Deleted: true, PreviousUserContent: "original question"})
	}))

	res, err := c.DeleteMessage(context.Background(), "m9")
	if err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if !res.Deleted || res.PreviousUserContent != "original question" {
		t.Errorf("result = %+v", res)
	}
}

func TestEngineStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EngineStatus{Running: true, Models: []EngineModel{{Name: "llama3"}}})
	}))

	s, err := c.EngineStatus(context.Background())
	if err != nil || !s.Running || len(s.Models) != 1 {
		t.Fatalf("EngineStatus = %+v, %v", s, err)
	}
}

func TestTemplateRender(t *testing.T) {
	tpl := Template{
		Content:   "Review {{doc}} for {{party}}. Flag anything about {{party}}.",
		Variables: []string{"doc", "party"},
	}

	got := tpl.Render(map[string]string{"doc": "the NDA", "party": "Acme"})
	want := "Review the NDA for Acme. Flag anything about Acme."
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	// Unbound variables stay visible.
	got = tpl.Render(map[string]string{"doc": "the MSA"})
	if got != "Review the MSA for {{party}}. Flag anything about {{party}}." {
		t.Errorf("partial Render = %q", got)
	}
}

// A generation that takes longer than the send timeout must not be cut
// off: the timeout bounds only the wait for the initial response, the
// body is read until the terminal event.
func TestSendStreamOutlivesHeaderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for i := 0; i < 5; i++ {
			io.WriteString(w, "data: {\"type\":\"chunk\",\"content\":\"x\"}\n\n")
			fl.Flush()
			time.Sleep(60 * time.Millisecond)
		}
		io.WriteString(w, "data: {\"type\":\"done\",\"message_id\":\"m1\"}\n\n")
	}))
	t.Cleanup(srv.Close)

	// Stream lifetime (~300ms) well past the 100ms initial-response bound.
	c := NewClientWithConfig(&Config{BaseURL: srv.URL, SendTimeout: 100 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.Send(ctx, SendRequest{ConversationID: "c1", Message: "slow", Mode: model.ModeGeneral})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	defer stream.Close()

	var got string
	var done bool
	for {
		ev, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		switch ev.Kind {
		case EventChunk:
			got += ev.Content
		case EventDone:
			done = true
		}
	}

	if got != "xxxxx" {
		t.Errorf("content = %q, want all five chunks", got)
	}
	if !done {
		t.Error("terminal event never arrived")
	}
}
