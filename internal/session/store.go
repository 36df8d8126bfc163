// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// STATES
// =============================================================================

// State is the send-cycle state of the store.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCommitting
	StateFailed
)

// String returns a short label for status display.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCommitting:
		return "committing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// Caller errors, rejected synchronously before any I/O.
var (
	// ErrBusy: a stream is already active on this store.
	ErrBusy = errors.New("a response is already streaming")

	// ErrEmptyMessage: blank input never reaches the transport.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoConversation: the operation needs a selected conversation.
	ErrNoConversation = errors.New("no conversation selected")

	// ErrMessageNotFound: the referenced message is not in local history.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotUserMessage: only user messages can be edited.
	ErrNotUserMessage = errors.New("only user messages can be edited")

	// ErrNoAssistantReply: regenerate needs a trailing assistant message
	// with a preceding user turn.
	ErrNoAssistantReply = errors.New("no assistant reply to regenerate")
)

// =============================================================================
// BACKEND BOUNDARY
// =============================================================================

// EventSource is a consumed stream of send-response events.
type EventSource interface {
	Next(ctx context.Context) (api.StreamEvent, error)
	Close() error
}

// Backend is the slice of the workspace API the store depends on.
type Backend interface {
	Send(ctx context.Context, req api.SendRequest) (EventSource, error)
	ListConversations(ctx context.Context, workspaceID string) ([]model.Conversation, error)
	CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*model.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)
	EditMessage(ctx context.Context, messageID, content string) (*model.Message, error)
	DeleteMessage(ctx context.Context, messageID string) (*api.DeleteMessageResult, error)
}

// clientBackend adapts *api.Client to the Backend interface (its Send
// returns the concrete *api.Stream).
type clientBackend struct {
	*api.Client
}

func (b clientBackend) Send(ctx context.Context, req api.SendRequest) (EventSource, error) {
	stream, err := b.Client.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// WrapClient exposes an api.Client as a session Backend.
func WrapClient(c *api.Client) Backend {
	return clientBackend{c}
}

// =============================================================================
// GENERATION SETTINGS
// =============================================================================

// Settings are the active generation/retrieval settings applied to sends
// and to newly created conversations.
type Settings struct {
	Mode               model.Mode
	WorkspaceID        string
	Model              string
	Temperature        *float64
	SystemPrompt       string
	RetrievalStrategy  string
	RecursiveRetrieval bool
}

// =============================================================================
// STORE
// =============================================================================

// Store is the canonical in-memory conversation state and its single
// mutation point. The mutex makes state reads and writes atomic between
// I/O suspension points; the one-stream-at-a-time invariant is enforced
// explicitly (ErrBusy), not by calling convention.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *zap.Logger

	settings      Settings
	conversations []model.Conversation
	current       *model.Conversation
	messages      []model.Message

	// Transient streaming buffer. Exactly one may be active at a time;
	// it is appended to in receipt order and cleared on commit or failure.
	buffer    strings.Builder
	streaming bool

	state   State
	lastErr error
}

// NewStore creates a store bound to a backend. A nil logger is replaced
// with a no-op logger.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:  backend,
		logger:   logger,
		settings: Settings{Mode: model.ModeGeneral},
		state:    StateIdle,
	}
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// State returns the current send-cycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Streaming reports whether a stream is in flight.
func (s *Store) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// StreamingText returns the accumulated partial assistant text. Read-only
// view for progressive display; empty when no stream is active.
func (s *Store) StreamingText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

// Err returns the store's single current error value, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError dismisses the current error and returns the store to Idle.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	if s.state == StateFailed {
		s.state = StateIdle
	}
}

// Conversations returns a copy of the conversation list.
func (s *Store) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Current returns the selected conversation, or nil.
func (s *Store) Current() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	conv := *s.current
	return &conv
}

// Messages returns a copy of the selected conversation's history.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Settings returns the active generation settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// =============================================================================
// SETTINGS MUTATORS
// =============================================================================

// SetMode switches the chat-mode context used for new conversations.
// Existing conversations keep the mode fixed at their creation.
func (s *Store) SetMode(mode model.Mode) error {
	if !mode.Valid() {
		return errors.New("unknown mode: " + string(mode))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Mode = mode
	return nil
}

// SetWorkspace selects the workspace used for workspace-mode sends.
func (s *Store) SetWorkspace(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.WorkspaceID = id
}

// SetModel overrides the backend's default chat model ("" resets).
func (s *Store) SetModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Model = name
}

// SetTemperature overrides the sampling temperature (nil resets).
func (s *Store) SetTemperature(t *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Temperature = t
}

// SetSystemPrompt overrides the system prompt ("" resets).
func (s *Store) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.SystemPrompt = prompt
}

// SetRetrievalStrategy selects the retrieval strategy ("" = backend default).
func (s *Store) SetRetrievalStrategy(strategy string) error {
	if !api.KnownStrategy(strategy) {
		return errors.New("unknown retrieval strategy: " + strategy)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.RetrievalStrategy = strategy
	return nil
}

// SetRecursiveRetrieval toggles recursive retrieval.
func (s *Store) SetRecursiveRetrieval(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.RecursiveRetrieval = on
}

// =============================================================================
// INTERNAL STATE TRANSITIONS
// =============================================================================

// begin claims the streaming slot. Returns ErrBusy when a stream is
// already active. Starting a new send clears a prior error.
func (s *Store) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return ErrBusy
	}
	s.streaming = true
	s.lastErr = nil
	s.state = StateSending
	return nil
}

// fail releases the streaming slot, discards the buffer (no partial
// message is ever committed), and records the single current error.
func (s *Store) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Reset()
	s.streaming = false
	s.state = StateFailed
	s.lastErr = err
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}
