// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the backend client.
type Config struct {
	// BaseURL of the workspace backend (default: http://127.0.0.1:8000).
	// Explicit IPv4 avoids IPv6 resolution issues on Windows.
	BaseURL string

	// Timeout for plain request/response calls (default: 30s).
	Timeout time.Duration

	// SendTimeout bounds the wait for the *initial* response of a
	// streaming send. The stream itself runs unbounded and is ended by
	// context cancellation or the terminal event (default: 120s).
	SendTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://127.0.0.1:8000",
		Timeout:     30 * time.Second,
		SendTimeout: 120 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Local AI Workspace backend. It is safe for
// concurrent use.
type Client struct {
	config       *Config
	httpClient   *http.Client
	streamClient *http.Client
	logger       *zap.Logger
}

// NewClient creates a client with default configuration.
func NewClient(logger *zap.Logger) *Client {
	return NewClientWithConfig(DefaultConfig(), logger)
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *Config, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.SendTimeout == 0 {
		config.SendTimeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		// No overall timeout for streaming: the header timeout bounds the
		// initial response, the body is read until the terminal event.
		streamClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: config.SendTimeout,
			},
		},
		logger: logger,
	}
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.config
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// detailBody is the backend's error shape: a single detail string.
type detailBody struct {
	Detail string `json:"detail"`
}

// decodeDetail extracts the server-provided error message from a non-2xx
// response, falling back to the given generic message.
func decodeDetail(body io.Reader, fallback string) string {
	var d detailBody
	if err := json.NewDecoder(body).Decode(&d); err == nil && d.Detail != "" {
		return d.Detail
	}
	return fallback
}

// do issues a JSON request and decodes a JSON response into out (when out
// is non-nil). Transport failures and non-2xx statuses are mapped onto the
// ClientError taxonomy.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &ClientError{Type: ErrTypeTransport, Message: ErrBackendDown.Message, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &ClientError{Type: ErrTypeNotFound, Message: decodeDetail(resp.Body, ErrNotFound.Message)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: decodeDetail(resp.Body, "request failed: "+resp.Status),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// =============================================================================
// HEALTH
// =============================================================================

// Health verifies that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations returns all conversations, most recently updated
// first. A non-empty workspaceID restricts the list to one workspace.
func (c *Client) ListConversations(ctx context.Context, workspaceID string) ([]model.Conversation, error) {
	path := "/api/chat/conversations"
	if workspaceID != "" {
		path += "?workspace_id=" + url.QueryEscape(workspaceID)
	}
	var convs []model.Conversation
	if err := c.do(ctx, http.MethodGet, path, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// CreateConversation creates a conversation. Mode is fixed for its
// lifetime.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/chat/conversations", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateConversation updates display metadata (title, pin, folder, tags,
// system prompt).
func (c *Client) UpdateConversation(ctx context.Context, id string, req UpdateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.do(ctx, http.MethodPut, "/api/chat/conversations/"+url.PathEscape(id), req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/conversations/"+url.PathEscape(id), nil, nil)
}

// Messages returns the committed messages of a conversation in creation
// order.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	path := "/api/chat/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// EditMessage replaces the stored content of a user message. This is the
// one sanctioned in-place mutation of history.
func (c *Client) EditMessage(ctx context.Context, messageID, content string) (*model.Message, error) {
	var msg model.Message
	body := struct {
		Content string `json:"content"`
	}{Content: content}
	if err := c.do(ctx, http.MethodPut, "/api/chat/messages/"+url.PathEscape(messageID), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a trailing assistant message (and its preceding
// user turn) ahead of a regenerate, returning the recovered user content.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) (*DeleteMessageResult, error) {
	var result DeleteMessageResult
	if err := c.do(ctx, http.MethodDelete, "/api/chat/messages/"+url.PathEscape(messageID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// WORKSPACES
// =============================================================================

// ListWorkspaces returns all workspaces, most recently updated first.
func (c *Client) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	var ws []model.Workspace
	if err := c.do(ctx, http.MethodGet, "/api/workspaces", nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// CreateWorkspace creates a named workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name string) (*model.Workspace, error) {
	var ws model.Workspace
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/workspaces", body, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// UpdateWorkspace renames a workspace.
func (c *Client) UpdateWorkspace(ctx context.Context, id, name string) (*model.Workspace, error) {
	var ws model.Workspace
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.do(ctx, http.MethodPut, "/api/workspaces/"+url.PathEscape(id), body, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// DeleteWorkspace removes a workspace and its document index.
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/workspaces/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// ListDocuments returns the documents of a workspace with ingestion state.
func (c *Client) ListDocuments(ctx context.Context, workspaceID string) ([]Document, error) {
	var docs []Document
	path := "/api/documents?workspace_id=" + url.QueryEscape(workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument streams one file to the backend for ingestion.
func (c *Client) UploadDocument(ctx context.Context, workspaceID, filename string, r io.Reader) (*Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("workspace_id", workspaceID); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read document", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/documents/upload", &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeTransport, Message: ErrBackendDown.Message, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: decodeDetail(resp.Body, "upload failed: "+resp.Status),
		}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return &doc, nil
}

// DeleteDocument removes a document and its chunks from the index.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the backend's effective settings.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings applies a partial settings change and returns the
// resulting effective settings.
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (*Settings, error) {
	var s Settings
	if err := c.do(ctx, http.MethodPut, "/api/settings", update, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// =============================================================================
// TEMPLATES
// =============================================================================

// ListTemplates returns builtin and user prompt templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var ts []Template
	if err := c.do(ctx, http.MethodGet, "/api/templates", nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// CreateTemplate stores a user template.
func (c *Client) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	var t Template
	if err := c.do(ctx, http.MethodPost, "/api/templates", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTemplate removes a user template. Builtins are rejected by the
// backend.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/templates/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// ENGINE PROXY
// =============================================================================

// EngineStatus reports the inference engine state behind the backend.
func (c *Client) EngineStatus(ctx context.Context) (*EngineStatus, error) {
	var s EngineStatus
	if err := c.do(ctx, http.MethodGet, "/api/engine/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EngineModels lists the models the engine serves.
func (c *Client) EngineModels(ctx context.Context) ([]EngineModel, error) {
	var ms []EngineModel
	if err := c.do(ctx, http.MethodGet, "/api/engine/models", nil, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// PullModel asks the engine to download a model.
func (c *Client) PullModel(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/engine/pull/"+url.PathEscape(name), nil, nil)
}
