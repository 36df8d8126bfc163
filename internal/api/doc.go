// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the Local AI Workspace backend.
//
// It covers two surfaces: the streaming chat endpoint, decoded frame by
// frame into typed stream events, and the plain request/response endpoints
// for conversations, workspaces, documents, settings, templates, and the
// inference engine proxy.
package api
