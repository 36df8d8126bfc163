// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across the client:
// workspaces, conversations, messages, retrieval sources, and the
// confidence aggregation derived from them.
package model
