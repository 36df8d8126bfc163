// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local conversation archive.
//
// The archive is a single SQLite database (default
// ~/.workbench/archive.db) holding snapshots of conversations fetched
// from the backend. It exists so history stays searchable offline and
// survives backend resets. The backend remains the source of truth;
// the archive is write-behind and never read during a live session.
package storage
