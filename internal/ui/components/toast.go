// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/workbench-tui/internal/ui/styles"
	"github.com/jeranaias/workbench-tui/internal/util"
)

// =============================================================================
// TOAST NOTIFICATIONS
// =============================================================================

// ToastKind classifies a toast notification.
type ToastKind int

const (
	// ToastStatus is an informational toast.
	ToastStatus ToastKind = iota
	// ToastError is an error toast.
	ToastError
	// ToastWarning is a warning toast.
	ToastWarning
	// ToastSuccess is a success toast.
	ToastSuccess
)

// Auto-dismiss durations. Errors stay longer so they can be read.
const (
	statusToastDuration  = 4 * time.Second
	errorToastDuration   = 8 * time.Second
	warningToastDuration = 6 * time.Second
)

var toastCounter int64

// Toast is a non-blocking corner notification. Unlike a modal error box
// it auto-dismisses and never steals input focus.
type Toast struct {
	ID        int64
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// ToastExpiredMsg dismisses the toast with the matching ID.
type ToastExpiredMsg struct {
	ID int64
}

func newToast(message string, kind ToastKind, d time.Duration) Toast {
	return Toast{
		ID:        atomic.AddInt64(&toastCounter, 1),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// NewErrorToast creates an error toast.
func NewErrorToast(message string) Toast {
	return newToast(message, ToastError, errorToastDuration)
}

// NewWarningToast creates a warning toast.
func NewWarningToast(message string) Toast {
	return newToast(message, ToastWarning, warningToastDuration)
}

// NewSuccessToast creates a success toast.
func NewSuccessToast(message string) Toast {
	return newToast(message, ToastSuccess, statusToastDuration)
}

// NewStatusToast creates an informational toast.
func NewStatusToast(message string) Toast {
	return newToast(message, ToastStatus, statusToastDuration)
}

// ExpireCmd schedules the auto-dismiss message for this toast.
func (t Toast) ExpireCmd() tea.Cmd {
	id := t.ID
	return tea.Tick(t.Duration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// Expired reports whether the toast has outlived its duration.
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// View renders the toast at most maxWidth cells wide.
func (t Toast) View(theme *styles.Theme, maxWidth int) string {
	msg := t.Message
	if maxWidth > 4 {
		msg = util.TruncateWidth(msg, maxWidth-4)
	}

	switch t.Kind {
	case ToastError:
		return theme.ToastError.Render("x " + msg)
	case ToastWarning:
		return theme.ToastWarning.Render("! " + msg)
	case ToastSuccess:
		return theme.ToastSuccess.Render("+ " + msg)
	default:
		return theme.ToastStatus.Render("i " + msg)
	}
}
