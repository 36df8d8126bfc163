// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the workbench TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	UserMessage    lipgloss.Style
	Assistant      lipgloss.Style
	SystemMessage  lipgloss.Style
	StreamingText  lipgloss.Style

	// ==========================================================================
	// SOURCES PANEL STYLES
	// ==========================================================================

	SourcesPanel    lipgloss.Style
	SourcesTitle    lipgloss.Style
	SourceFile      lipgloss.Style
	SourceScore     lipgloss.Style
	SourceChunk     lipgloss.Style
	ConfidenceHigh  lipgloss.Style
	ConfidenceMed   lipgloss.Style
	ConfidenceLow   lipgloss.Style
	ConfidenceNone  lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	ModeGeneral   lipgloss.Style
	ModeWorkspace lipgloss.Style
	StatusReady   lipgloss.Style
	StatusBusy    lipgloss.Style
	StatusError   lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style

	// ==========================================================================
	// COMPLETION POPUP STYLES
	// ==========================================================================

	CompletionPopup    lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// TOAST STYLES
	// ==========================================================================

	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastStatus  lipgloss.Style

	// ==========================================================================
	// GENERIC TEXT STYLES
	// ==========================================================================

	Muted     lipgloss.Style
	Secondary lipgloss.Style
	ErrorText lipgloss.Style
	Success   lipgloss.Style
}

// NewTheme creates a theme from the configured preference. "dark" and
// "light" force the palette variant; "auto" keeps termenv's detection.
func NewTheme(preference string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := termenv.HasDarkBackground()
	switch preference {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserFg)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(AssistantFg)

	t.SystemLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(SystemFg)

	t.UserMessage = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBorder).
		PaddingLeft(1)

	t.Assistant = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SystemMessage = lipgloss.NewStyle().
		Foreground(SystemFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(SystemBorder).
		PaddingLeft(1)

	t.StreamingText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Sources panel
	t.SourcesPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SourcesTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.SourceFile = lipgloss.NewStyle().
		Foreground(Cyan)

	t.SourceScore = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SourceChunk = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ConfidenceHigh = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.ConfidenceMed = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	t.ConfidenceLow = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.ConfidenceNone = lipgloss.NewStyle().Foreground(TextMuted)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ModeGeneral = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ModeWorkspace = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusReady = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Completion popup
	t.CompletionPopup = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Toasts
	toast := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Bold(true)

	t.ToastError = toast.BorderForeground(Rose).Foreground(Rose)
	t.ToastWarning = toast.BorderForeground(Amber).Foreground(Amber)
	t.ToastSuccess = toast.BorderForeground(Emerald).Foreground(Emerald)
	t.ToastStatus = toast.BorderForeground(Cyan).Foreground(Cyan)

	// Generic text
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Secondary = lipgloss.NewStyle().Foreground(TextSecondary)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
}

// Confidence returns the style for an aggregate confidence label.
func (t *Theme) Confidence(confidence string) lipgloss.Style {
	switch confidence {
	case "high":
		return t.ConfidenceHigh
	case "medium":
		return t.ConfidenceMed
	case "low":
		return t.ConfidenceLow
	default:
		return t.ConfidenceNone
	}
}
