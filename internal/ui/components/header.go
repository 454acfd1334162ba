// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Header is the title bar: the app name on the left, the signed-in user and
// the conversation title on the right.
type Header struct {
	Title        string
	User         string
	Conversation string
	Width        int
	theme        *styles.Theme
}

// NewHeader creates a header titled "parley".
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "parley", Width: 80, theme: theme}
}

// SetTheme swaps the theme after a configuration reload.
func (h *Header) SetTheme(theme *styles.Theme) {
	h.theme = theme
}

// View renders the header across Width columns.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render(h.Title)

	var right []string
	if h.Conversation != "" {
		right = append(right, h.Conversation)
	}
	if h.User != "" {
		right = append(right, "@"+h.User)
	}
	rightText := h.theme.HeaderUser.Render(strings.Join(right, "  "))

	// Header padding takes two columns.
	gap := h.Width - 2 - lipgloss.Width(left) - lipgloss.Width(rightText)
	if gap < 1 {
		return h.theme.Header.Width(max(h.Width, 1)).Render(left)
	}
	return h.theme.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + rightText)
}
