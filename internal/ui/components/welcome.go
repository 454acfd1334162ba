// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// RenderWelcome renders the welcome panel with numbered suggestions.
func RenderWelcome(theme *styles.Theme, suggestions []string, notice string, width int) string {
	var parts []string
	if notice != "" {
		parts = append(parts, theme.Notice.Width(max(width-2, 10)).Render(notice), "")
	}
	parts = append(parts,
		theme.WelcomeTitle.Render("Welcome to parley"),
		theme.WelcomeText.Width(max(width-2, 10)).Render("Type a message below to start a new conversation."),
	)
	if len(suggestions) > 0 {
		parts = append(parts, "", theme.WelcomeText.Render("Or press a number to use a suggested question:"))
		for i, q := range suggestions {
			key := theme.SuggestionKey.Render(string(rune('1' + i)))
			parts = append(parts, "  "+key+"  "+theme.Suggestion.Render(q))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
