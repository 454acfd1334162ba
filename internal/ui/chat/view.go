// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/components"
)

// View renders the chat screen.
func (m Model) View() string {
	m.header.Conversation = m.activeTitle()
	header := m.header.View()

	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxFocused
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		box.Render(m.input.View()),
	)

	body := main
	if w := m.theme.SidebarWidth(); w > 0 {
		side := components.RenderSidebar(m.theme, components.SidebarView{
			Entries: m.app.Sidebar.Entries(),
			Status:  m.app.Sidebar.Status(),
			Cursor:  m.cursor,
			Focused: m.focus == focusSidebar,
			Width:   w,
			Height:  lipgloss.Height(main),
		})
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.statusLine(),
		m.theme.Help.Render(m.help.View(m.keys)),
	)
}

func (m Model) statusLine() string {
	switch {
	case m.inflight > 0:
		return m.theme.StatusBar.Render(m.spinner.View())
	case m.statusErr:
		return m.theme.StatusBar.Render(m.theme.StatusError.Render(m.status))
	default:
		return m.theme.StatusBar.Render(m.status)
	}
}

func (m Model) activeTitle() string {
	for _, e := range m.app.Sidebar.Entries() {
		if e.Active {
			return e.Title
		}
	}
	return ""
}

// Status returns the transient status text.
func (m Model) Status() string {
	return m.status
}
