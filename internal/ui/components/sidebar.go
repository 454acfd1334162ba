// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/parley-tui/internal/sidebar"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// SidebarView is what RenderSidebar draws.
type SidebarView struct {
	Entries []sidebar.Entry
	Status  string
	Cursor  int
	Focused bool
	Width   int
	Height  int
}

// RenderSidebar draws the conversation list. Titles are cut to one line of
// the available width, and the list scrolls to keep the cursor visible.
func RenderSidebar(theme *styles.Theme, v SidebarView) string {
	box := theme.Sidebar
	if v.Focused {
		box = theme.SidebarFocused
	}
	// Border and padding take four columns.
	inner := max(v.Width-4, 4)

	lines := []string{theme.SidebarTitle.Render("Conversations")}
	if len(v.Entries) == 0 {
		lines = append(lines, theme.SidebarStatus.Render(util.FitWidth(v.Status, inner)))
	}

	rows := max(v.Height-4, 1)
	first := 0
	if v.Cursor >= rows {
		first = v.Cursor - rows + 1
	}
	for i := first; i < len(v.Entries) && i < first+rows; i++ {
		e := v.Entries[i]
		title := runewidth.FillRight(util.FitWidth(strings.Join(strings.Fields(util.SingleLine(e.Title)), " "), inner), inner)
		switch {
		case v.Focused && i == v.Cursor:
			lines = append(lines, theme.SidebarCursor.Render(title))
		case e.Active:
			lines = append(lines, theme.SidebarActive.Render(title))
		default:
			lines = append(lines, theme.SidebarItem.Render(title))
		}
	}

	return box.Width(v.Width - 2).Height(max(v.Height-2, 1)).Render(strings.Join(lines, "\n"))
}
