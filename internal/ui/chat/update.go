// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/app"
	"github.com/jeranaias/parley-tui/internal/convsync"
	"github.com/jeranaias/parley-tui/internal/view"
)

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case BootMsg:
		m.finishWork()
		if errors.Is(msg.Err, app.ErrLoggedOut) {
			return m, endSession("")
		}
		if msg.Result != nil {
			if msg.Result.User != nil {
				m.header.User = msg.Result.User.Username
			}
			if !msg.Result.Fresh {
				m.status = fmt.Sprintf("Reloaded (load %d)", msg.Result.LoadCount)
			}
		}
		m.clampCursor()
		m.refresh()
		return m, nil

	case ReplyMsg:
		m.finishWork()
		if msg.Err != nil {
			m.status, m.statusErr = "Message not sent", true
		}
		m.refresh()
		return m, nil

	case OpenedMsg:
		m.finishWork()
		if msg.Outcome == convsync.Failed {
			m.status, m.statusErr = "Could not open conversation", true
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.inflight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// Background passes (events from a send) may have changed the panel.
		m.refresh()
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func endSession(notice string) tea.Cmd {
	return func() tea.Msg { return SessionEndedMsg{Notice: notice} }
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		m.app.Logout()
		m.input.Reset()
		m.header.User = ""
		return m, endSession("")

	case key.Matches(msg, m.keys.NewChat):
		m.app.Composer.NewChat()
		m.input.Reset()
		m.focusOnInput()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		cmd := m.Boot()
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.FocusSidebar):
		if m.focus == focusSidebar {
			m.focusOnInput()
		} else {
			m.focusOnSidebar()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.app.Sidebar.Entries()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.focusOnInput()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < 0 || m.cursor >= len(entries) {
			return m, nil
		}
		cmd := m.open(entries[m.cursor].ID)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		cmd := m.send()
		return m, cmd

	case key.Matches(msg, m.keys.Suggest) && m.suggestionsActive():
		// Keys are "1".."9"; suggestions are zero-based.
		i := int(msg.String()[0] - '1')
		if m.app.Suggestions().Apply(i, m.app.Composer) {
			m.input.SetValue(m.app.Composer.Input())
			m.input.CursorEnd()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.app.Composer.SetInput(m.input.Value())
	return m, cmd
}

// suggestionsActive reports whether number keys pick suggestions: only on
// the welcome panel with an empty draft.
func (m Model) suggestionsActive() bool {
	return m.app.Panel.Mode() == view.ModeWelcome && strings.TrimSpace(m.input.Value()) == ""
}

// =============================================================================
// ACTIONS
// =============================================================================

// send shows the draft optimistically and returns the command sending it.
func (m *Model) send() tea.Cmd {
	p, err := m.app.Composer.Begin(m.input.Value())
	if err != nil {
		// Blank drafts are not sent.
		return nil
	}
	m.input.Reset()
	m.refresh()

	ctx := m.ctx
	return m.startWork("Thinking...", func() tea.Msg {
		return ReplyMsg{Err: p.Complete(ctx)}
	})
}

// open returns the command switching to conversation id.
func (m *Model) open(id string) tea.Cmd {
	if m.app.Sync.Active() == id {
		m.focusOnInput()
		return nil
	}
	a, ctx := m.app, m.ctx
	return m.startWork("Loading", func() tea.Msg {
		out, err := a.Open(ctx, id)
		return OpenedMsg{ID: id, Outcome: out, Err: err}
	})
}

func (m *Model) focusOnInput() {
	m.focus = focusInput
	m.input.Focus()
}

func (m *Model) focusOnSidebar() {
	m.focus = focusSidebar
	m.input.Blur()
	m.cursor = 0
	for i, e := range m.app.Sidebar.Entries() {
		if e.Active {
			m.cursor = i
			break
		}
	}
}

func (m *Model) clampCursor() {
	n := len(m.app.Sidebar.Entries())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
