// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/app"
	"github.com/jeranaias/parley-tui/internal/convsync"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/view"
)

// =============================================================================
// MESSAGES
// =============================================================================

// BootMsg reports the end of the load sequence.
type BootMsg struct {
	Result *app.BootResult
	Err    error
}

// ReplyMsg reports the end of a send.
type ReplyMsg struct {
	Err error
}

// OpenedMsg reports the end of a sidebar selection.
type OpenedMsg struct {
	ID      string
	Outcome convsync.Outcome
	Err     error
}

// SessionEndedMsg asks the parent to show the login screen with Notice.
type SessionEndedMsg struct {
	Notice string
}

// =============================================================================
// MODEL
// =============================================================================

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

const (
	inputLines   = 3
	headerHeight = 1
	statusHeight = 1
)

// Model is the chat screen. It renders the session's panel and sidebar and
// runs network work in commands.
type Model struct {
	app   *app.App
	ctx   context.Context
	theme *styles.Theme
	keys  KeyMap

	header   *components.Header
	help     help.Model
	input    textarea.Model
	viewport viewport.Model
	spinner  components.Spinner
	md       *components.Markdown

	focus  focusArea
	cursor int
	width  int
	height int

	// inflight counts boots, sends and opens that have not reported back.
	inflight  int
	status    string
	statusErr bool

	renderedVersion uint64
	renderedWidth   int
	rendered        bool
}

// New creates the chat screen for a. Commands run under ctx.
func New(ctx context.Context, a *app.App, theme *styles.Theme) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(inputLines)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.Focus()

	m := Model{
		app:      a,
		ctx:      ctx,
		theme:    theme,
		keys:     DefaultKeyMap(),
		header:   components.NewHeader(theme),
		help:     help.New(),
		input:    ta,
		viewport: viewport.New(80, 20),
		spinner:  components.NewSpinner(theme, styles.LineSpinner, ""),
		md:       components.NewMarkdown(theme, a.UI().Markdown, 70),
		width:    80,
		height:   24,
	}
	m.layout()
	return m
}

// Init does nothing; the parent starts the load sequence with Boot so the
// in-flight count lands on its copy of the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Boot returns a command running the load sequence with the spinner.
func (m *Model) Boot() tea.Cmd {
	a, ctx := m.app, m.ctx
	return m.startWork("Loading", func() tea.Msg {
		res, err := a.Boot(ctx)
		return BootMsg{Result: res, Err: err}
	})
}

// SetTheme applies a reloaded theme and UI settings.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.header.SetTheme(theme)
	m.spinner = components.NewSpinner(theme, styles.LineSpinner, "")
	m.rendered = false
	m.layout()
}

// startWork counts cmd as in flight and starts the spinner with label.
func (m *Model) startWork(label string, cmd tea.Cmd) tea.Cmd {
	m.inflight++
	m.spinner.SetLabel(label)
	m.status, m.statusErr = "", false
	return tea.Batch(cmd, m.spinner.Tick())
}

func (m *Model) finishWork() {
	if m.inflight > 0 {
		m.inflight--
	}
}

// Busy reports whether any command is in flight.
func (m Model) Busy() bool {
	return m.inflight > 0
}

// layout sizes the panes for the current window.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	m.header.Width = m.width
	m.help.Width = m.width

	mainWidth := m.width - m.theme.SidebarWidth()
	// The input box border and padding take four columns.
	m.input.SetWidth(max(mainWidth-4, 10))

	helpHeight := lipgloss.Height(m.help.View(m.keys))
	vpHeight := m.height - headerHeight - (inputLines + 2) - statusHeight - helpHeight
	m.viewport.Width = max(mainWidth, 10)
	m.viewport.Height = max(vpHeight, 3)

	m.md.Configure(m.theme, m.app.UI().Markdown, max(mainWidth-10, 20))
	m.rendered = false
	m.refresh()
}

// refresh redraws the viewport when the panel changed since the last draw.
func (m *Model) refresh() {
	snap := m.app.Panel.Snapshot()
	if m.rendered && snap.Version == m.renderedVersion && m.viewport.Width == m.renderedWidth {
		return
	}

	var content string
	if snap.Mode == view.ModeWelcome {
		content = components.RenderWelcome(m.theme, m.app.Suggestions().All(), snap.Notice, m.viewport.Width)
	} else {
		content = components.RenderMessages(m.theme, m.md, snap, m.viewport.Width)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()

	m.rendered = true
	m.renderedVersion = snap.Version
	m.renderedWidth = m.viewport.Width
}
