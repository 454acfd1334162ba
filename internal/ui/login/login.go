// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in and registration screen of the parley
// TUI.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Mode selects the form.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// LoginResultMsg reports the end of a login request.
type LoginResultMsg struct{ Err error }

// RegisterResultMsg reports the end of a registration request.
type RegisterResultMsg struct{ Err error }

// AuthenticatedMsg tells the parent that a token is stored.
type AuthenticatedMsg struct{}

const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldCount
)

// KeyMap defines the form bindings.
type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Submit     key.Binding
	SwitchForm key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default form bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		SwitchForm: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "login/register"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Esc", "quit"),
		),
	}
}

// Model is the login and registration form.
type Model struct {
	auth  *auth.Service
	ctx   context.Context
	theme *styles.Theme
	keys  KeyMap

	mode    Mode
	inputs  [fieldCount]textinput.Model
	focused int

	errText  string
	infoText string
	busy     bool

	width  int
	height int
}

// New creates the form in login mode.
func New(ctx context.Context, svc *auth.Service, theme *styles.Theme) Model {
	m := Model{auth: svc, ctx: ctx, theme: theme, keys: DefaultKeyMap(), width: 80, height: 24}

	placeholders := [fieldCount]string{"username", "you@example.com", "password"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		ti.Width = 32
		ti.Prompt = "> "
		ti.Cursor.SetMode(cursor.CursorStatic)
		m.inputs[i] = ti
	}
	m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldPassword].EchoCharacter = '*'
	m.setFocus(fieldUsername)
	return m
}

// Init does nothing.
func (m Model) Init() tea.Cmd {
	return nil
}

// Mode returns the current form.
func (m Model) Mode() Mode {
	return m.mode
}

// Error returns the error shown under the form.
func (m Model) Error() string {
	return m.errText
}

// Info returns the confirmation shown under the form.
func (m Model) Info() string {
	return m.infoText
}

// SetNotice shows notice as an error, as when a session expired.
func (m *Model) SetNotice(notice string) {
	m.errText = notice
	m.infoText = ""
}

// SetTheme applies a reloaded theme.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
}

// Reset clears the fields and returns to the login form.
func (m *Model) Reset() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.mode = ModeLogin
	m.errText, m.infoText, m.busy = "", "", false
	m.setFocus(fieldUsername)
}

// fields lists the inputs shown in the current mode, in focus order.
func (m Model) fields() []int {
	if m.mode == ModeRegister {
		return []int{fieldUsername, fieldEmail, fieldPassword}
	}
	return []int{fieldUsername, fieldPassword}
}

func (m *Model) setFocus(field int) {
	m.focused = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// move shifts focus by delta within the visible fields.
func (m *Model) move(delta int) {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focused {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	m.setFocus(fields[pos])
}

func (m Model) lastField() bool {
	fields := m.fields()
	return m.focused == fields[len(fields)-1]
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles key presses and request results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case LoginResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.errText = auth.Message(msg.Err)
			m.inputs[fieldPassword].Reset()
			m.setFocus(fieldPassword)
			return m, nil
		}
		m.Reset()
		return m, func() tea.Msg { return AuthenticatedMsg{} }

	case RegisterResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.errText = auth.Message(msg.Err)
			return m, nil
		}
		m.mode = ModeLogin
		m.errText, m.infoText = "", auth.RegisterSucceeded
		m.inputs[fieldEmail].Reset()
		m.inputs[fieldPassword].Reset()
		m.setFocus(fieldPassword)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case m.busy:
		return m, nil

	case key.Matches(msg, m.keys.SwitchForm):
		if m.mode == ModeLogin {
			m.mode = ModeRegister
		} else {
			m.mode = ModeLogin
		}
		m.errText, m.infoText = "", ""
		m.setFocus(fieldUsername)
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if !m.lastField() {
			m.move(1)
			return m, nil
		}
		cmd := m.submit()
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// submit returns the request for the current form.
func (m *Model) submit() tea.Cmd {
	svc, ctx := m.auth, m.ctx
	username := m.inputs[fieldUsername].Value()
	password := m.inputs[fieldPassword].Value()

	m.busy = true
	m.errText, m.infoText = "", ""

	if m.mode == ModeRegister {
		email := m.inputs[fieldEmail].Value()
		return func() tea.Msg {
			return RegisterResultMsg{Err: svc.Register(ctx, username, email, password)}
		}
	}
	return func() tea.Msg {
		return LoginResultMsg{Err: svc.Login(ctx, username, password)}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the form centered in the window.
func (m Model) View() string {
	title := "Sign in to parley"
	if m.mode == ModeRegister {
		title = "Create a parley account"
	}

	labels := [fieldCount]string{"Username", "Email", "Password"}
	lines := []string{m.theme.FormTitle.Render(title)}
	for _, f := range m.fields() {
		lines = append(lines, m.theme.FormLabel.Render(labels[f]), m.inputs[f].View(), "")
	}

	switch {
	case m.busy:
		lines = append(lines, m.theme.FormLabel.Render("Please wait..."))
	case m.errText != "":
		lines = append(lines, m.theme.FormError.Render(m.errText))
	case m.infoText != "":
		lines = append(lines, m.theme.FormInfo.Render(m.infoText))
	}

	other := "register"
	if m.mode == ModeRegister {
		other = "sign in"
	}
	hint := strings.Join([]string{"Enter submit", "Tab next field", "Ctrl+T " + other, "Esc quit"}, "  ")
	lines = append(lines, "", m.theme.Help.Render(hint))

	box := m.theme.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
