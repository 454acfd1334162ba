// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the Bubble Tea front end of parley. Model switches between
// the login screen and the chat screen and routes session expiry and
// configuration reloads to them.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/app"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/events"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/login"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Screen identifies the visible screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenChat
)

// ConfigChangedMsg carries a reloaded configuration.
type ConfigChangedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a configuration file that failed to reload. The
// previous settings stay in effect.
type ConfigErrorMsg struct {
	Err error
}

type sessionExpiredMsg struct {
	reason string
}

// Model is the root model.
type Model struct {
	app   *app.App
	ctx   context.Context
	theme *styles.Theme

	screen Screen
	login  login.Model
	chat   chat.Model

	expired     chan events.AuthExpired
	unsubscribe func()

	width  int
	height int
}

// New creates the root model. A stored token opens the chat screen
// directly; the load sequence sends the user back to login if it is stale.
func New(ctx context.Context, a *app.App) *Model {
	theme := styles.NewTheme(a.UI().Theme)
	m := &Model{
		app:     a,
		ctx:     ctx,
		theme:   theme,
		login:   login.New(ctx, a.Auth, theme),
		chat:    chat.New(ctx, a, theme),
		expired: make(chan events.AuthExpired, 1),
		width:   80,
		height:  24,
	}
	// Expiry is published from command goroutines; the channel hands it to
	// the update loop.
	m.unsubscribe = a.Bus.Expired.Subscribe(func(ev events.AuthExpired) {
		select {
		case m.expired <- ev:
		default:
		}
	})
	if a.Auth.LoggedIn() {
		m.screen = ScreenChat
	}
	return m
}

// NewProgram wraps m in a full-screen program bound to ctx.
func NewProgram(ctx context.Context, m *Model) *tea.Program {
	return tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
}

// Close detaches the model from the event bus.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Screen returns the visible screen.
func (m *Model) Screen() Screen {
	return m.screen
}

// Init starts listening for expiry and boots the chat screen when a token
// is stored.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForExpiry()}
	if m.screen == ScreenChat {
		cmds = append(cmds, m.chat.Boot())
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForExpiry() tea.Cmd {
	ch, done := m.expired, m.ctx.Done()
	return func() tea.Msg {
		select {
		case ev := <-ch:
			return sessionExpiredMsg{reason: ev.Reason}
		case <-done:
			return nil
		}
	}
}

// Update routes messages to the visible screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		lm, _ := m.login.Update(msg)
		m.login = lm.(login.Model)
		cm, _ := m.chat.Update(msg)
		m.chat = cm.(chat.Model)
		return m, nil

	case ConfigChangedMsg:
		m.app.ApplyConfig(msg.Config)
		m.theme = styles.NewTheme(m.app.UI().Theme)
		m.login.SetTheme(m.theme)
		m.chat.SetTheme(m.theme)
		return m, nil

	case ConfigErrorMsg:
		m.app.Log.Warn().Err(msg.Err).Msg("config reload failed")
		return m, nil

	case sessionExpiredMsg:
		m.showLogin(auth.SessionExpired)
		return m, m.waitForExpiry()

	case chat.SessionEndedMsg:
		if m.screen == ScreenLogin && msg.Notice == "" {
			return m, nil
		}
		m.showLogin(msg.Notice)
		return m, nil

	case login.AuthenticatedMsg:
		return m, m.showChat()
	}

	var cmd tea.Cmd
	if m.screen == ScreenChat {
		var next tea.Model
		next, cmd = m.chat.Update(msg)
		m.chat = next.(chat.Model)
	} else {
		var next tea.Model
		next, cmd = m.login.Update(msg)
		m.login = next.(login.Model)
	}
	return m, cmd
}

func (m *Model) showLogin(notice string) {
	m.screen = ScreenLogin
	m.login.Reset()
	if notice != "" {
		m.login.SetNotice(notice)
	}
}

// showChat builds a fresh chat screen for the new session and boots it.
func (m *Model) showChat() tea.Cmd {
	m.screen = ScreenChat
	m.chat = chat.New(m.ctx, m.app, m.theme)
	cm, _ := m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.chat = cm.(chat.Model)
	return m.chat.Boot()
}

// View renders the visible screen.
func (m *Model) View() string {
	if m.screen == ScreenChat {
		return m.chat.View()
	}
	return m.login.View()
}
