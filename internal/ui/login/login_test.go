// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/devserver"
	"github.com/jeranaias/parley-tui/internal/events"
	"github.com/jeranaias/parley-tui/internal/kv"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	ts := httptest.NewServer(devserver.New().WithPasswordCost(bcrypt.MinCost).Handler())
	t.Cleanup(ts.Close)

	store := kv.NewVolatile()
	client := api.NewClient(ts.URL+devserver.Prefix).
		WithRateLimit(0, 0).
		WithTokenSource(func() string { return kv.GetString(store, kv.KeyToken) })
	return auth.NewService(client, store, events.NewBus()).WithLogger(zerolog.Nop())
}

func newForm(t *testing.T) (Model, *auth.Service) {
	t.Helper()
	svc := newService(t)
	return New(context.Background(), svc, styles.NewTheme(styles.ThemeDark)), svc
}

// step sends msg and runs the resulting command once, feeding its message
// back. It returns the messages produced.
func step(t *testing.T, m Model, msg tea.Msg) (Model, []tea.Msg) {
	t.Helper()
	var seen []tea.Msg
	next, cmd := m.Update(msg)
	m = next.(Model)
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 10)
		out := cmd()
		if out == nil {
			break
		}
		seen = append(seen, out)
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m, seen
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func fill(t *testing.T, m Model, values ...string) Model {
	t.Helper()
	for i, v := range values {
		m = typeText(t, m, v)
		if i < len(values)-1 {
			m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
		}
	}
	return m
}

func contains(msgs []tea.Msg, want tea.Msg) bool {
	for _, m := range msgs {
		if m == want {
			return true
		}
	}
	return false
}

func TestLogin_Success(t *testing.T) {
	m, svc := newForm(t)
	require.NoError(t, svc.Register(context.Background(), "alice", "alice@example.com", "pw"))

	m = fill(t, m, "alice", "pw")
	m, msgs := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, contains(msgs, AuthenticatedMsg{}))
	assert.True(t, svc.LoggedIn())
	assert.Empty(t, m.Error())
}

func TestLogin_WrongPassword(t *testing.T) {
	m, svc := newForm(t)
	require.NoError(t, svc.Register(context.Background(), "alice", "alice@example.com", "pw"))

	m = fill(t, m, "alice", "nope")
	m, msgs := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, contains(msgs, AuthenticatedMsg{}))
	assert.Equal(t, "Incorrect username or password", m.Error())
	assert.Empty(t, m.inputs[fieldPassword].Value(), "password is cleared")
	assert.Equal(t, "alice", m.inputs[fieldUsername].Value())
	assert.Contains(t, m.View(), "Incorrect username or password")
}

func TestLogin_EmptyFields(t *testing.T) {
	m, _ := newForm(t)

	// Enter on the username field moves on instead of submitting.
	m, msgs := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, msgs)
	assert.Equal(t, fieldPassword, m.focused)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Please enter username and password.", m.Error())
}

func TestRegister_ThenLogin(t *testing.T) {
	m, svc := newForm(t)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, ModeRegister, m.Mode())
	assert.Contains(t, m.View(), "Create a parley account")

	m = fill(t, m, "bob", "bob@example.com", "pw")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeLogin, m.Mode())
	assert.Equal(t, auth.RegisterSucceeded, m.Info())
	assert.Equal(t, "bob", m.inputs[fieldUsername].Value())
	assert.Equal(t, fieldPassword, m.focused)
	assert.Contains(t, m.View(), auth.RegisterSucceeded)

	m = typeText(t, m, "pw")
	_, msgs := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, contains(msgs, AuthenticatedMsg{}))
	assert.True(t, svc.LoggedIn())
}

func TestRegister_Duplicate(t *testing.T) {
	m, svc := newForm(t)
	require.NoError(t, svc.Register(context.Background(), "bob", "bob@example.com", "pw"))

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = fill(t, m, "bob", "other@example.com", "pw")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeRegister, m.Mode())
	assert.Equal(t, "Username already registered", m.Error())
}

func TestRegister_InvalidEmail(t *testing.T) {
	m, _ := newForm(t)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = fill(t, m, "bob", "not-an-email", "pw")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Please enter a valid email address.", m.Error())
}

func TestFocusCycle(t *testing.T) {
	m, _ := newForm(t)
	assert.Equal(t, fieldUsername, m.focused)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldPassword, m.focused, "login skips the email field")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldUsername, m.focused)
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldPassword, m.focused)
}

func TestPasswordIsMasked(t *testing.T) {
	m, _ := newForm(t)
	m = fill(t, m, "alice", "secret")
	assert.NotContains(t, m.View(), "secret")
	assert.Contains(t, m.View(), "alice")
}

func TestSetNoticeAndReset(t *testing.T) {
	m, _ := newForm(t)
	m.SetNotice(auth.SessionExpired)
	assert.Equal(t, auth.SessionExpired, m.Error())
	assert.Contains(t, m.View(), auth.SessionExpired)

	m.Reset()
	assert.Empty(t, m.Error())
	assert.Equal(t, ModeLogin, m.Mode())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "login", ModeLogin.String())
	assert.Equal(t, "register", ModeRegister.String())
}
