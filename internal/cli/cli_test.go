// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley-tui/internal/app"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/devserver"
	"github.com/jeranaias/parley-tui/internal/kv"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// scriptReader replays lines and records what the REPL asked for.
type scriptReader struct {
	lines     []string
	prompts   []string
	suggested []string
	history   []string
}

func (s *scriptReader) next(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptReader) Prompt(prompt string) (string, error)         { return s.next(prompt) }
func (s *scriptReader) PasswordPrompt(prompt string) (string, error) { return s.next(prompt) }
func (s *scriptReader) AppendHistory(item string)                    { s.history = append(s.history, item) }

func (s *scriptReader) PromptWithSuggestion(prompt, text string, pos int) (string, error) {
	s.suggested = append(s.suggested, text)
	return s.next(prompt)
}

func newApp(t *testing.T) *app.App {
	t.Helper()
	ts := httptest.NewServer(devserver.New().WithPasswordCost(bcrypt.MinCost).Handler())
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.API.BaseURL = ts.URL + devserver.Prefix
	cfg.API.RateLimit = 0

	a, err := app.New(app.Options{Config: cfg, Logger: zerolog.Nop(), Persistent: kv.NewVolatile()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func loggedIn(t *testing.T, name string) *app.App {
	t.Helper()
	a := newApp(t)
	ctx := context.Background()
	require.NoError(t, a.Auth.Register(ctx, name, name+"@example.com", "pw"))
	require.NoError(t, a.Auth.Login(ctx, name, "pw"))
	return a
}

func runREPL(t *testing.T, a *app.App, lines ...string) (string, *scriptReader) {
	t.Helper()
	in := &scriptReader{lines: lines}
	var out bytes.Buffer
	require.NoError(t, NewREPL(a, in, &out).Run(context.Background()))
	return out.String(), in
}

// =============================================================================
// REPL
// =============================================================================

func TestREPL_RegisterLoginAndChat(t *testing.T) {
	a := newApp(t)
	out, in := runREPL(t, a,
		"/register", "bob", "bob@example.com", "pw",
		"bob", "pw",
		"hello there",
		"/list",
		"/quit",
	)

	assert.Contains(t, out, "Registration successful! Please login.")
	assert.Contains(t, out, "Logged in as bob")
	assert.Contains(t, out, "Thinking...")
	assert.Contains(t, out, "You said: hello there")
	assert.Contains(t, out, "Started conversation 1")
	assert.Contains(t, out, "hello there")
	assert.True(t, a.Auth.LoggedIn())
	assert.Equal(t, "1", a.Sync.Active())
	assert.Equal(t, []string{"hello there", "/list", "/quit"}, in.history)
}

func TestREPL_WrongPasswordAsksAgain(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Auth.Register(context.Background(), "bob", "bob@example.com", "pw"))

	out, in := runREPL(t, a, "bob", "nope", "/quit")

	assert.Contains(t, out, "Incorrect username or password")
	assert.False(t, a.Auth.LoggedIn())
	assert.Equal(t, []string{"username: ", "password: ", "username: "}, in.prompts)
}

func TestREPL_EOFExits(t *testing.T) {
	a := loggedIn(t, "bob")
	out, _ := runREPL(t, a)
	assert.Contains(t, out, "Start a new conversation")
}

func TestREPL_SuggestPrefillsPrompt(t *testing.T) {
	a := loggedIn(t, "bob")
	first := config.DefaultSuggestedQuestions[0]

	out, in := runREPL(t, a, "/suggest", "/suggest 1", first, "/suggest 99", "/quit")

	assert.Contains(t, out, first)
	assert.Contains(t, out, "You said: "+first)
	assert.Contains(t, out, "no suggestion 99")
	assert.Equal(t, []string{first}, in.suggested)
}

func TestREPL_OpenConversation(t *testing.T) {
	a := loggedIn(t, "bob")
	out, _ := runREPL(t, a, "first", "/new", "second", "/open 1", "/open 1", "/open 42", "/quit")

	assert.Equal(t, "1", a.Sync.Active())
	assert.Contains(t, out, "already viewing 1")
	assert.Contains(t, out, "no conversation 42")
	assert.Equal(t, 2, strings.Count(out, "You said: first"), "reply once when sent, once when opened")
}

func TestREPL_WhoamiAndUnknown(t *testing.T) {
	a := loggedIn(t, "bob")
	out, _ := runREPL(t, a, "/whoami", "/bogus", "/help", "/exit")

	assert.Contains(t, out, "bob <bob@example.com>")
	assert.Contains(t, out, "unknown command /bogus")
	assert.Contains(t, out, "/suggest [N]")
}

func TestREPL_LogoutAsksForLogin(t *testing.T) {
	a := loggedIn(t, "bob")
	out, in := runREPL(t, a, "/logout", "/quit")

	assert.Contains(t, out, "Logged out.")
	assert.False(t, a.Auth.LoggedIn())
	assert.Equal(t, "username: ", in.prompts[len(in.prompts)-1])
}

// =============================================================================
// COMMANDS
// =============================================================================

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("PARLEY_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--force", "--config", path)
	require.NoError(t, err)

	out, err = execute(t, "config", "show", "--config", path, "--url", "http://example.test/api/v1")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url = \"http://example.test/api/v1\"")
	assert.Contains(t, out, "[ui]")
}

func TestConfigShow_MissingExplicitFile(t *testing.T) {
	t.Setenv("PARLEY_HOME", t.TempDir())
	_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PARLEY_HOME", home)
	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), strings.TrimSpace(out))
}

func TestStartLocation(t *testing.T) {
	assert.Equal(t, "", startLocation(""))
	assert.Equal(t, "/chat?conversation_id=7", startLocation("7"))
}
