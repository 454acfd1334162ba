// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley-tui/internal/api"
)

// exclusive checks that exactly one of welcome/message-list is visible.
func exclusive(t *testing.T, s Snapshot) {
	t.Helper()
	if s.Mode == ModeWelcome {
		assert.Empty(t, s.Messages, "welcome state must not show messages")
	} else {
		assert.NotEmpty(t, s.Messages, "message state must show messages")
	}
}

func TestPanel_StartsWelcome(t *testing.T) {
	p := NewPanel()
	s := p.Snapshot()
	assert.Equal(t, ModeWelcome, s.Mode)
	exclusive(t, s)
}

func TestPanel_ShowConversation(t *testing.T) {
	p := NewPanel()
	p.ShowLoading()
	assert.True(t, p.Snapshot().Loading)
	assert.False(t, p.ShowingConversation("42"))

	p.ShowConversation("42", []api.Message{api.NewUserMessage("hi"), api.NewAssistantMessage("hello")})

	s := p.Snapshot()
	assert.Equal(t, ModeMessages, s.Mode)
	assert.False(t, s.Loading)
	assert.Equal(t, "42", s.ConversationID)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hello", s.Messages[1].Content)
	assert.True(t, p.ShowingConversation("42"))
	assert.False(t, p.ShowingConversation("43"))
	exclusive(t, s)
}

func TestPanel_BindConversationEndsLoading(t *testing.T) {
	p := NewPanel()
	p.AppendUser("hello")
	p.ShowLoading()
	p.BindConversation("7")

	s := p.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, "7", s.ConversationID)
	assert.True(t, p.ShowingConversation("7"))
}

func TestPanel_EmptyHistoryIsWelcome(t *testing.T) {
	p := NewPanel()
	p.ShowConversation("1", []api.Message{api.NewUserMessage("old")})
	p.ShowConversation("42", nil)

	s := p.Snapshot()
	assert.Equal(t, ModeWelcome, s.Mode)
	assert.False(t, p.ShowingConversation("42"))
	exclusive(t, s)
}

func TestPanel_PendingResolve(t *testing.T) {
	p := NewPanel()
	p.AppendUser("hello")
	id := p.AddPending("Thinking...")

	s := p.Snapshot()
	assert.Equal(t, ModeMessages, s.Mode)
	require.Len(t, s.Messages, 2)
	assert.True(t, s.Messages[1].Pending)

	assert.True(t, p.Resolve(id, "You said: hello"))
	s = p.Snapshot()
	assert.False(t, s.Messages[1].Pending)
	assert.Equal(t, "You said: hello", s.Messages[1].Content)

	assert.False(t, p.Resolve(id, "again"), "resolved placeholder cannot be resolved twice")
}

func TestPanel_PendingFailKeepsUserMessage(t *testing.T) {
	p := NewPanel()
	p.AppendUser("hello")
	id := p.AddPending("Thinking...")

	assert.True(t, p.Fail(id, "Sorry"))
	s := p.Snapshot()
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hello", s.Messages[0].Content)
	assert.True(t, s.Messages[1].Failed)
}

func TestPanel_ResolveAfterWelcome(t *testing.T) {
	p := NewPanel()
	p.AppendUser("hello")
	id := p.AddPending("Thinking...")
	p.ShowWelcome()

	assert.False(t, p.Resolve(id, "late"))
	exclusive(t, p.Snapshot())
}

func TestPanel_WelcomeError(t *testing.T) {
	p := NewPanel()
	p.ShowConversation("5", []api.Message{api.NewUserMessage("x")})
	p.ShowWelcomeError("Error loading conversation. Starting a new chat.")

	s := p.Snapshot()
	assert.Equal(t, ModeWelcome, s.Mode)
	assert.Equal(t, "Error loading conversation. Starting a new chat.", s.Notice)
	assert.Empty(t, s.ConversationID)
	exclusive(t, s)
}

func TestPanel_VersionIncrements(t *testing.T) {
	p := NewPanel()
	v0 := p.Snapshot().Version
	p.SetNotice("x")
	p.BindConversation("7")
	assert.Equal(t, v0+2, p.Snapshot().Version)
	assert.Equal(t, "7", p.Snapshot().ConversationID)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "welcome", ModeWelcome.String())
	assert.Equal(t, "messages", ModeMessages.String())
}
