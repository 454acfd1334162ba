// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package view holds the state of the message panel: either the welcome
// screen or a list of messages, never both. Front ends render Snapshots.
package view

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/parley-tui/internal/api"
)

// Mode selects what the message panel shows.
type Mode int

const (
	// ModeWelcome shows the welcome panel and no messages.
	ModeWelcome Mode = iota
	// ModeMessages shows the message list.
	ModeMessages
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeMessages {
		return "messages"
	}
	return "welcome"
}

// Entry is one rendered message.
type Entry struct {
	ID      string
	Role    string
	Content string
	Pending bool
	Failed  bool
}

// Snapshot is an immutable copy of the panel state.
type Snapshot struct {
	Mode           Mode
	ConversationID string
	Messages       []Entry
	Notice         string
	Loading        bool
	Version        uint64
}

// Panel is the concurrency-safe message panel model.
type Panel struct {
	mu             sync.RWMutex
	mode           Mode
	conversationID string
	messages       []Entry
	notice         string
	loading        bool
	version        uint64
}

// NewPanel returns a panel in the welcome state.
func NewPanel() *Panel {
	return &Panel{}
}

// changed must be called with mu held after every mutation.
func (p *Panel) changed() {
	p.version++
}

// ShowWelcome resets to the welcome state and clears the message list and
// any notice.
func (p *Panel) ShowWelcome() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = ModeWelcome
	p.conversationID = ""
	p.messages = nil
	p.notice = ""
	p.loading = false
	p.changed()
}

// ShowWelcomeError resets to the welcome state with an inline error.
func (p *Panel) ShowWelcomeError(notice string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = ModeWelcome
	p.conversationID = ""
	p.messages = nil
	p.notice = notice
	p.loading = false
	p.changed()
}

// ShowLoading marks a history fetch as in flight. The current content stays
// visible until the fetch resolves.
func (p *Panel) ShowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = true
	p.notice = ""
	p.changed()
}

// ShowConversation renders the history of id. An empty history degrades to
// the welcome state.
func (p *Panel) ShowConversation(id string, messages []api.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	p.notice = ""
	if len(messages) == 0 {
		p.mode = ModeWelcome
		p.conversationID = ""
		p.messages = nil
		p.changed()
		return
	}
	p.mode = ModeMessages
	p.conversationID = id
	p.messages = make([]Entry, 0, len(messages))
	for _, m := range messages {
		p.messages = append(p.messages, Entry{ID: uuid.NewString(), Role: m.Role, Content: m.Content})
	}
	p.changed()
}

// BindConversation records that the visible messages belong to id, as when
// the server assigns an id to the conversation just started.
func (p *Panel) BindConversation(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conversationID = id
	p.loading = false
	p.changed()
}

// ShowingConversation reports whether the panel already displays the
// messages of id.
func (p *Panel) ShowingConversation(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return id != "" && p.mode == ModeMessages && !p.loading && p.conversationID == id
}

// AppendUser adds a user message, leaving the welcome state if needed.
func (p *Panel) AppendUser(content string) string {
	return p.append(Entry{Role: api.RoleUser, Content: content})
}

// AddPending adds an assistant placeholder and returns its id.
func (p *Panel) AddPending(placeholder string) string {
	return p.append(Entry{Role: api.RoleAssistant, Content: placeholder, Pending: true})
}

func (p *Panel) append(e Entry) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.ID = uuid.NewString()
	p.mode = ModeMessages
	p.notice = ""
	p.messages = append(p.messages, e)
	p.changed()
	return e.ID
}

// Resolve replaces the placeholder id with the assistant reply. It reports
// false when the placeholder is gone, e.g. after a new chat was started.
func (p *Panel) Resolve(id, content string) bool {
	return p.replace(id, content, false)
}

// Fail replaces the placeholder id with an inline error.
func (p *Panel) Fail(id, notice string) bool {
	return p.replace(id, notice, true)
}

func (p *Panel) replace(id, content string, failed bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.messages {
		if p.messages[i].ID == id && p.messages[i].Pending {
			p.messages[i].Content = content
			p.messages[i].Pending = false
			p.messages[i].Failed = failed
			p.changed()
			return true
		}
	}
	return false
}

// SetNotice shows an inline notice without changing the mode.
func (p *Panel) SetNotice(notice string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = notice
	p.changed()
}

// Mode returns the current mode.
func (p *Panel) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// Snapshot returns a copy of the panel state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	msgs := make([]Entry, len(p.messages))
	copy(msgs, p.messages)
	return Snapshot{
		Mode:           p.mode,
		ConversationID: p.conversationID,
		Messages:       msgs,
		Notice:         p.notice,
		Loading:        p.loading,
		Version:        p.version,
	}
}
