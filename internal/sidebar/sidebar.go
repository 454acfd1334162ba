// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidebar maintains the conversation list and its highlighted entry.
package sidebar

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/convsync"
	"github.com/jeranaias/parley-tui/internal/events"
)

// Status lines shown instead of, or above, the list.
const (
	StatusEmpty   = "No conversations yet"
	StatusError   = "Error loading conversations"
	StatusLoading = "Loading..."
)

// ErrUnknownConversation is returned by Click for an id not in the list.
var ErrUnknownConversation = errors.New("conversation not in list")

// Lister fetches the conversation list.
type Lister interface {
	Conversations(ctx context.Context) ([]api.Conversation, error)
}

// Conversations is the synchronizer surface the sidebar drives.
type Conversations interface {
	Resolve() string
	Active() string
	LoadHistory(ctx context.Context, id string) (convsync.Outcome, error)
}

// Entry is one row of the list.
type Entry struct {
	ID     string
	Title  string
	Active bool
}

// Sidebar is the conversation list model.
type Sidebar struct {
	lister Lister
	convs  Conversations
	bus    *events.Bus
	log    zerolog.Logger

	mu      sync.RWMutex
	entries []Entry
	status  string
}

// New creates an empty sidebar.
func New(lister Lister, convs Conversations, bus *events.Bus) *Sidebar {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Sidebar{
		lister: lister,
		convs:  convs,
		bus:    bus,
		log:    zerolog.Nop(),
		status: StatusEmpty,
	}
}

// WithLogger sets the logger.
func (s *Sidebar) WithLogger(l zerolog.Logger) *Sidebar {
	s.log = l
	return s
}

// Attach subscribes the sidebar to conversation events and returns a
// function that detaches it.
func (s *Sidebar) Attach(bus *events.Bus) func() {
	offCreated := bus.Created.Subscribe(s.InsertCreated)
	offCleared := bus.Cleared.Subscribe(func(events.ConversationCleared) { s.Clear() })
	return func() {
		offCreated()
		offCleared()
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderList replaces the list, highlighting only activeID.
func (s *Sidebar) RenderList(conversations []api.Conversation, activeID string) {
	entries := make([]Entry, 0, len(conversations))
	for _, c := range conversations {
		id := c.ID.String()
		entries = append(entries, Entry{ID: id, Title: c.Title, Active: id != "" && id == activeID})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.status = ""
	if len(entries) == 0 {
		s.status = StatusEmpty
	}
}

// InsertCreated prepends a newly created conversation and makes it the only
// highlighted entry. The result equals RenderList over the list with the new
// conversation prepended. A background conversation is prepended without
// touching the highlight.
func (s *Sidebar) InsertCreated(ev events.ConversationCreated) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.entries)+1)
	entries = append(entries, Entry{ID: ev.ID, Title: ev.Title, Active: !ev.Background})
	for _, e := range s.entries {
		if e.ID == ev.ID {
			continue
		}
		if !ev.Background {
			e.Active = false
		}
		entries = append(entries, e)
	}
	s.entries = entries
	s.status = ""
}

// Clear removes the highlight, as when a new chat starts.
func (s *Sidebar) Clear() {
	s.highlight("")
}

func (s *Sidebar) highlight(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		s.entries[i].Active = s.entries[i].ID == id && id != ""
	}
}

// Entries returns a copy of the list.
func (s *Sidebar) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Status returns the status line, or "" when the list has entries.
func (s *Sidebar) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Highlighted returns the id of the highlighted entry, or "".
func (s *Sidebar) Highlighted() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Active {
			return e.ID
		}
	}
	return ""
}

func (s *Sidebar) contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// =============================================================================
// ACTIONS
// =============================================================================

// Load fetches the list from the server and renders it with the resolved
// conversation highlighted.
func (s *Sidebar) Load(ctx context.Context) error {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.status = StatusLoading
	}
	s.mu.Unlock()

	conversations, err := s.lister.Conversations(ctx)
	if err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.mu.Unlock()

		s.log.Warn().Err(err).Msg("failed to load conversations")
		if errors.Is(err, api.ErrUnauthorized) {
			s.bus.Expired.Publish(events.AuthExpired{Reason: err.Error()})
		}
		return fmt.Errorf("load sidebar: %w", err)
	}

	s.RenderList(conversations, s.convs.Resolve())
	return nil
}

// Click opens conversation id. Clicking the conversation already being
// viewed does nothing.
func (s *Sidebar) Click(ctx context.Context, id string) (convsync.Outcome, error) {
	if !s.contains(id) {
		return convsync.Skipped, fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	if s.convs.Active() == id {
		return convsync.AlreadyViewing, nil
	}

	s.highlight(id)
	out, err := s.convs.LoadHistory(ctx, id)
	if out == convsync.Failed && s.Highlighted() == id {
		s.Clear()
	}
	return out, err
}
