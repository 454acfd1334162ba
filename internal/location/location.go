// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package location models the address bar: a URL whose query string carries
// the active conversation id. Updates push a history entry without triggering
// navigation, so writers are never notified of their own changes.
package location

import (
	"fmt"
	"net/url"
	"sync"
)

// ParamConversationID is the query parameter mirroring the active conversation.
const ParamConversationID = "conversation_id"

// DefaultPath is the location used when none is given.
const DefaultPath = "/chat"

// maxHistory bounds the pushed-entry history.
const maxHistory = 100

// Location is a concurrency-safe current URL with a push history.
type Location struct {
	mu      sync.RWMutex
	current *url.URL
	history []string
}

// New returns a location at DefaultPath with no query.
func New() *Location {
	return &Location{current: &url.URL{Path: DefaultPath}}
}

// Parse returns a location seeded from raw. A bare query such as
// "conversation_id=42" or "?conversation_id=42" is accepted.
func Parse(raw string) (*Location, error) {
	if raw == "" {
		return New(), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if u.Scheme == "" && u.Host == "" && u.Path != "" && u.RawQuery == "" && containsEquals(u.Path) {
		u = &url.URL{Path: DefaultPath, RawQuery: u.Path}
	}
	if u.Path == "" {
		u.Path = DefaultPath
	}
	if _, err := url.ParseQuery(u.RawQuery); err != nil {
		return nil, fmt.Errorf("invalid query in %q: %w", raw, err)
	}
	return &Location{current: u}, nil
}

func containsEquals(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return true
		}
	}
	return false
}

// Param returns the value of a query parameter, or "".
func (l *Location) Param(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.Query().Get(name)
}

// SetParam sets a query parameter and pushes the new URL.
func (l *Location) SetParam(name, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.current.Query()
	if q.Get(name) == value && q.Has(name) {
		return
	}
	q.Set(name, value)
	l.push(q)
}

// DeleteParam removes a query parameter and pushes the new URL.
func (l *Location) DeleteParam(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.current.Query()
	if !q.Has(name) {
		return
	}
	q.Del(name)
	l.push(q)
}

// push must be called with mu held.
func (l *Location) push(q url.Values) {
	l.history = append(l.history, l.current.String())
	if len(l.history) > maxHistory {
		l.history = l.history[len(l.history)-maxHistory:]
	}
	next := *l.current
	next.RawQuery = q.Encode()
	l.current = &next
}

// ConversationID returns the conversation_id parameter.
func (l *Location) ConversationID() string {
	return l.Param(ParamConversationID)
}

// SetConversationID sets the conversation_id parameter.
func (l *Location) SetConversationID(id string) {
	l.SetParam(ParamConversationID, id)
}

// ClearConversationID removes the conversation_id parameter.
func (l *Location) ClearConversationID() {
	l.DeleteParam(ParamConversationID)
}

// String returns the current URL.
func (l *Location) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.String()
}

// History returns the previously pushed URLs, oldest first.
func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.history))
	copy(out, l.history)
	return out
}
