// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events carries notifications between parley components through
// typed topics. Publish calls subscribers synchronously on the caller's
// goroutine, in subscription order.
package events

import "sync"

// ConversationCreated is published once the server assigns an id to a new
// conversation.
type ConversationCreated struct {
	ID    string
	Title string

	// Background is set when the user moved on before the reply arrived.
	// The conversation is listed but does not become active.
	Background bool
}

// ConversationCleared is published when the user starts a new chat.
type ConversationCleared struct{}

// AuthExpired is published when the server rejects the stored token.
type AuthExpired struct {
	Reason string
}

// Topic is a list of subscribers for one payload type.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every current subscriber. The subscriber list is
// copied first, so handlers may subscribe or publish themselves.
func (t *Topic[T]) Publish(ev T) {
	t.mu.RLock()
	subs := make([]subscriber[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Bus groups the topics shared by one session.
type Bus struct {
	Created Topic[ConversationCreated]
	Cleared Topic[ConversationCleared]
	Expired Topic[AuthExpired]
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}
