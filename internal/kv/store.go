// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the string key-value stores that hold parley's client
// state between runs (persistent) and within a single session (volatile).
package kv

import (
	"errors"
	"fmt"
	"strings"
)

// Well-known keys.
const (
	// Persistent.
	KeyToken          = "token"
	KeyConversationID = "conversation_id"
	KeyViewing        = "currentlyViewingConversation"

	// Volatile.
	KeySkipReload    = "preventNextReload"
	KeyPageLoadCount = "pageLoadCount"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a string key-value store. Get reports whether the key was present;
// Remove of a missing key is not an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// StoreError wraps a backend failure with the operation and key involved.
type StoreError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Open opens the persistent store for the named backend at path.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendPebble:
		return OpenPebble(path)
	case BackendBolt:
		return OpenBolt(path)
	case BackendMemory:
		return NewVolatile(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Take reads key and removes it in one step. It is how the skip flag is
// consumed: a present flag is reported exactly once.
func Take(s Store, key string) (string, bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := s.Remove(key); err != nil {
		return "", false, err
	}
	return v, true, nil
}

// GetString returns the value for key or "" when absent or unreadable.
func GetString(s Store, key string) string {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return ""
	}
	return v
}
