// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import "sync"

// Volatile is an in-memory Store whose contents last for one session.
type Volatile struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewVolatile creates an empty volatile store.
func NewVolatile() *Volatile {
	return &Volatile{data: make(map[string]string)}
}

func (v *Volatile) Get(key string) (string, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return "", false, ErrClosed
	}
	val, ok := v.data[key]
	return val, ok, nil
}

func (v *Volatile) Set(key, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.data[key] = value
	return nil
}

func (v *Volatile) Remove(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	delete(v.data, key)
	return nil
}

// Close ends the session and discards everything stored.
func (v *Volatile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = nil
	v.closed = true
	return nil
}
