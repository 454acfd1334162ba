// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pageload counts how many times the chat screen has been loaded in
// the current session, to tell a fresh start from a reload.
package pageload

import (
	"strconv"

	"github.com/jeranaias/parley-tui/internal/kv"
)

// Tracker keeps the count in the volatile store.
type Tracker struct {
	store kv.Store
}

// New creates a tracker over the volatile store.
func New(store kv.Store) *Tracker {
	return &Tracker{store: store}
}

// Count returns the number of recorded loads. A missing or corrupt value
// counts as zero.
func (t *Tracker) Count() int {
	n, err := strconv.Atoi(kv.GetString(t.store, kv.KeyPageLoadCount))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Record counts one more load and returns the new total.
func (t *Tracker) Record() (int, error) {
	n := t.Count() + 1
	if err := t.store.Set(kv.KeyPageLoadCount, strconv.Itoa(n)); err != nil {
		return n, err
	}
	return n, nil
}

// Fresh reports whether at most one load has been recorded.
func (t *Tracker) Fresh() bool {
	return t.Count() <= 1
}
