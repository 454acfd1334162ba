// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest offers canned questions that can be placed in the composer.
package suggest

import "strings"

// Input receives a picked question.
type Input interface {
	SetInput(text string)
}

// Questions is an ordered list of suggested questions.
type Questions struct {
	items []string
}

// New keeps the non-blank questions in order.
func New(items []string) *Questions {
	q := &Questions{}
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			q.items = append(q.items, s)
		}
	}
	return q
}

// All returns the questions.
func (q *Questions) All() []string {
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of questions.
func (q *Questions) Len() int {
	return len(q.items)
}

// Pick returns question i (zero-based).
func (q *Questions) Pick(i int) (string, bool) {
	if i < 0 || i >= len(q.items) {
		return "", false
	}
	return q.items[i], true
}

// Apply places question i in the input without sending it.
func (q *Questions) Apply(i int, in Input) bool {
	text, ok := q.Pick(i)
	if ok {
		in.SetInput(text)
	}
	return ok
}
