// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.

// TruncateRunes returns s unchanged when it has at most limit runes.
// Otherwise it keeps the first keep runes and appends "...".
//
// Conversation titles use TruncateRunes(msg, 30, 27).
func TruncateRunes(s string, limit, keep int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if keep > limit {
		keep = limit
	}
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + "..."
}

// FitWidth truncates s to a terminal display width, accounting for wide
// (CJK, emoji) characters, and appends "…" when cut.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// SingleLine collapses newlines so a message can be shown in a list row.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
