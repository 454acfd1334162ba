// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the parley TUI: message bubbles,
// the welcome panel, the conversation sidebar, code blocks and spinners.
// Renderers are pure functions of a theme and view state so the screens can
// redraw from a snapshot at any time.
package components
