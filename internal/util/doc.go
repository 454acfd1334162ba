// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across parley packages.
//
// # Contents
//
//   - AtomicWriteFile: crash-safe file replacement used by config saves
//   - TruncateRunes: rune-safe truncation with an ellipsis
//   - FitWidth: display-width aware truncation for the sidebar
//   - SingleLine: flatten multi-line text for list rows
package util
