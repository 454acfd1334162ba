// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the parley command line, built on cobra.
//
// # Commands
//
//   - parley, parley tui: the full-screen interface
//   - parley chat: a line-mode session (liner) with slash commands
//   - parley devserver: an in-memory server for local use
//   - parley config show|init|path: configuration file management
//
// Persistent flags (--config, --url, --storage, --log-level) override the
// configuration file and the environment. Logs go to the log file, never
// to the terminal, except for devserver which logs to stderr.
package cli
