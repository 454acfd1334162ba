// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// # Key Types
//
//   - Config: top-level configuration
//   - APIConfig: remote API location, timeout and client-side rate limit
//   - StorageConfig: persistent store backend selection
//   - UIConfig: theme, markdown rendering, suggested questions
//
// # Configuration Precedence
//
//   - Environment variables (PARLEY_*)
//   - $PARLEY_HOME/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	stop, err := config.Watch(path, onChange, onError)
package config
