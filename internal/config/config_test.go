// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api/v1" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if len(cfg.UI.SuggestedQuestions) != len(DefaultSuggestedQuestions) {
		t.Errorf("SuggestedQuestions = %d, want %d", len(cfg.UI.SuggestedQuestions), len(DefaultSuggestedQuestions))
	}
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("PARLEY_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
}

func TestSaveAndLoadFromPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PARLEY_HOME", home)

	cfg := Default()
	cfg.API.BaseURL = "https://chat.example.com/api/v1"
	cfg.Storage.Backend = "pebble"
	cfg.UI.SuggestedQuestions = []string{"one", "two"}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(home, "config.toml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perms = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("BaseURL = %q, want %q", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if loaded.Storage.Backend != "pebble" {
		t.Errorf("Backend = %q, want pebble", loaded.Storage.Backend)
	}
	if len(loaded.UI.SuggestedQuestions) != 2 {
		t.Errorf("SuggestedQuestions = %v", loaded.UI.SuggestedQuestions)
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.API.TimeoutSecs != 60 {
		t.Errorf("API.TimeoutSecs = %d, want default 60", cfg.API.TimeoutSecs)
	}
	if !cfg.UI.Markdown {
		t.Error("UI.Markdown should keep its default")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_API_URL", "http://10.0.0.1:9000/api/v1")
	t.Setenv("PARLEY_API_TIMEOUT", "5")
	t.Setenv("PARLEY_STORAGE", "BOLT")
	t.Setenv("PARLEY_LOG_LEVEL", "Debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.BaseURL != "http://10.0.0.1:9000/api/v1" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout())
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("Backend = %q, want bolt", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, "api.base_url"},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://host/api" }, "api.base_url"},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidateErrors, got %v", err)
			}
			found := false
			for _, v := range verrs {
				if v.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for %s, got %v", tt.field, verrs)
			}
		})
	}
}

func TestStoragePath_BackendDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PARLEY_HOME", home)

	tests := map[string]string{
		"sqlite": "state.db",
		"pebble": "state.pebble",
		"bolt":   "state.bolt",
	}
	for backend, file := range tests {
		cfg := Default()
		cfg.Storage.Backend = backend
		got, err := cfg.StoragePath()
		if err != nil {
			t.Fatalf("StoragePath(%s) failed: %v", backend, err)
		}
		if got != filepath.Join(home, file) {
			t.Errorf("StoragePath(%s) = %q, want %q", backend, got, filepath.Join(home, file))
		}
	}
}

// TestConfig_ConcurrentAccess exercises Global and SetGlobal together.
// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("PARLEY_HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *Config, 4)
	stop, err := Watch(path, func(c *Config) { changed <- c }, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stop()

	cfg := Default()
	cfg.UI.Theme = "light"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got.UI.Theme != "light" {
			t.Errorf("reloaded Theme = %q, want light", got.UI.Theme)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
