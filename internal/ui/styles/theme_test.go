// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme(ThemeDark)
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if !theme.IsDark {
		t.Error("dark theme should report IsDark")
	}
	if theme.GlamourStyle() != "dark" {
		t.Errorf("GlamourStyle() = %q, want dark", theme.GlamourStyle())
	}

	light := NewTheme(ThemeLight)
	if light.IsDark {
		t.Error("light theme should not report IsDark")
	}
	if light.GlamourStyle() != "light" {
		t.Errorf("GlamourStyle() = %q, want light", light.GlamourStyle())
	}
}

func TestNewThemeNormalizesName(t *testing.T) {
	tests := map[string]string{
		"":        ThemeAuto,
		"auto":    ThemeAuto,
		" DARK ":  ThemeDark,
		"Light":   ThemeLight,
		"solaris": ThemeAuto,
	}
	for in, want := range tests {
		if got := NewTheme(in).Name; got != want {
			t.Errorf("NewTheme(%q).Name = %q, want %q", in, got, want)
		}
	}
	if NewTheme("auto").GlamourStyle() != "" {
		t.Error("auto theme should leave the glamour style to detection")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(ThemeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Sidebar", theme.Sidebar},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"FailedBubble", theme.FailedBubble},
		{"Notice", theme.Notice},
		{"InputBox", theme.InputBox},
		{"FormBox", theme.FormBox},
		{"CodeBlock", theme.CodeBlock},
	}
	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s style should render", s.name)
		}
	}
}

func TestSidebarWidth(t *testing.T) {
	theme := NewTheme(ThemeDark)
	tests := []struct {
		width int
		want  int
	}{
		{40, 0},
		{80, 24},
		{120, 32},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		if got := theme.SidebarWidth(); got != tt.want {
			t.Errorf("SidebarWidth() at %d = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestSpinnerDuration(t *testing.T) {
	if got := LineSpinner.Duration(); got != 100*time.Millisecond {
		t.Errorf("LineSpinner.Duration() = %v", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS duration = %v, want 1s", got)
	}
}
