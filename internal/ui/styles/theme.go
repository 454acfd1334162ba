// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds every style used by the TUI.
type Theme struct {
	Name         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// CHROME
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderUser  lipgloss.Style
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
	Spinner     lipgloss.Style
	Help        lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	SidebarTitle   lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarActive  lipgloss.Style
	SidebarCursor  lipgloss.Style
	SidebarStatus  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	PendingBubble   lipgloss.Style
	FailedBubble    lipgloss.Style
	RoleLabel       lipgloss.Style
	Notice          lipgloss.Style

	// ==========================================================================
	// WELCOME
	// ==========================================================================

	WelcomeTitle  lipgloss.Style
	WelcomeText   lipgloss.Style
	SuggestionKey lipgloss.Style
	Suggestion    lipgloss.Style

	// ==========================================================================
	// INPUT AND FORMS
	// ==========================================================================

	InputBox        lipgloss.Style
	InputBoxFocused lipgloss.Style
	FormBox         lipgloss.Style
	FormTitle       lipgloss.Style
	FormLabel       lipgloss.Style
	FormError       lipgloss.Style
	FormInfo        lipgloss.Style
	CodeBlock       lipgloss.Style
	CodeLineNumber  lipgloss.Style
}

// NewTheme builds the theme called name. Unknown names and "auto" follow the
// terminal background.
func NewTheme(name string) *Theme {
	profile := termenv.ColorProfile()

	t := &Theme{
		Name:         normalizeName(name),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	switch t.Name {
	case ThemeDark:
		t.IsDark = true
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		t.IsDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		t.IsDark = termenv.HasDarkBackground()
	}

	t.initStyles()
	return t
}

func normalizeName(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case ThemeDark, ThemeLight:
		return n
	default:
		return ThemeAuto
	}
}

// GlamourStyle names the glamour standard style matching the theme, or "" to
// let glamour detect it.
func (t *Theme) GlamourStyle() string {
	switch t.Name {
	case ThemeDark:
		return "dark"
	case ThemeLight:
		return "light"
	default:
		return ""
	}
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand)

	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Danger).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().Foreground(Accent)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarFocused = t.Sidebar.
		BorderForeground(Accent)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarActive = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.SidebarCursor = lipgloss.NewStyle().
		Background(Accent).
		Foreground(TextInverse)

	t.SidebarStatus = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBorder).
		Padding(0, 1).
		MarginRight(4)

	t.PendingBubble = t.AssistantBubble.
		Foreground(TextMuted).
		Italic(true)

	t.FailedBubble = t.AssistantBubble.
		Foreground(Danger).
		BorderForeground(Danger)

	t.RoleLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.Notice = lipgloss.NewStyle().
		Foreground(NoticeFg).
		Background(NoticeBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(NoticeBorder).
		BorderLeft(true).
		PaddingLeft(1)

	// Welcome
	t.WelcomeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent).
		MarginBottom(1)

	t.WelcomeText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SuggestionKey = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.Suggestion = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Input and forms
	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputBoxFocused = t.InputBox.
		BorderForeground(Brand)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 3)

	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand).
		MarginBottom(1)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FormError = lipgloss.NewStyle().
		Foreground(Danger)

	t.FormInfo = lipgloss.NewStyle().
		Foreground(Success)

	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CodeLineNumber = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// SidebarWidth returns the sidebar width for the current terminal width, or
// 0 when the terminal is too narrow to show it.
func (t *Theme) SidebarWidth() int {
	switch {
	case t.Width < 60:
		return 0
	case t.Width < 100:
		return 24
	default:
		return 32
	}
}
