// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Spinner is a labelled loading spinner.
type Spinner struct {
	spinner spinner.Model
	label   string
}

// NewSpinner creates a spinner animating cfg.
func NewSpinner(theme *styles.Theme, cfg styles.SpinnerConfig, label string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: cfg.Frames,
		FPS:    cfg.Duration(),
	}
	s.Style = theme.Spinner
	return Spinner{spinner: s, label: label}
}

// SetLabel changes the text shown next to the spinner.
func (s *Spinner) SetLabel(label string) {
	s.label = label
}

// Tick starts the animation.
func (s Spinner) Tick() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the animation on its own tick messages.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the current frame and label.
func (s Spinner) View() string {
	if s.label == "" {
		return s.spinner.View()
	}
	return s.spinner.View() + " " + s.label
}
