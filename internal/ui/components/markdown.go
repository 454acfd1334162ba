// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Markdown renders assistant replies. With markdown disabled, or when glamour
// fails, only code fences are highlighted.
type Markdown struct {
	theme    *styles.Theme
	enabled  bool
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer wrapping at width.
func NewMarkdown(theme *styles.Theme, enabled bool, width int) *Markdown {
	return &Markdown{theme: theme, enabled: enabled, width: width}
}

// Configure changes the theme, the switch and the wrap width. The glamour
// renderer is rebuilt lazily.
func (m *Markdown) Configure(theme *styles.Theme, enabled bool, width int) {
	if theme != m.theme || width != m.width {
		m.renderer = nil
	}
	m.theme, m.enabled, m.width = theme, enabled, width
}

// Enabled reports whether glamour rendering is on.
func (m *Markdown) Enabled() bool {
	return m.enabled
}

// Render renders content.
func (m *Markdown) Render(content string) string {
	if !m.enabled {
		return HighlightFences(m.theme, content)
	}
	r, err := m.termRenderer()
	if err != nil {
		return HighlightFences(m.theme, content)
	}
	out, err := r.Render(content)
	if err != nil {
		return HighlightFences(m.theme, content)
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) termRenderer() (*glamour.TermRenderer, error) {
	if m.renderer != nil {
		return m.renderer, nil
	}
	width := m.width
	if width < 20 {
		width = 20
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style := m.theme.GlamourStyle(); style != "" {
		opts = append(opts, glamour.WithStandardStyle(style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	m.renderer = r
	return r, nil
}
