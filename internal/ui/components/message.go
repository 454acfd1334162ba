// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/view"
)

// bubbleInset is the width taken by a bubble's border, padding and margin.
const bubbleInset = 8

// RenderMessages renders the message list of snap at width.
func RenderMessages(theme *styles.Theme, md *Markdown, snap view.Snapshot, width int) string {
	var b strings.Builder
	if snap.Notice != "" {
		b.WriteString(theme.Notice.Width(max(width-2, 10)).Render(snap.Notice))
		b.WriteString("\n\n")
	}
	for i, e := range snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderMessage(theme, md, e, width))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMessage renders one entry as a labelled bubble.
func RenderMessage(theme *styles.Theme, md *Markdown, e view.Entry, width int) string {
	inner := max(width-bubbleInset, 10)

	switch {
	case e.Role == api.RoleUser:
		label := theme.RoleLabel.MarginLeft(4).Render("You")
		return label + "\n" + theme.UserBubble.Width(inner).Render(e.Content)
	case e.Pending:
		return theme.RoleLabel.Render("Assistant") + "\n" + theme.PendingBubble.Width(inner).Render(e.Content)
	case e.Failed:
		return theme.RoleLabel.Render("Assistant") + "\n" + theme.FailedBubble.Width(inner).Render(e.Content)
	default:
		body := e.Content
		if md != nil {
			body = md.Render(body)
		}
		return theme.RoleLabel.Render("Assistant") + "\n" +
			theme.AssistantBubble.Width(inner).Render(body)
	}
}
