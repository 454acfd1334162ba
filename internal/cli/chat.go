// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// historyFileName lives in the config directory.
const historyFileName = "chat_history"

func newChatCommand(root *rootOptions) *cobra.Command {
	var conversation string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode, without the full-screen interface",
		Long: `Chat in line mode. Messages are sent as you type them; lines starting
with a slash are commands. Type /help for the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, cleanup, err := root.openApp(conversation)
			if err != nil {
				return err
			}
			defer cleanup()

			lines := newLineEditor()
			defer lines.Close()

			repl := NewREPL(a, lines.State, cmd.OutOrStdout())
			if IsStdoutTTY() && cfg.UI.Markdown {
				theme := styles.NewTheme(cfg.UI.Theme)
				repl.WithMarkdown(components.NewMarkdown(theme, true, GetTerminalWidth()))
			}
			return repl.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&conversation, "open", "", "conversation id to open on start")
	return cmd
}

// lineEditor is a liner.State that keeps its history in the config
// directory.
type lineEditor struct {
	*liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{State: state, historyFile: filepath.Join(dir, historyFileName)}
	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}
	return e
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (e *lineEditor) Close() error {
	if err := config.EnsureDir(); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.State.WriteHistory(f)
			f.Close()
		}
	}
	return e.State.Close()
}
