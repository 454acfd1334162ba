// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/ui"
)

type tuiOptions struct {
	conversation string
	noWatch      bool
}

func (o *tuiOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.conversation, "open", "", "conversation id to open on start")
	cmd.Flags().BoolVar(&o.noWatch, "no-watch", false, "do not reload the config file when it changes")
}

func newTUICommand(root *rootOptions) *cobra.Command {
	opts := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, root, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runTUI(cmd *cobra.Command, root *rootOptions, opts *tuiOptions) error {
	ctx := cmd.Context()
	a, _, cleanup, err := root.openApp(opts.conversation)
	if err != nil {
		return err
	}
	defer cleanup()

	m := ui.New(ctx, a)
	defer m.Close()
	p := ui.NewProgram(ctx, m)

	if !opts.noWatch {
		if stop, err := watchConfig(root, p); err != nil {
			a.Log.Warn().Err(err).Msg("config hot reload disabled")
		} else {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// watchConfig forwards reloaded configurations to the program.
func watchConfig(root *rootOptions, p *tea.Program) (func() error, error) {
	path, err := root.configFile()
	if err != nil {
		return nil, err
	}
	if root.configPath == "" {
		if err := config.EnsureDir(); err != nil {
			return nil, err
		}
	}
	return config.Watch(path,
		func(cfg *config.Config) { p.Send(ui.ConfigChangedMsg{Config: cfg}) },
		func(err error) { p.Send(ui.ConfigErrorMsg{Err: err}) },
	)
}
