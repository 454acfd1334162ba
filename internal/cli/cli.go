// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/app"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/location"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	apiURL     string
	storage    string
	logLevel   string
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the TUI.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	tuiOpts := &tuiOptions{}

	root := &cobra.Command{
		Use:   "parley",
		Short: "Terminal client for the parley chat service",
		Long: `parley talks to a parley chat server from the terminal.

Without a subcommand it starts the full-screen interface. Use "parley chat"
for a line-mode session and "parley devserver" for a local in-memory server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, tuiOpts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default $PARLEY_HOME/config.toml)")
	flags.StringVar(&opts.apiURL, "url", "", "API base URL, e.g. http://localhost:8000/api/v1")
	flags.StringVar(&opts.storage, "storage", "", "persistent store backend: sqlite, pebble, bolt or memory")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	tuiOpts.bind(root)

	root.AddCommand(
		newTUICommand(opts),
		newChatCommand(opts),
		newDevServerCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// Execute runs the command tree with a context cancelled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// configFile returns the file to load and watch.
func (o *rootOptions) configFile() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.Path()
}

// loadConfig loads the config file (defaults when it is missing), then
// applies flags over it. Flags win over the environment.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path, err := o.configFile()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.LoadFromPath(path)
	} else if o.configPath != "" {
		return nil, fmt.Errorf("config file %s: %w", path, statErr)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.storage != "" {
		cfg.Storage.Backend = strings.ToLower(o.storage)
	}
	if o.logLevel != "" {
		cfg.Log.Level = strings.ToLower(o.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openLog opens the log file. The screen belongs to the UI, so nothing is
// logged to the terminal.
func openLog(cfg *config.Config) (zerolog.Logger, func() error, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return logging.OpenFile(path, cfg.Log.Level)
}

// openApp loads the configuration and builds a session opened on
// conversation (may be empty). The returned function releases everything.
func (o *rootOptions) openApp(conversation string) (*app.App, *config.Config, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open log: %w", err)
	}

	a, err := app.New(app.Options{Config: cfg, Logger: log, Location: startLocation(conversation)})
	if err != nil {
		_ = closeLog()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session")
		}
		_ = closeLog()
	}
	return a, cfg, cleanup, nil
}

// startLocation seeds the location with a conversation id.
func startLocation(conversation string) string {
	if conversation == "" {
		return ""
	}
	return fmt.Sprintf("%s?%s=%s", location.DefaultPath, location.ParamConversationID, conversation)
}
