// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app builds a parley session from configuration and connects its
// components through the event bus. Front ends (the TUI and the line REPL)
// drive an *App and render its view models.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/composer"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/convsync"
	"github.com/jeranaias/parley-tui/internal/events"
	"github.com/jeranaias/parley-tui/internal/kv"
	"github.com/jeranaias/parley-tui/internal/location"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/pageload"
	"github.com/jeranaias/parley-tui/internal/sidebar"
	"github.com/jeranaias/parley-tui/internal/suggest"
	"github.com/jeranaias/parley-tui/internal/view"
)

// ErrLoggedOut is returned by Boot when there is no valid session.
var ErrLoggedOut = errors.New("not logged in")

// Options configure New. Zero values fall back to the configuration.
type Options struct {
	Config *config.Config
	Logger zerolog.Logger

	// Persistent overrides the store opened from Config.Storage.
	Persistent kv.Store

	// Location seeds the location, e.g. "/chat?conversation_id=42".
	Location string
}

// App is one parley session.
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	Persistent kv.Store
	Volatile   kv.Store
	Location   *location.Location
	Client     *api.Client
	Bus        *events.Bus
	Panel      *view.Panel
	Sync       *convsync.Synchronizer
	Composer   *composer.Composer
	Sidebar    *sidebar.Sidebar
	Auth       *auth.Service
	PageLoads  *pageload.Tracker

	mu          sync.RWMutex
	suggestions *suggest.Questions
	ui          config.UIConfig
	unsubs      []func()
}

// New opens the stores and wires the components.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger

	loc, err := location.Parse(opts.Location)
	if err != nil {
		return nil, err
	}

	persistent := opts.Persistent
	if persistent == nil {
		path, err := cfg.StoragePath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage path: %w", err)
		}
		persistent, err = kv.Open(cfg.Storage.Backend, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
		}
		log.Debug().Str("backend", cfg.Storage.Backend).Str("path", path).Msg("opened persistent store")
	}
	volatile := kv.NewVolatile()

	client := api.NewClient(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout()).
		WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst).
		WithTokenSource(func() string { return kv.GetString(persistent, kv.KeyToken) }).
		WithLogger(logging.Component(log, "api"))

	bus := events.NewBus()
	panel := view.NewPanel()
	syncer := convsync.New(persistent, volatile, loc, client, panel, bus).
		WithLogger(logging.Component(log, "convsync"))

	a := &App{
		Config:      cfg,
		Log:         log,
		Persistent:  persistent,
		Volatile:    volatile,
		Location:    loc,
		Client:      client,
		Bus:         bus,
		Panel:       panel,
		Sync:        syncer,
		Composer:    composer.New(client, panel, syncer, bus).WithLogger(logging.Component(log, "composer")),
		Sidebar:     sidebar.New(client, syncer, bus).WithLogger(logging.Component(log, "sidebar")),
		Auth:        auth.NewService(client, persistent, bus).WithLogger(logging.Component(log, "auth")),
		PageLoads:   pageload.New(volatile),
		suggestions: suggest.New(cfg.UI.SuggestedQuestions),
		ui:          cfg.UI,
	}
	a.wire()
	return a, nil
}

// wire connects the components through the bus.
func (a *App) wire() {
	a.unsubs = append(a.unsubs, a.Sidebar.Attach(a.Bus))

	// Creation and new-chat transitions set the skip flag; the pass run here
	// consumes it. Background creations set nothing, so no pass runs.
	a.unsubs = append(a.unsubs,
		a.Bus.Created.Subscribe(func(ev events.ConversationCreated) {
			if !ev.Background {
				a.syncQuietly()
			}
		}),
		a.Bus.Cleared.Subscribe(func(events.ConversationCleared) { a.syncQuietly() }),
		a.Bus.Expired.Subscribe(func(ev events.AuthExpired) {
			a.Auth.ClearToken()
			a.Log.Info().Str("reason", ev.Reason).Msg("session expired")
		}),
	)
}

func (a *App) syncQuietly() {
	if out, err := a.Sync.Sync(context.Background()); err != nil {
		a.Log.Warn().Err(err).Str("outcome", out.String()).Msg("sync pass failed")
	}
}

// Suggestions returns the current suggested questions.
func (a *App) Suggestions() *suggest.Questions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.suggestions
}

// ApplyConfig takes over the UI settings of a reloaded configuration. API
// and storage settings apply from the next start.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	a.suggestions = suggest.New(cfg.UI.SuggestedQuestions)
	a.ui = cfg.UI
	a.mu.Unlock()

	a.Log.Info().Int("suggestions", len(cfg.UI.SuggestedQuestions)).Msg("configuration reloaded")
}

// UI returns the current UI settings.
func (a *App) UI() config.UIConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ui
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// BootResult describes what Boot found.
type BootResult struct {
	User      *api.User
	LoadCount int
	Fresh     bool
	Outcome   convsync.Outcome
}

// Boot runs the chat screen's load sequence: count the load, check the
// session, fill the sidebar and bring the active conversation on screen.
// Only ErrLoggedOut is fatal; other failures are already shown inline.
func (a *App) Boot(ctx context.Context) (*BootResult, error) {
	res := &BootResult{}

	n, err := a.PageLoads.Record()
	if err != nil {
		a.Log.Warn().Err(err).Msg("failed to record page load")
	}
	res.LoadCount = n
	res.Fresh = a.PageLoads.Fresh()
	a.Log.Info().Int("load", n).Bool("fresh", res.Fresh).Msg("chat screen loaded")

	if !a.Auth.LoggedIn() {
		return res, ErrLoggedOut
	}
	user, err := a.Auth.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return res, fmt.Errorf("%w: %v", ErrLoggedOut, err)
		}
		a.Log.Warn().Err(err).Msg("failed to fetch current user")
	}
	res.User = user

	if err := a.Sidebar.Load(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return res, fmt.Errorf("%w: %v", ErrLoggedOut, err)
		}
	}

	out, err := a.Sync.Sync(ctx)
	res.Outcome = out
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return res, fmt.Errorf("%w: %v", ErrLoggedOut, err)
		}
		a.Sidebar.Clear()
	}
	return res, nil
}

// Reload repeats Boot, as when the user refreshes the screen.
func (a *App) Reload(ctx context.Context) (*BootResult, error) {
	return a.Boot(ctx)
}

// Open switches to conversation id from the sidebar.
func (a *App) Open(ctx context.Context, id string) (convsync.Outcome, error) {
	return a.Sidebar.Click(ctx, id)
}

// Logout ends the session and resets the screen.
func (a *App) Logout() {
	a.Auth.Logout()
	a.Location.ClearConversationID()
	a.Panel.ShowWelcome()
	a.Sidebar.RenderList(nil, "")
}

// Close detaches subscribers and closes the stores.
func (a *App) Close() error {
	for _, off := range a.unsubs {
		off()
	}
	a.unsubs = nil
	return errors.Join(a.Volatile.Close(), a.Persistent.Close())
}
