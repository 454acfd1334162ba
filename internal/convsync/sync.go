// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convsync keeps the active conversation consistent across the
// location, the persistent store and the message panel, and decides when a
// history fetch is needed.
//
// Three pieces of state cooperate:
//
//   - the conversation_id location parameter, highest priority when resolving
//   - the persistent conversation_id and currentlyViewingConversation keys
//   - the volatile preventNextReload flag, consumed by exactly one pass
//
// Every state transition bumps a generation counter; a history response that
// arrives after a newer transition is dropped.
package convsync

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/events"
	"github.com/jeranaias/parley-tui/internal/kv"
	"github.com/jeranaias/parley-tui/internal/location"
)

// NoConversation is the resolved id when there is no active conversation.
const NoConversation = ""

// LoadErrorNotice is shown when a history fetch fails.
const LoadErrorNotice = "Error loading conversation. Starting a new chat."

const flagSet = "true"

// HistoryFetcher loads the messages of a conversation.
type HistoryFetcher interface {
	History(ctx context.Context, conversationID string) ([]api.Message, error)
}

// View is the part of the message panel the synchronizer drives.
type View interface {
	ShowWelcome()
	ShowWelcomeError(notice string)
	ShowLoading()
	ShowConversation(id string, messages []api.Message)
	ShowingConversation(id string) bool
	BindConversation(id string)
}

// Outcome describes what a synchronization attempt did.
type Outcome int

const (
	// Skipped means the skip flag was consumed and nothing else happened.
	Skipped Outcome = iota
	// AlreadyViewing means the conversation was already on screen.
	AlreadyViewing
	// Loaded means history was fetched and rendered.
	Loaded
	// Empty means the welcome state is shown: no conversation, or no messages.
	Empty
	// Failed means the fetch failed and the panel fell back to a new chat.
	Failed
	// Stale means a newer transition superseded this fetch; its result was
	// discarded.
	Stale
)

var outcomeNames = [...]string{"skipped", "already-viewing", "loaded", "empty", "failed", "stale"}

// String returns the outcome name.
func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Synchronizer owns the active-conversation state of one session.
type Synchronizer struct {
	persistent kv.Store
	volatile   kv.Store
	loc        *location.Location
	fetcher    HistoryFetcher
	view       View
	bus        *events.Bus
	log        zerolog.Logger

	// mu serializes state transitions. It is never held across a fetch or
	// an event publish.
	mu         sync.Mutex
	generation uint64
}

// New creates a synchronizer over the given stores, location, fetcher and view.
func New(persistent, volatile kv.Store, loc *location.Location, fetcher HistoryFetcher, view View, bus *events.Bus) *Synchronizer {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Synchronizer{
		persistent: persistent,
		volatile:   volatile,
		loc:        loc,
		fetcher:    fetcher,
		view:       view,
		bus:        bus,
		log:        zerolog.Nop(),
	}
}

// WithLogger sets the logger.
func (s *Synchronizer) WithLogger(l zerolog.Logger) *Synchronizer {
	s.log = l
	return s
}

// Bus returns the event bus the synchronizer publishes on.
func (s *Synchronizer) Bus() *events.Bus {
	return s.bus
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the location's conversation id, else the stored one, else
// NoConversation.
func (s *Synchronizer) Resolve() string {
	if id := s.loc.ConversationID(); id != "" {
		return id
	}
	if id := kv.GetString(s.persistent, kv.KeyConversationID); id != "" {
		return id
	}
	return NoConversation
}

// Active returns the id of the conversation marked as currently viewed.
func (s *Synchronizer) Active() string {
	return kv.GetString(s.persistent, kv.KeyViewing)
}

// consumeSkip reads and clears the skip flag.
func (s *Synchronizer) consumeSkip() bool {
	_, ok, err := kv.Take(s.volatile, kv.KeySkipReload)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read skip flag")
		return false
	}
	return ok
}

// =============================================================================
// LOADING
// =============================================================================

// LoadHistory brings conversation id onto the screen. See Outcome for the
// possible results; err is non-nil only for Failed.
func (s *Synchronizer) LoadHistory(ctx context.Context, id string) (Outcome, error) {
	if s.consumeSkip() {
		s.log.Debug().Str("id", id).Msg("history load skipped")
		return Skipped, nil
	}
	if id == NoConversation {
		s.showWelcome()
		return Empty, nil
	}

	s.mu.Lock()
	if s.Active() == id && s.view.ShowingConversation(id) {
		s.remember(id)
		s.mu.Unlock()
		s.log.Debug().Str("id", id).Msg("conversation already on screen")
		return AlreadyViewing, nil
	}
	s.generation++
	gen := s.generation
	s.set(s.persistent, kv.KeyViewing, id)
	s.remember(id)
	s.view.ShowLoading()
	s.mu.Unlock()

	messages, err := s.fetcher.History(ctx, id)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug().Str("id", id).Msg("discarding stale history response")
		return Stale, nil
	}
	if err != nil {
		s.forget()
		s.view.ShowWelcomeError(LoadErrorNotice)
		s.mu.Unlock()

		s.log.Warn().Err(err).Str("id", id).Msg("failed to load conversation")
		if errors.Is(err, api.ErrUnauthorized) {
			s.bus.Expired.Publish(events.AuthExpired{Reason: err.Error()})
		}
		return Failed, err
	}
	s.view.ShowConversation(id, messages)
	s.mu.Unlock()

	if len(messages) == 0 {
		return Empty, nil
	}
	s.log.Debug().Str("id", id).Int("messages", len(messages)).Msg("conversation loaded")
	return Loaded, nil
}

// Sync runs one synchronization pass, as on startup or reload.
func (s *Synchronizer) Sync(ctx context.Context) (Outcome, error) {
	if s.consumeSkip() {
		s.log.Debug().Msg("sync pass skipped")
		return Skipped, nil
	}
	id := s.Resolve()
	if id == NoConversation {
		s.showWelcome()
		return Empty, nil
	}
	return s.LoadHistory(ctx, id)
}

func (s *Synchronizer) showWelcome() {
	s.mu.Lock()
	s.generation++
	s.view.ShowWelcome()
	s.mu.Unlock()
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Generation returns the transition counter. A caller that captures it
// before a request can later ask AdoptNewConversationSince whether anything
// happened in between.
func (s *Synchronizer) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// AdoptNewConversation records a conversation the server just created and
// announces it. The skip flag is set so the pass that listeners run in
// response does not refetch what is already on screen.
func (s *Synchronizer) AdoptNewConversation(id, title string) {
	s.mu.Lock()
	s.adoptLocked(id)
	s.mu.Unlock()

	s.log.Info().Str("id", id).Msg("conversation created")
	s.bus.Created.Publish(events.ConversationCreated{ID: id, Title: title})
}

// AdoptNewConversationSince adopts id only if no transition happened after
// gen. Otherwise the user has moved on: the conversation is announced in the
// background so it gets listed, and the location, the stores and the panel
// are left alone. It reports whether id was adopted.
func (s *Synchronizer) AdoptNewConversationSince(id, title string, gen uint64) bool {
	s.mu.Lock()
	adopted := s.generation == gen
	if adopted {
		s.adoptLocked(id)
	}
	s.mu.Unlock()

	if !adopted {
		s.log.Info().Str("id", id).Msg("conversation created in the background")
	} else {
		s.log.Info().Str("id", id).Msg("conversation created")
	}
	s.bus.Created.Publish(events.ConversationCreated{ID: id, Title: title, Background: !adopted})
	return adopted
}

// AnnounceConversation lists a conversation created by a request whose
// reply was no longer wanted on screen.
func (s *Synchronizer) AnnounceConversation(id, title string) {
	s.log.Info().Str("id", id).Msg("conversation created in the background")
	s.bus.Created.Publish(events.ConversationCreated{ID: id, Title: title, Background: true})
}

// adoptLocked makes id active. The panel already shows its messages, so
// any fetch still in flight is superseded.
func (s *Synchronizer) adoptLocked(id string) {
	s.generation++
	s.set(s.volatile, kv.KeySkipReload, flagSet)
	s.remember(id)
	s.set(s.persistent, kv.KeyViewing, id)
	s.view.BindConversation(id)
}

// StartNewConversation forgets the active conversation and shows the
// welcome state.
func (s *Synchronizer) StartNewConversation() {
	s.mu.Lock()
	s.generation++
	s.forget()
	s.set(s.volatile, kv.KeySkipReload, flagSet)
	s.view.ShowWelcome()
	s.mu.Unlock()

	s.bus.Cleared.Publish(events.ConversationCleared{})
}

// remember points the location and the persistent id at id.
func (s *Synchronizer) remember(id string) {
	s.loc.SetConversationID(id)
	s.set(s.persistent, kv.KeyConversationID, id)
}

// forget clears the location, the persistent id and the viewing marker.
func (s *Synchronizer) forget() {
	s.loc.ClearConversationID()
	s.remove(s.persistent, kv.KeyConversationID)
	s.remove(s.persistent, kv.KeyViewing)
}

// Store failures are logged and otherwise ignored; the in-memory location
// and view still reflect the transition.
func (s *Synchronizer) set(store kv.Store, key, value string) {
	if err := store.Set(key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to write state")
	}
}

func (s *Synchronizer) remove(store kv.Store, key string) {
	if err := store.Remove(key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to clear state")
	}
}
