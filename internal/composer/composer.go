// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package composer sends user messages. The user's message is shown before
// the server answers and stays visible even when the send fails.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/events"
	"github.com/jeranaias/parley-tui/internal/util"
)

// Placeholder and error text shown in the message panel.
const (
	PendingText     = "Thinking..."
	SendErrorNotice = "Sorry, there was an error processing your request."
)

// Title length limits for a new conversation's sidebar entry.
const (
	titleLimit = 30
	titleKeep  = 27
)

// ErrEmptyMessage is returned for blank input; nothing is sent or shown.
var ErrEmptyMessage = errors.New("message is empty")

// Sender posts a message to the chat service.
type Sender interface {
	Send(ctx context.Context, message, conversationID string) (*api.ChatResponse, error)
}

// Panel is the part of the message panel the composer writes to.
type Panel interface {
	AppendUser(content string) string
	AddPending(placeholder string) string
	Resolve(id, content string) bool
	Fail(id, notice string) bool
}

// Conversations is the active-conversation state the composer reads and
// updates.
type Conversations interface {
	Resolve() string
	Generation() uint64
	AdoptNewConversationSince(id, title string, gen uint64) bool
	AnnounceConversation(id, title string)
	StartNewConversation()
}

// Title derives a sidebar title from the first message of a conversation.
func Title(message string) string {
	return util.TruncateRunes(norm.NFC.String(strings.TrimSpace(message)), titleLimit, titleKeep)
}

// Composer holds the draft and sends it.
type Composer struct {
	sender Sender
	panel  Panel
	convs  Conversations
	bus    *events.Bus
	log    zerolog.Logger

	mu    sync.Mutex
	input string
}

// New creates a composer.
func New(sender Sender, panel Panel, convs Conversations, bus *events.Bus) *Composer {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Composer{
		sender: sender,
		panel:  panel,
		convs:  convs,
		bus:    bus,
		log:    zerolog.Nop(),
	}
}

// WithLogger sets the logger.
func (c *Composer) WithLogger(l zerolog.Logger) *Composer {
	c.log = l
	return c
}

// SetInput replaces the draft.
func (c *Composer) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the draft.
func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Pending is a message that has been shown but not yet sent.
type Pending struct {
	c              *Composer
	text           string
	conversationID string
	placeholderID  string
	generation     uint64
}

// Text returns the message being sent.
func (p *Pending) Text() string {
	return p.text
}

// ConversationID returns the id the message is sent to, or "" for a new
// conversation.
func (p *Pending) ConversationID() string {
	return p.conversationID
}

// Begin shows text as a user message with a pending reply and clears the
// draft. It does no I/O; call Complete to send.
func (c *Composer) Begin(text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.panel.AppendUser(text)
	c.SetInput("")
	placeholder := c.panel.AddPending(PendingText)

	return &Pending{
		c:              c,
		text:           text,
		conversationID: c.convs.Resolve(),
		placeholderID:  placeholder,
		generation:     c.convs.Generation(),
	}, nil
}

// Complete sends the message and replaces the placeholder with the reply or
// an inline error. A reply for a different conversation than the one sent
// to means the server created it.
func (p *Pending) Complete(ctx context.Context) error {
	c := p.c
	resp, err := c.sender.Send(ctx, p.text, p.conversationID)
	if err != nil {
		c.panel.Fail(p.placeholderID, SendErrorNotice)
		c.log.Warn().Err(err).Str("conversation", p.conversationID).Msg("failed to send message")
		if errors.Is(err, api.ErrUnauthorized) {
			c.bus.Expired.Publish(events.AuthExpired{Reason: err.Error()})
		}
		return fmt.Errorf("send: %w", err)
	}

	id := resp.ConversationID.String()
	created := id != "" && id != p.conversationID

	if !c.panel.Resolve(p.placeholderID, resp.Message) {
		// The panel moved on (new chat or another conversation) while the
		// request was in flight. A created conversation is still listed.
		c.log.Debug().Str("conversation", id).Msg("reply arrived after panel changed")
		if created {
			c.convs.AnnounceConversation(id, Title(p.text))
		}
		return nil
	}

	if created {
		c.convs.AdoptNewConversationSince(id, Title(p.text), p.generation)
	}
	return nil
}

// Submit is Begin followed by Complete.
func (c *Composer) Submit(ctx context.Context, text string) error {
	p, err := c.Begin(text)
	if err != nil {
		return err
	}
	return p.Complete(ctx)
}

// NewChat starts a fresh conversation and clears the draft.
func (c *Composer) NewChat() {
	c.convs.StartNewConversation()
	c.SetInput("")
}
