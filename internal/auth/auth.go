// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth handles login, registration and the stored bearer token.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/events"
	"github.com/jeranaias/parley-tui/internal/kv"
)

// User-facing messages.
const (
	LoginFailed       = "Login failed. Please try again."
	RegisterFailed    = "Registration failed. Please try again."
	RegisterSucceeded = "Registration successful! Please login."
	SessionExpired    = "Your session has expired. Please login again."
)

// Validation errors. No request is made when these are returned.
var (
	ErrEmptyCredentials = errors.New("username and password are required")
	ErrInvalidEmail     = errors.New("a valid email address is required")
)

// Error is a failed login or registration with the message to show.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the text to show for err.
func Message(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if errors.Is(err, ErrEmptyCredentials) {
		return "Please enter username and password."
	}
	if errors.Is(err, ErrInvalidEmail) {
		return "Please enter a valid email address."
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Client is the subset of the API client used for auth.
type Client interface {
	Login(ctx context.Context, username, password string) (*api.Token, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)
	Me(ctx context.Context) (*api.User, error)
}

// Service owns the token in the persistent store.
type Service struct {
	client Client
	store  kv.Store
	bus    *events.Bus
	log    zerolog.Logger
}

// NewService creates an auth service.
func NewService(client Client, store kv.Store, bus *events.Bus) *Service {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{client: client, store: store, bus: bus, log: zerolog.Nop()}
}

// WithLogger sets the logger.
func (s *Service) WithLogger(l zerolog.Logger) *Service {
	s.log = l
	return s
}

// Token returns the stored bearer token, or "".
func (s *Service) Token() string {
	return kv.GetString(s.store, kv.KeyToken)
}

// LoggedIn reports whether a token is stored.
func (s *Service) LoggedIn() bool {
	return s.Token() != ""
}

// Login exchanges credentials for a token and stores it.
func (s *Service) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return ErrEmptyCredentials
	}

	tok, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.log.Info().Err(err).Str("username", username).Msg("login failed")
		return &Error{Message: api.Detail(err, LoginFailed), Err: err}
	}
	if tok.AccessToken == "" {
		return &Error{Message: LoginFailed, Err: errors.New("empty access token")}
	}
	if err := s.store.Set(kv.KeyToken, tok.AccessToken); err != nil {
		return &Error{Message: LoginFailed, Err: err}
	}
	s.log.Info().Str("username", username).Msg("logged in")
	return nil
}

// Register creates an account. On success the caller shows
// RegisterSucceeded on the login screen.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || strings.TrimSpace(password) == "" {
		return ErrEmptyCredentials
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	_, err := s.client.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		s.log.Info().Err(err).Str("username", username).Msg("registration failed")
		return &Error{Message: api.Detail(err, RegisterFailed), Err: err}
	}
	s.log.Info().Str("username", username).Msg("registered")
	return nil
}

// CurrentUser returns the logged-in user. A rejected token expires the session.
func (s *Service) CurrentUser(ctx context.Context) (*api.User, error) {
	user, err := s.client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.Expire(err.Error())
		}
		return nil, err
	}
	return user, nil
}

// Expire drops the token and announces that the user must log in again.
func (s *Service) Expire(reason string) {
	s.ClearToken()
	s.log.Info().Str("reason", reason).Msg("session expired")
	s.bus.Expired.Publish(events.AuthExpired{Reason: reason})
}

// ClearToken drops the token without announcing it.
func (s *Service) ClearToken() {
	s.remove(kv.KeyToken)
}

// Logout forgets the token and the active conversation.
func (s *Service) Logout() {
	s.remove(kv.KeyToken)
	s.remove(kv.KeyConversationID)
	s.remove(kv.KeyViewing)
}

func (s *Service) remove(key string) {
	if err := s.store.Remove(key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to clear state")
	}
}
