// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver implements the chat service API in memory. The assistant
// echoes every message back. It is meant for local development and for
// integration tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jeranaias/parley-tui/internal/api"
)

// Prefix is the path the API is mounted under.
const Prefix = "/api/v1"

type ctxKey struct{}

// Server is the in-memory chat service.
type Server struct {
	store *memStore
	log   zerolog.Logger
}

// New creates an empty server.
func New() *Server {
	return &Server{store: newMemStore(), log: zerolog.Nop()}
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(l zerolog.Logger) *Server {
	s.log = l
	return s
}

// WithTokenTTL sets how long issued tokens stay valid. Zero means forever.
func (s *Server) WithTokenTTL(ttl time.Duration) *Server {
	s.store.ttl = ttl
	return s
}

// WithPasswordCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (s *Server) WithPasswordCost(cost int) *Server {
	s.store.cost = cost
	return s
}

// withClock replaces the time source.
func (s *Server) withClock(now func() time.Time) *Server {
	s.store.now = now
	return s
}

// Handler returns the HTTP handler with the API mounted under Prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/me", s.handleMe)
			r.Post("/chat/", s.handleChat)
			r.Get("/chat/conversations", s.handleConversations)
			r.Get("/chat/history/{conversationID}", s.handleHistory)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dev server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get(api.RequestIDHeader)).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			unauthorized(w, errBadToken)
			return
		}
		u, err := s.store.authenticate(token)
		if err != nil {
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(ctxKey{}).(*user)
	return u
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		writeValidation(w, "field required")
		return
	}
	token, err := s.store.login(username, password)
	if err != nil {
		unauthorized(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeValidation(w, "field required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeValidation(w, "value is not a valid email address")
		return
	}
	u, err := s.store.register(req.Username, req.Email, req.Password)
	if errors.Is(err, errUsernameTaken) || errors.Is(err, errEmailTaken) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusOK, userBody(u))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userBody(currentUser(r)))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	convID := 0
	if req.ConversationID != "" {
		n, err := strconv.Atoi(req.ConversationID.String())
		if err != nil {
			writeValidation(w, "value is not a valid integer")
			return
		}
		convID = n
	}

	id, reply, err := s.store.chat(currentUser(r), convID, req.Message)
	if err != nil {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.ChatResponse{Message: reply, ConversationID: itoaID(id)})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"conversations": s.store.list(currentUser(r))})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	convID, err := strconv.Atoi(chi.URLParam(r, "conversationID"))
	if err != nil {
		writeValidation(w, "value is not a valid integer")
		return
	}
	msgs, err := s.store.history(currentUser(r), convID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// =============================================================================
// RESPONSES
// =============================================================================

func itoaID(n int) api.ID {
	return api.ID(strconv.Itoa(n))
}

func userBody(u *user) api.User {
	return api.User{ID: itoaID(u.id), Username: u.username, Email: u.email, IsActive: true}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]string{{"msg": msg}},
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, err.Error())
}
