// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/util"
)

var (
	errUsernameTaken = errors.New("Username already registered")
	errEmailTaken    = errors.New("Email already registered")
	errBadLogin      = errors.New("Incorrect username or password")
	errBadToken      = errors.New("Could not validate credentials")
	errNoConv        = errors.New("Conversation not found")
)

type user struct {
	id       int
	username string
	email    string
	hash     []byte
}

type session struct {
	userID  int
	expires time.Time
}

type conversation struct {
	id        int
	userID    int
	title     string
	createdAt time.Time
	updatedAt time.Time
	// seq orders conversations updated within the same clock tick.
	seq      uint64
	messages []api.Message
}

// memStore is the in-memory state behind the dev server.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*user
	emails   map[string]bool
	sessions map[string]session
	convs    map[int]*conversation
	nextUser int
	nextConv int
	seq      uint64
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*user),
		emails:   make(map[string]bool),
		sessions: make(map[string]session),
		convs:    make(map[int]*conversation),
		ttl:      30 * time.Minute,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *memStore) register(username, email, password string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, errUsernameTaken
	}
	if s.emails[email] {
		return nil, errEmailTaken
	}
	s.nextUser++
	u := &user{id: s.nextUser, username: username, email: email, hash: hash}
	s.users[username] = u
	s.emails[email] = true
	return u, nil
}

func (s *memStore) login(username, password string) (string, error) {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return "", errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return "", errBadLogin
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = session{userID: u.id, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *memStore) authenticate(token string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, errBadToken
	}
	if s.ttl > 0 && s.now().After(sess.expires) {
		delete(s.sessions, token)
		return nil, errBadToken
	}
	for _, u := range s.users {
		if u.id == sess.userID {
			return u, nil
		}
	}
	return nil, errBadToken
}

// chat appends a user message and the echoed reply. convID 0 creates a new
// conversation titled after the message.
func (s *memStore) chat(u *user, convID int, message string) (int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var c *conversation
	if convID != 0 {
		c = s.convs[convID]
		if c == nil || c.userID != u.id {
			return 0, "", errNoConv
		}
	} else {
		s.nextConv++
		c = &conversation{
			id:        s.nextConv,
			userID:    u.id,
			title:     util.TruncateRunes(message, 30, 30),
			createdAt: now,
		}
		s.convs[c.id] = c
	}

	reply := "You said: " + message
	c.messages = append(c.messages, api.NewUserMessage(message), api.NewAssistantMessage(reply))
	c.updatedAt = now
	s.seq++
	c.seq = s.seq
	return c.id, reply, nil
}

// list returns the user's conversations, most recently updated first.
func (s *memStore) list(u *user) []api.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]*conversation, 0)
	for _, c := range s.convs {
		if c.userID == u.id {
			owned = append(owned, c)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq > owned[j].seq })

	out := make([]api.Conversation, 0, len(owned))
	for _, c := range owned {
		out = append(out, api.Conversation{ID: itoaID(c.id), Title: c.title, CreatedAt: c.createdAt})
	}
	return out
}

func (s *memStore) history(u *user, convID int) ([]api.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.convs[convID]
	if c == nil || c.userID != u.id {
		return nil, errNoConv
	}
	out := make([]api.Message, len(c.messages))
	copy(out, c.messages)
	return out, nil
}
