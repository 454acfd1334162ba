// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley-tui/internal/api"
)

func newTestServer(t *testing.T, configure ...func(*Server)) (*Server, *api.Client, *string) {
	t.Helper()
	srv := New().WithPasswordCost(bcrypt.MinCost)
	for _, fn := range configure {
		fn(srv)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	token := new(string)
	client := api.NewClient(ts.URL + Prefix).
		WithRateLimit(0, 0).
		WithTokenSource(func() string { return *token })
	return srv, client, token
}

func registerAndLogin(t *testing.T, client *api.Client, token *string, name string) {
	t.Helper()
	ctx := context.Background()
	_, err := client.Register(ctx, api.RegisterRequest{Username: name, Email: name + "@example.com", Password: "pw"})
	require.NoError(t, err)
	tok, err := client.Login(ctx, name, "pw")
	require.NoError(t, err)
	*token = tok.AccessToken
}

func TestRegisterAndLogin(t *testing.T) {
	_, client, token := newTestServer(t)
	registerAndLogin(t, client, token, "alice")

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestRegister_Duplicates(t *testing.T) {
	_, client, token := newTestServer(t)
	registerAndLogin(t, client, token, "alice")
	ctx := context.Background()

	_, err := client.Register(ctx, api.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "pw"})
	assert.Equal(t, "Username already registered", api.Detail(err, ""))

	_, err = client.Register(ctx, api.RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "pw"})
	assert.Equal(t, "Email already registered", api.Detail(err, ""))

	_, err = client.Register(ctx, api.RegisterRequest{Username: "carol", Email: "nope", Password: "pw"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, client, token := newTestServer(t)
	registerAndLogin(t, client, token, "alice")

	_, err := client.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, "Incorrect username or password", api.Detail(err, ""))
}

func TestAuthRequired(t *testing.T) {
	_, client, _ := newTestServer(t)

	_, err := client.Conversations(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, "Could not validate credentials", api.Detail(err, ""))
}

func TestTokenExpiry(t *testing.T) {
	var now atomic.Int64
	now.Store(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	_, client, token := newTestServer(t, func(s *Server) {
		s.withClock(func() time.Time { return time.Unix(0, now.Load()) }).WithTokenTTL(time.Minute)
	})
	registerAndLogin(t, client, token, "alice")

	_, err := client.Me(context.Background())
	require.NoError(t, err)

	now.Add(int64(2 * time.Minute))
	_, err = client.Me(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestChatFlow(t *testing.T) {
	_, client, token := newTestServer(t)
	registerAndLogin(t, client, token, "alice")
	ctx := context.Background()

	resp, err := client.Send(ctx, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "You said: hello", resp.Message)
	assert.Equal(t, api.ID("1"), resp.ConversationID)

	long := "this is a fairly long first message for a title"
	resp2, err := client.Send(ctx, long, "")
	require.NoError(t, err)
	assert.Equal(t, api.ID("2"), resp2.ConversationID)

	_, err = client.Send(ctx, "again", "1")
	require.NoError(t, err)

	convs, err := client.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, api.ID("1"), convs[0].ID, "most recently updated first")
	assert.Equal(t, "hello", convs[0].Title)
	assert.Equal(t, "this is a fairly long first me...", convs[1].Title)

	msgs, err := client.History(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []api.Message{
		api.NewUserMessage("hello"),
		api.NewAssistantMessage("You said: hello"),
		api.NewUserMessage("again"),
		api.NewAssistantMessage("You said: again"),
	}, msgs)
}

func TestConversationsAreScopedToUser(t *testing.T) {
	srv := New().WithPasswordCost(bcrypt.MinCost)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tokA, tokB := new(string), new(string)
	a := api.NewClient(ts.URL+Prefix).WithRateLimit(0, 0).WithTokenSource(func() string { return *tokA })
	b := api.NewClient(ts.URL+Prefix).WithRateLimit(0, 0).WithTokenSource(func() string { return *tokB })
	registerAndLogin(t, a, tokA, "alice")
	registerAndLogin(t, b, tokB, "bob")

	resp, err := a.Send(context.Background(), "secret", "")
	require.NoError(t, err)

	_, err = b.History(context.Background(), resp.ConversationID.String())
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = b.Send(context.Background(), "intrude", resp.ConversationID.String())
	assert.ErrorIs(t, err, api.ErrNotFound)

	convs, err := b.Conversations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestHistory_NotFound(t *testing.T) {
	_, client, token := newTestServer(t)
	registerAndLogin(t, client, token, "alice")

	_, err := client.History(context.Background(), "99")
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.Equal(t, "Conversation not found", api.Detail(err, ""))
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New().ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
