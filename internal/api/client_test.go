// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/api/v1").
		WithTokenSource(func() string { return "tok" }).
		WithRateLimit(0, 0)
}

func TestClient_Login_FormEncoded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"), "login must not send a bearer token")
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))
		w.Write([]byte(`{"access_token":"abc","token_type":"bearer"}`))
	})

	tok, err := client.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
}

func TestClient_Login_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	})

	_, err := client.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "Incorrect username or password", Detail(err, "fallback"))
}

func TestClient_Register_JSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bob@example.com", req.Email)
		w.Write([]byte(`{"id":3,"username":"bob","email":"bob@example.com","is_active":true}`))
	})

	user, err := client.Register(context.Background(), RegisterRequest{
		Username: "bob", Email: "bob@example.com", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, ID("3"), user.ID)
}

func TestClient_BearerAndRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err, "request id should be a uuid")
		w.Write([]byte(`{"username":"alice"}`))
	})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestClient_Conversations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/conversations", r.URL.Path)
		w.Write([]byte(`{"conversations":[{"id":2,"title":"Second"},{"id":"1","title":"First"}]}`))
	})

	convs, err := client.Conversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, ID("2"), convs[0].ID)
	assert.Equal(t, ID("1"), convs[1].ID)
}

func TestClient_History(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/history/42", r.URL.Path)
		w.Write([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"You said: hi"}]}`))
	})

	msgs, err := client.History(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []Message{NewUserMessage("hi"), NewAssistantMessage("You said: hi")}, msgs)
}

func TestClient_History_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Conversation not found"}`))
	})

	_, err := client.History(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsUnauthorized(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_Send_NullConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"message":"hello","conversation_id":null}`, string(body))
		w.Write([]byte(`{"message":"You said: hello","conversation_id":7}`))
	})

	resp, err := client.Send(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, ID("7"), resp.ConversationID)
	assert.Equal(t, "You said: hello", resp.Message)
}

func TestClient_Send_NumericConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"message":"again","conversation_id":7}`, string(body))
		w.Write([]byte(`{"message":"ok","conversation_id":7}`))
	})

	_, err := client.Send(context.Background(), "again", "7")
	require.NoError(t, err)
}

func TestClient_ValidationErrorDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"msg":"field required"},{"msg":"value is not a valid email address"}]}`))
	})

	_, err := client.Register(context.Background(), RegisterRequest{})
	assert.Equal(t, "field required; value is not a valid email address", Detail(err, ""))
}

func TestClient_NonJSONError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.Conversations(context.Background())
	assert.Equal(t, "bad gateway", Detail(err, ""))
}

func TestClient_ResponseTooLarge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":"`))
		w.Write([]byte(strings.Repeat("x", MaxResponseSize)))
		w.Write([]byte(`"}`))
	})

	_, err := client.History(context.Background(), "1")
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.WithTimeout(50 * time.Millisecond)

	_, err := client.History(context.Background(), "1")
	assert.Error(t, err)
}

func TestClient_SingleAttempt(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.History(context.Background(), "1")
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "failed requests are not retried")
}

func TestID_JSON(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`42`, "42"},
		{`"42"`, "42"},
		{`"abc-1"`, "abc-1"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(tt.in), &id), tt.in)
		assert.Equal(t, tt.want, id)
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))

	encoded := []struct {
		id   ID
		want string
	}{
		{"42", `42`},
		{"-3", `-3`},
		{"abc-1", `"abc-1"`},
		{"007", `"007"`},
		{"+5", `"+5"`},
		{"", `null`},
	}
	for _, tt := range encoded {
		out, err := json.Marshal(tt.id)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.want, string(out), tt.id)
	}
}

func TestChatRequest_NonCanonicalID(t *testing.T) {
	out, err := json.Marshal(ChatRequest{Message: "hi", ConversationID: "007"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"conversation_id":"007"`)
}
