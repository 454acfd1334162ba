// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the parley chat service.
//
// Every call is a single attempt: failures are returned to the caller, which
// degrades its own piece of UI. Nothing here retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Configuration constants.
const (
	// DefaultBaseURL is where the service listens in a local setup.
	DefaultBaseURL = "http://localhost:8000/api/v1"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit and DefaultRateBurst configure the client-side limiter.
	DefaultRateLimit = 10
	DefaultRateBurst = 20

	// MaxResponseSize is the maximum accepted response body.
	MaxResponseSize = 10 * 1024 * 1024

	// RequestIDHeader carries a per-request uuid.
	RequestIDHeader = "X-Request-ID"

	userAgent = "parley/0.1.0"
)

// TokenSource returns the current bearer token, or "" when logged out.
type TokenSource func() string

// Client talks to the chat service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      TokenSource
	log        zerolog.Logger
}

// NewClient creates a client for baseURL with default timeout and rate limit.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateBurst),
		token:      func() string { return "" },
		log:        zerolog.Nop(),
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRateLimit sets the request rate. A non-positive rps disables limiting.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithTokenSource sets where the bearer token is read from on each request.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	if ts != nil {
		c.token = ts
	}
	return c
}

// WithLogger sets the logger used for request/response lines.
func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.log = l
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// AUTH
// =============================================================================

// Login exchanges credentials for a token. The body is form-encoded.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok Token
	err := c.do(ctx, http.MethodPost, "/auth/login", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), false, &tok)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &tok, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", req, false, &user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", "", nil, true, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

// =============================================================================
// CHAT
// =============================================================================

// Conversations lists the user's conversations, most recently updated first.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var resp conversationsResponse
	if err := c.do(ctx, http.MethodGet, "/chat/conversations", "", nil, true, &resp); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return resp.Conversations, nil
}

// History returns the messages of a conversation in order.
func (c *Client) History(ctx context.Context, conversationID string) ([]Message, error) {
	var resp historyResponse
	path := "/chat/history/" + url.PathEscape(conversationID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, true, &resp); err != nil {
		return nil, fmt.Errorf("conversation history %s: %w", conversationID, err)
	}
	return resp.Messages, nil
}

// Send posts a message. An empty conversationID asks the server to create a
// new conversation; its id comes back in the response.
func (c *Client) Send(ctx context.Context, message, conversationID string) (*ChatResponse, error) {
	req := ChatRequest{Message: message, ConversationID: ID(conversationID)}
	var resp ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat/", req, true, &resp); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &resp, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) doJSON(ctx context.Context, method, path string, body any, auth bool, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(data), auth, out)
}

// do performs one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, auth bool, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	// Headers and bodies are never logged; they carry tokens and messages.
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).
			Str("request_id", requestID).Msg("request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("method", method).Str("path", path).Str("request_id", requestID).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("api response")

	data, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads at most MaxResponseSize bytes of the body.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}
